package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comicmotion/comicmotion-api/internal/comic"
	"github.com/comicmotion/comicmotion-api/internal/generator"
	"github.com/comicmotion/comicmotion-api/internal/poll"
)

// mockGenerator implements generator.Client for testing.
type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateScript(ctx context.Context, storyIdea string) ([]generator.PanelScript, error) {
	args := m.Called(ctx, storyIdea)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]generator.PanelScript), args.Error(1)
}

func (m *mockGenerator) GenerateImage(ctx context.Context, prompt, referenceURL string) (generator.ImageResult, error) {
	args := m.Called(ctx, prompt, referenceURL)
	return args.Get(0).(generator.ImageResult), args.Error(1)
}

func (m *mockGenerator) GenerateSpeech(ctx context.Context, req generator.SpeechRequest) (generator.SpeechResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(generator.SpeechResult), args.Error(1)
}

func (m *mockGenerator) SubmitVideo(ctx context.Context, imageURL, prompt, cameraMovement string) (string, error) {
	args := m.Called(ctx, imageURL, prompt, cameraMovement)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) PollVideo(ctx context.Context, taskID string) (generator.VideoPoll, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(generator.VideoPoll), args.Error(1)
}

func scriptFixture() []generator.PanelScript {
	return []generator.PanelScript{
		{PanelNumber: 1, VisualPrompt: "a fox in a forest", Dialogue: "What a day!", Emotion: "happy", CameraMovement: "Static", Gender: "female", Age: "young"},
		{PanelNumber: 2, VisualPrompt: "the fox finds a map", Dialogue: "A treasure map?", Emotion: "surprised", CameraMovement: "Zoom In", Gender: "female", Age: "young"},
		{PanelNumber: 3, VisualPrompt: "the fox runs through fields", Dialogue: "", Emotion: "happy", CameraMovement: "Pan Right", Gender: "female", Age: "young"},
		{PanelNumber: 4, VisualPrompt: "the fox digs up a chest", Dialogue: "Found it!", Emotion: "happy", CameraMovement: "Zoom Out", Gender: "female", Age: "young"},
	}
}

func newTestHandlers(t *testing.T, opts ...comic.ServiceOption) (*Handlers, *mockGenerator, *comic.Service) {
	t.Helper()
	repo := comic.NewMemoryRepository()
	gen := &mockGenerator{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	base := []comic.ServiceOption{
		comic.WithPoller(poll.New(time.Millisecond, 5, poll.WithSleep(func(ctx context.Context, d time.Duration) error {
			return ctx.Err()
		}))),
	}
	svc := comic.NewService(repo, gen, nil, logger, append(base, opts...)...)

	// Disable async image generation for deterministic tests
	handlers := NewHandlers(svc, logger, WithAsyncImages(false))
	return handlers, gen, svc
}

// createComic drives the create endpoint and returns the response.
func createComic(t *testing.T, h *Handlers) CreateComicResponse {
	t.Helper()
	body, _ := json.Marshal(CreateComicRequest{StoryIdea: "a fox finds a treasure map"})
	req := httptest.NewRequest(http.MethodPost, "/comics", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.CreateComic(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp CreateComicResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestCreateComic_Success(t *testing.T) {
	h, gen, _ := newTestHandlers(t)
	gen.On("GenerateScript", mock.Anything, "a fox finds a treasure map").
		Return(scriptFixture(), nil)

	resp := createComic(t, h)

	assert.NotEmpty(t, resp.ID)
	require.Len(t, resp.Panels, 4)
	assert.Equal(t, "pending", resp.Panels[0].Status)
	assert.Equal(t, "a fox in a forest", resp.Panels[0].VisualPrompt)
	assert.Equal(t, 3, resp.CreditsRemaining)
	gen.AssertExpectations(t)
}

func TestCreateComic_InvalidJSON(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/comics", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	h.CreateComic(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "INVALID_JSON", resp.Code)
}

func TestCreateComic_ValidationError(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	body, _ := json.Marshal(CreateComicRequest{StoryIdea: ""})
	req := httptest.NewRequest(http.MethodPost, "/comics", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateComic(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
}

func TestGetComic_NotFound(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/comics/nonexistent", nil)
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()

	h.GetComic(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "COMIC_NOT_FOUND", resp.Code)
}

func TestGetComic_Success(t *testing.T) {
	h, gen, _ := newTestHandlers(t)
	gen.On("GenerateScript", mock.Anything, mock.Anything).Return(scriptFixture(), nil)

	created := createComic(t, h)

	req := httptest.NewRequest(http.MethodGet, "/comics/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	rec := httptest.NewRecorder()

	h.GetComic(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ComicResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, created.ID, resp.ID)
	assert.Equal(t, "a fox finds a treasure map", resp.StoryIdea)
	require.Len(t, resp.Panels, 4)
}

func TestGenerateImages_Endpoint(t *testing.T) {
	h, gen, _ := newTestHandlers(t)
	gen.On("GenerateScript", mock.Anything, mock.Anything).Return(scriptFixture(), nil)
	gen.On("GenerateImage", mock.Anything, mock.Anything, "").
		Return(generator.ImageResult{ImageURL: "https://img.example.com/anchor.png"}, nil).Once()
	gen.On("GenerateImage", mock.Anything, mock.Anything, "https://img.example.com/anchor.png").
		Return(generator.ImageResult{ImageURL: "https://img.example.com/p.png"}, nil).Times(3)

	created := createComic(t, h)

	req := httptest.NewRequest(http.MethodPost, "/comics/"+created.ID+"/images", nil)
	req.SetPathValue("id", created.ID)
	rec := httptest.NewRecorder()

	h.GenerateImages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ComicResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	for _, p := range resp.Panels {
		assert.Equal(t, "completed", p.Status)
		assert.NotEmpty(t, p.ImageURL)
	}
	gen.AssertExpectations(t)
}

// imagesReady drives create + image generation so speech/video endpoints can run.
func imagesReady(t *testing.T, h *Handlers, gen *mockGenerator, svc *comic.Service) CreateComicResponse {
	t.Helper()
	gen.On("GenerateScript", mock.Anything, mock.Anything).Return(scriptFixture(), nil)
	gen.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).
		Return(generator.ImageResult{ImageURL: "https://img.example.com/p.png"}, nil)

	created := createComic(t, h)
	require.NoError(t, svc.GenerateImages(context.Background(), created.ID))
	return created
}

func TestGenerateSpeech_Endpoint(t *testing.T) {
	h, gen, svc := newTestHandlers(t)
	created := imagesReady(t, h, gen, svc)

	gen.On("GenerateSpeech", mock.Anything, mock.MatchedBy(func(r generator.SpeechRequest) bool {
		return r.Text == "What a day!"
	})).Return(generator.SpeechResult{
		AudioURL: "https://audio.example.com/p1.mp3",
		VoiceID:  "female-shaonv",
		Emotion:  "happy",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/comics/"+created.ID+"/panels/1/speech", nil)
	req.SetPathValue("id", created.ID)
	req.SetPathValue("number", "1")
	rec := httptest.NewRecorder()

	h.GenerateSpeech(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SpeechResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "https://audio.example.com/p1.mp3", resp.AudioURL)
	assert.Equal(t, "female-shaonv", resp.VoiceID)
	assert.Equal(t, "happy", resp.Emotion)
}

func TestGenerateSpeech_NoDialogue(t *testing.T) {
	h, gen, svc := newTestHandlers(t)
	created := imagesReady(t, h, gen, svc)

	// Panel 3 has no dialogue in the fixture
	req := httptest.NewRequest(http.MethodPost, "/comics/"+created.ID+"/panels/3/speech", nil)
	req.SetPathValue("id", created.ID)
	req.SetPathValue("number", "3")
	rec := httptest.NewRecorder()

	h.GenerateSpeech(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "PRECONDITION_FAILED", resp.Code)
}

func TestGenerateSpeech_InvalidPanelNumber(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	for _, number := range []string{"0", "5", "abc"} {
		req := httptest.NewRequest(http.MethodPost, "/comics/c1/panels/"+number+"/speech", nil)
		req.SetPathValue("id", "c1")
		req.SetPathValue("number", number)
		rec := httptest.NewRecorder()

		h.GenerateSpeech(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "panel number %q", number)

		var resp ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "INVALID_PANEL_NUMBER", resp.Code)
	}
}

func TestGenerateVideo_RequiresConfirmation(t *testing.T) {
	h, gen, svc := newTestHandlers(t)
	created := imagesReady(t, h, gen, svc)

	body, _ := json.Marshal(VideoRequest{Confirm: false})
	req := httptest.NewRequest(http.MethodPost, "/comics/"+created.ID+"/panels/1/video", bytes.NewReader(body))
	req.SetPathValue("id", created.ID)
	req.SetPathValue("number", "1")
	rec := httptest.NewRecorder()

	h.GenerateVideo(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "CONFIRMATION_REQUIRED", resp.Code)
}

func TestGenerateVideo_Success(t *testing.T) {
	h, gen, svc := newTestHandlers(t)
	created := imagesReady(t, h, gen, svc)

	gen.On("SubmitVideo", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("task-1", nil)
	gen.On("PollVideo", mock.Anything, "task-1").
		Return(generator.VideoPoll{State: generator.VideoSucceeded, VideoURL: "https://video.example.com/p1.mp4"}, nil)

	body, _ := json.Marshal(VideoRequest{Confirm: true})
	req := httptest.NewRequest(http.MethodPost, "/comics/"+created.ID+"/panels/1/video", bytes.NewReader(body))
	req.SetPathValue("id", created.ID)
	req.SetPathValue("number", "1")
	rec := httptest.NewRecorder()

	h.GenerateVideo(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp VideoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "https://video.example.com/p1.mp4", resp.VideoURL)
	assert.Equal(t, 2, resp.CreditsRemaining)
}

func TestGenerateVideo_InsufficientCredits(t *testing.T) {
	h, gen, svc := newTestHandlers(t, comic.WithCreditAllotment(0))
	created := imagesReady(t, h, gen, svc)

	body, _ := json.Marshal(VideoRequest{Confirm: true})
	req := httptest.NewRequest(http.MethodPost, "/comics/"+created.ID+"/panels/1/video", bytes.NewReader(body))
	req.SetPathValue("id", created.ID)
	req.SetPathValue("number", "1")
	rec := httptest.NewRecorder()

	h.GenerateVideo(rec, req)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "INSUFFICIENT_CREDITS", resp.Code)
	gen.AssertNotCalled(t, "SubmitVideo", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateVideo_Timeout(t *testing.T) {
	h, gen, svc := newTestHandlers(t)
	created := imagesReady(t, h, gen, svc)

	gen.On("SubmitVideo", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("task-1", nil)
	gen.On("PollVideo", mock.Anything, "task-1").
		Return(generator.VideoPoll{State: generator.VideoPending}, nil)

	body, _ := json.Marshal(VideoRequest{Confirm: true})
	req := httptest.NewRequest(http.MethodPost, "/comics/"+created.ID+"/panels/1/video", bytes.NewReader(body))
	req.SetPathValue("id", created.ID)
	req.SetPathValue("number", "1")
	rec := httptest.NewRecorder()

	h.GenerateVideo(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "VIDEO_TIMED_OUT", resp.Code)
}

func TestArchiveComic_NothingToArchive(t *testing.T) {
	h, gen, _ := newTestHandlers(t)
	gen.On("GenerateScript", mock.Anything, mock.Anything).Return(scriptFixture(), nil)

	created := createComic(t, h)

	req := httptest.NewRequest(http.MethodPost, "/comics/"+created.ID+"/archive", nil)
	req.SetPathValue("id", created.ID)
	rec := httptest.NewRecorder()

	h.ArchiveComic(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "NOTHING_TO_ARCHIVE", resp.Code)
}

func TestRouter_MethodRouting(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	router := NewRouter(h, logger, DefaultConfig())

	// Wrong method on a registered path
	req := httptest.NewRequest(http.MethodDelete, "/comics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// Health through the full chain
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	router := NewRouter(h, logger, DefaultConfig())

	req := httptest.NewRequest(http.MethodOptions, "/comics", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
