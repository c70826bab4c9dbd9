package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/comicmotion/comicmotion-api/internal/comic"
	"github.com/comicmotion/comicmotion-api/internal/minimax"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service           *comic.Service
	validator         *validator.Validate
	logger            *slog.Logger
	enableAsyncImages bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncImages enables or disables background image generation.
// When disabled, CreateComic only generates the script and returns
// immediately without starting the image sequence.
func WithAsyncImages(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncImages = enabled
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *comic.Service, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:           service,
		validator:         validator.New(),
		logger:            logger,
		enableAsyncImages: true, // Default to enabled
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateComic handles POST /comics requests. It generates the script
// synchronously and kicks off the anchor-first image sequence in the
// background.
func (h *Handlers) CreateComic(w http.ResponseWriter, r *http.Request) {
	var req CreateComicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	created, err := h.service.CreateComic(r.Context(), req.StoryIdea)
	if err != nil {
		h.writeServiceError(w, err, "COMIC_CREATION_FAILED", "failed to create comic")
		return
	}

	// Start image generation in background with a detached context.
	// Use context.WithoutCancel to prevent cancellation when the request ends.
	if h.enableAsyncImages {
		go func(ctx context.Context, comicID string) {
			if genErr := h.service.GenerateImages(ctx, comicID); genErr != nil {
				h.logger.Error("background image generation failed",
					slog.String("comic_id", comicID),
					slog.String("error", genErr.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), created.ID)
	}

	view := created.Snapshot()
	h.logger.Info("comic created",
		slog.String("comic_id", view.ID),
	)

	writeJSON(w, http.StatusAccepted, CreateComicResponse{
		ID:               view.ID,
		Panels:           panelResponses(view),
		CreditsRemaining: view.CreditsRemaining,
	})
}

// GetComic handles GET /comics/{id} requests.
func (h *Handlers) GetComic(w http.ResponseWriter, r *http.Request) {
	comicID := r.PathValue("id")
	if comicID == "" {
		writeError(w, http.StatusBadRequest, "comic ID is required", "MISSING_COMIC_ID")
		return
	}

	found, err := h.service.GetComic(r.Context(), comicID)
	if err != nil {
		if errors.Is(err, comic.ErrComicNotFound) {
			writeError(w, http.StatusNotFound, "comic not found", "COMIC_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get comic",
			slog.String("comic_id", comicID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get comic", "COMIC_FETCH_FAILED")
		return
	}

	view := found.Snapshot()
	writeJSON(w, http.StatusOK, ComicResponse{
		ID:               view.ID,
		StoryIdea:        view.StoryIdea,
		Panels:           panelResponses(view),
		CreditsRemaining: view.CreditsRemaining,
	})
}

// GenerateImages handles POST /comics/{id}/images requests. It re-runs the
// image sequence synchronously, retrying only panels without an image;
// useful when async generation is disabled or after an upstream failure.
func (h *Handlers) GenerateImages(w http.ResponseWriter, r *http.Request) {
	comicID := r.PathValue("id")
	if comicID == "" {
		writeError(w, http.StatusBadRequest, "comic ID is required", "MISSING_COMIC_ID")
		return
	}

	if err := h.service.GenerateImages(r.Context(), comicID); err != nil {
		h.writeServiceError(w, err, "IMAGE_GENERATION_FAILED", "failed to generate images")
		return
	}

	found, err := h.service.GetComic(r.Context(), comicID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get comic", "COMIC_FETCH_FAILED")
		return
	}
	view := found.Snapshot()
	writeJSON(w, http.StatusOK, ComicResponse{
		ID:               view.ID,
		StoryIdea:        view.StoryIdea,
		Panels:           panelResponses(view),
		CreditsRemaining: view.CreditsRemaining,
	})
}

// GenerateSpeech handles POST /comics/{id}/panels/{number}/speech requests.
func (h *Handlers) GenerateSpeech(w http.ResponseWriter, r *http.Request) {
	comicID, number, ok := h.panelParams(w, r)
	if !ok {
		return
	}

	result, err := h.service.GenerateSpeech(r.Context(), comicID, number)
	if err != nil {
		h.writeServiceError(w, err, "SPEECH_GENERATION_FAILED", "failed to generate speech")
		return
	}

	writeJSON(w, http.StatusOK, SpeechResponse{
		AudioURL: result.AudioURL,
		VoiceID:  result.VoiceID,
		Emotion:  result.Emotion,
	})
}

// GenerateVideo handles POST /comics/{id}/panels/{number}/video requests.
func (h *Handlers) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	comicID, number, ok := h.panelParams(w, r)
	if !ok {
		return
	}

	var req VideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	videoURL, err := h.service.GenerateVideo(r.Context(), comicID, number, req.Confirm)
	if err != nil {
		h.writeServiceError(w, err, "VIDEO_GENERATION_FAILED", "failed to generate video")
		return
	}

	found, err := h.service.GetComic(r.Context(), comicID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get comic", "COMIC_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, VideoResponse{
		VideoURL:         videoURL,
		CreditsRemaining: found.Snapshot().CreditsRemaining,
	})
}

// ArchiveComic handles POST /comics/{id}/archive requests.
func (h *Handlers) ArchiveComic(w http.ResponseWriter, r *http.Request) {
	comicID := r.PathValue("id")
	if comicID == "" {
		writeError(w, http.StatusBadRequest, "comic ID is required", "MISSING_COMIC_ID")
		return
	}

	archived, err := h.service.ArchiveComic(r.Context(), comicID)
	if err != nil {
		h.writeServiceError(w, err, "ARCHIVE_FAILED", "failed to archive comic")
		return
	}

	resp := ArchiveResponse{Assets: make([]ArchivedAsset, 0, len(archived))}
	for _, a := range archived {
		resp.Assets = append(resp.Assets, ArchivedAsset{Key: a.Key, Ref: a.Ref})
	}
	writeJSON(w, http.StatusOK, resp)
}

// panelParams extracts and validates the comic ID and panel number path
// parameters, writing the error response itself when they are invalid.
func (h *Handlers) panelParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	comicID := r.PathValue("id")
	if comicID == "" {
		writeError(w, http.StatusBadRequest, "comic ID is required", "MISSING_COMIC_ID")
		return "", 0, false
	}
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 || number > comic.PanelCount {
		writeError(w, http.StatusBadRequest, "panel number must be between 1 and 4", "INVALID_PANEL_NUMBER")
		return "", 0, false
	}
	return comicID, number, true
}

// writeServiceError maps service-layer errors to HTTP status codes. Unknown
// errors are logged and reported with the given fallback code and message.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error, fallbackCode, fallbackMsg string) {
	var providerErr *minimax.ProviderError

	switch {
	case errors.Is(err, comic.ErrStoryIdeaRequired):
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, comic.ErrConfirmationRequired):
		writeError(w, http.StatusBadRequest, "confirmation is required to spend a video credit", "CONFIRMATION_REQUIRED")
	case errors.Is(err, comic.ErrNoDialogue), errors.Is(err, comic.ErrImageRequired):
		writeError(w, http.StatusBadRequest, err.Error(), "PRECONDITION_FAILED")
	case errors.Is(err, comic.ErrNothingToArchive):
		writeError(w, http.StatusBadRequest, err.Error(), "NOTHING_TO_ARCHIVE")
	case errors.Is(err, comic.ErrInsufficientCredits):
		writeError(w, http.StatusPaymentRequired, "insufficient video credits", "INSUFFICIENT_CREDITS")
	case errors.Is(err, comic.ErrComicNotFound):
		writeError(w, http.StatusNotFound, "comic not found", "COMIC_NOT_FOUND")
	case errors.Is(err, comic.ErrPanelNotFound):
		writeError(w, http.StatusNotFound, "panel not found", "PANEL_NOT_FOUND")
	case errors.Is(err, comic.ErrPanelBusy), errors.Is(err, comic.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error(), "PANEL_CONFLICT")
	case errors.Is(err, comic.ErrVideoTimedOut):
		writeError(w, http.StatusGatewayTimeout, "video generation timed out", "VIDEO_TIMED_OUT")
	case errors.Is(err, comic.ErrVideoGenerationFailed):
		writeError(w, http.StatusBadGateway, err.Error(), "VIDEO_FAILED")
	case errors.As(err, &providerErr):
		h.logger.Warn("provider error",
			slog.Int("code", providerErr.Code),
			slog.String("message", providerErr.Message),
		)
		writeError(w, http.StatusBadGateway, providerErr.Message, "PROVIDER_ERROR")
	case errors.Is(err, minimax.ErrNetwork):
		writeError(w, http.StatusBadGateway, "upstream provider unreachable", "PROVIDER_UNREACHABLE")
	default:
		h.logger.Error(fallbackMsg,
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, fallbackMsg, fallbackCode)
	}
}

// panelResponses converts a comic view's panels to their HTTP representation.
func panelResponses(view comic.View) []PanelResponse {
	resp := make([]PanelResponse, 0, len(view.Panels))
	for _, p := range view.Panels {
		resp = append(resp, PanelResponse{
			Number:         p.Number,
			Status:         string(p.Status),
			VisualPrompt:   p.VisualPrompt,
			Dialogue:       p.Dialogue,
			Emotion:        string(p.Emotion),
			CameraMovement: string(p.CameraMovement),
			ImageURL:       p.ImageURL,
			AudioURL:       p.AudioURL,
			VideoURL:       p.VideoURL,
			Error:          p.Error,
		})
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
