package minimax

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/comicmotion/comicmotion-api/internal/voice"
)

// Client defines the interface for interacting with the MiniMax API.
type Client interface {
	// GenerateScript generates a 4-panel comic script from a story idea.
	GenerateScript(ctx context.Context, storyIdea string) (*ScriptResult, error)

	// GenerateImage generates an image from a prompt, optionally anchored to
	// a character reference image for visual consistency.
	GenerateImage(ctx context.Context, prompt, referenceURL string) (ImageResult, error)

	// GenerateSpeech generates narration audio for dialogue text.
	GenerateSpeech(ctx context.Context, params SpeechParams) (SpeechResult, error)

	// SubmitVideo submits an image-to-video task and returns the task ID.
	// The result is obtained by polling QueryVideo.
	SubmitVideo(ctx context.Context, imageURL, prompt, cameraMovement string) (taskID string, err error)

	// QueryVideo checks the status of a video task.
	QueryVideo(ctx context.Context, taskID string) (VideoPoll, error)
}

// HTTPClient is the HTTP implementation of the MiniMax Client interface.
type HTTPClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) ClientOption {
	return func(hc *HTTPClient) {
		hc.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the MiniMax API.
func WithBaseURL(u string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithRateLimiter sets the limiter applied before every outbound call.
func WithRateLimiter(l *rate.Limiter) ClientOption {
	return func(hc *HTTPClient) {
		hc.limiter = l
	}
}

// NewClient creates a new MiniMax HTTP client.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable MINIMAX_API_KEY.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:    "https://api.minimax.io",
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 2),
	}

	for _, opt := range opts {
		opt(c)
	}

	// If API key was not set via option, try environment variable
	if c.apiKey == "" {
		c.apiKey = os.Getenv("MINIMAX_API_KEY")
	}

	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// scriptSystemPrompt instructs the model to emit a pure-JSON 4-panel script.
const scriptSystemPrompt = `You are a professional comic book writer. Generate a 4-panel comic script based on the user's story idea.

IMPORTANT: You MUST respond with ONLY valid JSON. No markdown, no code blocks, no explanations - just pure JSON.

The JSON must follow this exact structure:
{
  "panels": [
    {
      "panel_number": 1,
      "visual_prompt": "Detailed description of the scene, characters, setting, art style, composition",
      "dialogue": "Character dialogue or narration",
      "character_emotion": "happy|sad|angry|fearful|surprised|disgusted|neutral",
      "camera_movement": "Zoom In|Zoom Out|Pan Left|Pan Right|Tilt Up|Tilt Down|Static",
      "character_name": "Name of speaking character",
      "character_gender": "male|female|neutral",
      "character_age": "young|adult|elderly",
      "character_trait": "Brief voice trait like 'confident', 'timid', 'authoritative', 'gentle', etc"
    }
  ]
}

Rules:
- Generate exactly 4 panels
- Panel 1 establishes the main character and setting
- Each visual_prompt should be detailed and consistent in character description
- Use descriptive art direction (e.g., "manga style", "dramatic lighting", "close-up shot")
- character_emotion must be one of: happy, sad, angry, fearful, surprised, disgusted, neutral
- camera_movement adds cinematic flair
- Keep dialogue concise and impactful
- Include character metadata (name, gender, age, trait) for EVERY panel to enable appropriate voice selection
- character_gender should be: male, female, or neutral (for narrator)
- character_age should be: young (child/teen), adult, or elderly
- character_trait describes voice quality: confident, timid, authoritative, gentle, energetic, wise, etc`

// codeFence matches markdown code fences the model sometimes wraps JSON in.
var codeFence = regexp.MustCompile("```json\n?|```\n?")

// GenerateScript generates a 4-panel comic script from a story idea.
func (c *HTTPClient) GenerateScript(ctx context.Context, storyIdea string) (*ScriptResult, error) {
	if strings.TrimSpace(storyIdea) == "" {
		return nil, ErrEmptyStoryIdea
	}

	reqBody := chatRequest{
		Model: "MiniMax-Text-01",
		Messages: []chatMessage{
			{Role: "system", Content: scriptSystemPrompt},
			{Role: "user", Content: "Story idea: " + storyIdea},
		},
		Temperature: 0.8,
		MaxTokens:   2048,
	}

	var resp chatResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/v1/text/chatcompletion_v2", reqBody, &resp); err != nil {
		return nil, err
	}
	if err := checkBaseResp(resp.BaseResp); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrNoScriptReturned
	}

	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(resp.Choices[0].Message.Content, ""))

	var payload scriptPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid script JSON: %v", ErrMalformedResponse, err)
	}

	return &ScriptResult{Panels: payload.Panels}, nil
}

// GenerateImage generates an image from a prompt. When referenceURL is set,
// it is attached as a character subject reference for visual consistency.
func (c *HTTPClient) GenerateImage(ctx context.Context, prompt, referenceURL string) (ImageResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return ImageResult{}, ErrEmptyPrompt
	}

	reqBody := imageRequest{
		Model:       "image-01",
		Prompt:      prompt,
		AspectRatio: "1:1",
	}
	if referenceURL != "" {
		reqBody.SubjectReference = []subjectReference{
			{Type: "character", ImageFile: referenceURL},
		}
	}

	var resp imageResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/v1/image_generation", reqBody, &resp); err != nil {
		return ImageResult{}, err
	}
	if err := checkBaseResp(resp.BaseResp); err != nil {
		return ImageResult{}, err
	}

	if len(resp.Data.ImageURLs) == 0 || resp.Data.ImageURLs[0] == "" {
		return ImageResult{}, ErrNoImageReturned
	}

	return ImageResult{
		ImageURL: resp.Data.ImageURLs[0],
		TaskID:   resp.TaskID,
	}, nil
}

// GenerateSpeech generates narration audio for dialogue text. The text is
// sanitized and the voice is resolved deterministically from the character
// metadata before submission.
func (c *HTTPClient) GenerateSpeech(ctx context.Context, params SpeechParams) (SpeechResult, error) {
	if strings.TrimSpace(params.Text) == "" {
		return SpeechResult{}, ErrEmptyText
	}

	cleaned := voice.Sanitize(params.Text)
	if cleaned == "" {
		return SpeechResult{}, ErrNoSpeakableText
	}

	voiceID := voice.SelectVoiceID(params.Gender, params.Age, params.Trait)
	settings := voice.SettingsFor(params.Emotion)
	emotion := voice.NormalizeEmotion(params.Emotion)

	reqBody := speechRequest{
		Model:        "speech-02-turbo",
		Text:         cleaned,
		Stream:       false,
		OutputFormat: "url",
		VoiceSetting: voiceSetting{
			VoiceID: voiceID,
			Speed:   settings.Speed,
			Vol:     settings.Vol,
			Pitch:   settings.Pitch,
			Emotion: emotion,
		},
		AudioSetting: audioSetting{
			SampleRate: 32000,
			Bitrate:    128000,
			Format:     "mp3",
			Channel:    1,
		},
	}

	var resp speechResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/v1/t2a_v2", reqBody, &resp); err != nil {
		return SpeechResult{}, err
	}
	if err := checkBaseResp(resp.BaseResp); err != nil {
		return SpeechResult{}, err
	}

	if resp.Data.Audio == "" {
		return SpeechResult{}, ErrNoAudioReturned
	}

	return SpeechResult{
		AudioURL: resp.Data.Audio,
		TaskID:   resp.TraceID,
		Emotion:  emotion,
		VoiceID:  voiceID,
	}, nil
}

// SubmitVideo submits an image-to-video task and returns the task ID.
func (c *HTTPClient) SubmitVideo(ctx context.Context, imageURL, prompt, cameraMovement string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", ErrImageURLRequired
	}
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if cameraMovement == "" {
		cameraMovement = "Static"
	}

	reqBody := videoRequest{
		Model:           "video-01",
		Prompt:          fmt.Sprintf("%s [%s]", prompt, cameraMovement),
		FirstFrameImage: imageURL,
	}

	var resp videoResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/v1/video_generation", reqBody, &resp); err != nil {
		return "", err
	}
	if err := checkBaseResp(resp.BaseResp); err != nil {
		return "", err
	}

	if resp.TaskID == "" {
		return "", ErrNoTaskID
	}

	return resp.TaskID, nil
}

// QueryVideo checks the status of a video task. A Success status without a
// file ID is reported as still Processing, since there is nothing to retrieve
// yet.
func (c *HTTPClient) QueryVideo(ctx context.Context, taskID string) (VideoPoll, error) {
	if taskID == "" {
		return VideoPoll{}, ErrTaskIDRequired
	}

	queryURL := fmt.Sprintf("%s/v1/query/video_generation?task_id=%s", c.baseURL, url.QueryEscape(taskID))

	var resp videoQueryResponse
	if err := c.pollJSON(ctx, queryURL, &resp); err != nil {
		return VideoPoll{}, err
	}

	switch resp.Data.Status {
	case string(StatusSuccess):
		if resp.Data.FileID == "" {
			return VideoPoll{Status: StatusProcessing}, nil
		}
		return VideoPoll{
			Status:   StatusSuccess,
			VideoURL: fmt.Sprintf("%s/v1/files/retrieve?file_id=%s", c.baseURL, resp.Data.FileID),
		}, nil
	case string(StatusFailed):
		return VideoPoll{Status: StatusFailed}, nil
	default:
		return VideoPoll{Status: VideoStatus(resp.Data.Status)}, nil
	}
}

// pollJSON fetches a status document. Unlike doJSON it decodes the body
// regardless of HTTP status: a task is classified by the status field alone,
// and a gateway error page on a single tick is ErrMalformedResponse, not a
// terminal ProviderError. Transport failures still surface as ErrNetwork.
func (c *HTTPClient) pollJSON(ctx context.Context, reqURL string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("minimax: rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("minimax: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("%w: status %d: %v", ErrMalformedResponse, resp.StatusCode, err)
	}

	return nil
}

// doJSON performs a single JSON request against the MiniMax API.
func (c *HTTPClient) doJSON(ctx context.Context, method, reqURL string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("minimax: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("minimax: rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("minimax: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{
			HTTPStatus: resp.StatusCode,
			Message:    fmt.Sprintf("request failed with status %d", resp.StatusCode),
			Body:       string(respBody),
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	return nil
}

// checkBaseResp converts a non-zero base_resp status code into a ProviderError.
func checkBaseResp(br baseResp) error {
	if br.StatusCode != 0 {
		return providerError(br.StatusCode, br.StatusMsg)
	}
	return nil
}
