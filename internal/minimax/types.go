// Package minimax provides an HTTP client for the MiniMax media generation API.
package minimax

// VideoStatus represents the status of a MiniMax video generation task.
type VideoStatus string

// Video task statuses aligned with the MiniMax query endpoint.
const (
	StatusQueueing   VideoStatus = "Queueing"
	StatusPreparing  VideoStatus = "Preparing"
	StatusProcessing VideoStatus = "Processing"
	StatusSuccess    VideoStatus = "Success"
	StatusFailed     VideoStatus = "Failed"
)

// IsTerminal returns true if the status is a terminal state.
func (s VideoStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed:
		return true
	default:
		return false
	}
}

// ScriptResult is the decoded 4-panel script returned by the script endpoint.
type ScriptResult struct {
	Panels []PanelScript
}

// PanelScript is one panel of a generated comic script.
type PanelScript struct {
	PanelNumber    int    `json:"panel_number"`
	VisualPrompt   string `json:"visual_prompt"`
	Dialogue       string `json:"dialogue"`
	Emotion        string `json:"character_emotion"`
	CameraMovement string `json:"camera_movement"`
	CharacterName  string `json:"character_name,omitempty"`
	Gender         string `json:"character_gender,omitempty"`
	Age            string `json:"character_age,omitempty"`
	Trait          string `json:"character_trait,omitempty"`
}

// ImageResult is the result of a synchronous image generation call.
type ImageResult struct {
	ImageURL string
	TaskID   string
}

// SpeechParams contains the inputs for a speech generation call.
// Text is sanitized and voice parameters are resolved inside the client.
type SpeechParams struct {
	Text    string
	Emotion string
	Gender  string
	Age     string
	Trait   string
}

// SpeechResult is the result of a synchronous speech generation call.
type SpeechResult struct {
	AudioURL string
	TaskID   string
	// Emotion is the normalized emotion actually sent to the provider.
	Emotion string
	// VoiceID is the deterministic voice selected from the character metadata.
	VoiceID string
}

// VideoPoll is one decoded status response for a video task.
type VideoPoll struct {
	Status VideoStatus
	// VideoURL is the retrieval URL for the generated file, set only on Success.
	VideoURL string
}

// baseResp is the status envelope present on every MiniMax response.
type baseResp struct {
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_msg"`
}

// chatRequest is the request body for the chat completion (script) endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response from the chat completion endpoint.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	BaseResp baseResp `json:"base_resp"`
}

// scriptPayload is the JSON document the model is instructed to emit.
type scriptPayload struct {
	Panels []PanelScript `json:"panels"`
}

// imageRequest is the request body for the image generation endpoint.
type imageRequest struct {
	Model            string             `json:"model"`
	Prompt           string             `json:"prompt"`
	AspectRatio      string             `json:"aspect_ratio"`
	SubjectReference []subjectReference `json:"subject_reference,omitempty"`
}

// subjectReference attaches a character consistency reference to an image request.
type subjectReference struct {
	Type      string `json:"type"`
	ImageFile string `json:"image_file"`
}

// imageResponse is the response from the image generation endpoint.
type imageResponse struct {
	Data struct {
		ImageURLs []string `json:"image_urls"`
	} `json:"data"`
	TaskID   string   `json:"task_id"`
	BaseResp baseResp `json:"base_resp"`
}

// speechRequest is the request body for the t2a endpoint.
type speechRequest struct {
	Model        string       `json:"model"`
	Text         string       `json:"text"`
	Stream       bool         `json:"stream"`
	OutputFormat string       `json:"output_format"`
	VoiceSetting voiceSetting `json:"voice_setting"`
	AudioSetting audioSetting `json:"audio_setting"`
}

type voiceSetting struct {
	VoiceID string  `json:"voice_id"`
	Speed   float64 `json:"speed"`
	Vol     float64 `json:"vol"`
	Pitch   float64 `json:"pitch"`
	Emotion string  `json:"emotion"`
}

type audioSetting struct {
	SampleRate int    `json:"sample_rate"`
	Bitrate    int    `json:"bitrate"`
	Format     string `json:"format"`
	Channel    int    `json:"channel"`
}

// speechResponse is the response from the t2a endpoint.
type speechResponse struct {
	Data struct {
		Audio string `json:"audio"`
	} `json:"data"`
	TraceID  string   `json:"trace_id"`
	BaseResp baseResp `json:"base_resp"`
}

// videoRequest is the request body for the video generation endpoint.
type videoRequest struct {
	Model           string `json:"model"`
	Prompt          string `json:"prompt"`
	FirstFrameImage string `json:"first_frame_image"`
}

// videoResponse is the response from the video submission endpoint.
type videoResponse struct {
	TaskID   string   `json:"task_id"`
	BaseResp baseResp `json:"base_resp"`
}

// videoQueryResponse is the response from the video status query endpoint.
type videoQueryResponse struct {
	Data struct {
		Status string `json:"status"`
		FileID string `json:"file_id"`
	} `json:"data"`
	BaseResp baseResp `json:"base_resp"`
}
