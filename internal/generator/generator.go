// Package generator provides the common interface for media generation
// providers. The comic orchestrator depends on this port; the MiniMax
// adapter implements it.
package generator

import "context"

// PanelScript is one panel of a generated comic script.
type PanelScript struct {
	PanelNumber    int
	VisualPrompt   string
	Dialogue       string
	Emotion        string
	CameraMovement string
	CharacterName  string
	Gender         string
	Age            string
	Trait          string
}

// ImageResult is the result of a synchronous image generation call.
type ImageResult struct {
	ImageURL string
	TaskID   string
}

// SpeechRequest contains the inputs for a speech generation call.
type SpeechRequest struct {
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
	Emotion  string
	VoiceID  string
}

// VideoPollState classifies one video status check.
type VideoPollState int

const (
	// VideoPending means the task is still running.
	VideoPending VideoPollState = iota
	// VideoSucceeded means the task finished and VideoURL carries the result.
	VideoSucceeded
	// VideoFailed means the task failed terminally.
	VideoFailed
	// VideoInconclusive means the status response could not be interpreted.
	VideoInconclusive
)

// VideoPoll is the classified result of one video status check.
type VideoPoll struct {
	State    VideoPollState
	VideoURL string
	Reason   string
}

// Client defines the interface for media generation providers.
type Client interface {
	// GenerateScript generates a comic script from a story idea.
	// Callers must reject scripts whose panel count is not 4.
	GenerateScript(ctx context.Context, storyIdea string) ([]PanelScript, error)

	// GenerateImage generates an image, optionally anchored to a reference
	// image for character consistency.
	GenerateImage(ctx context.Context, prompt, referenceURL string) (ImageResult, error)

	// GenerateSpeech generates narration audio for dialogue text.
	GenerateSpeech(ctx context.Context, req SpeechRequest) (SpeechResult, error)

	// SubmitVideo submits an asynchronous image-to-video task.
	SubmitVideo(ctx context.Context, imageURL, prompt, cameraMovement string) (taskID string, err error)

	// PollVideo checks the status of a video task.
	PollVideo(ctx context.Context, taskID string) (VideoPoll, error)
}
