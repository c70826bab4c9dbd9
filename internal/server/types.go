// Package server provides the HTTP server for the ComicMotion API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// CreateComicRequest is the HTTP request body for creating a new comic.
type CreateComicRequest struct {
	// StoryIdea is the user's one-line premise for the comic.
	StoryIdea string `json:"story_idea" validate:"required,min=3,max=500"`
}

// CreateComicResponse is the HTTP response after creating a comic.
type CreateComicResponse struct {
	// ID is the unique identifier for the created comic.
	ID string `json:"id"`
	// Panels is the generated 4-panel script.
	Panels []PanelResponse `json:"panels"`
	// CreditsRemaining is the video credit budget left on this comic.
	CreditsRemaining int `json:"credits_remaining"`
}

// PanelResponse is the HTTP representation of one panel.
type PanelResponse struct {
	// Number is the panel ordinal (1-4).
	Number int `json:"number"`
	// Status is the current panel status.
	Status string `json:"status"`
	// VisualPrompt is the scene description used for image generation.
	VisualPrompt string `json:"visual_prompt"`
	// Dialogue is the panel's spoken or narrated text.
	Dialogue string `json:"dialogue,omitempty"`
	// Emotion is the scripted character emotion.
	Emotion string `json:"emotion,omitempty"`
	// CameraMovement is the scripted camera direction for animation.
	CameraMovement string `json:"camera_movement,omitempty"`
	// ImageURL is the generated panel image (if any).
	ImageURL string `json:"image_url,omitempty"`
	// AudioURL is the generated narration audio (if any).
	AudioURL string `json:"audio_url,omitempty"`
	// VideoURL is the generated animation (if any).
	VideoURL string `json:"video_url,omitempty"`
	// Error contains the failure message if image generation failed.
	Error string `json:"error,omitempty"`
}

// ComicResponse is the HTTP response for getting comic details.
type ComicResponse struct {
	// ID is the unique identifier for the comic.
	ID string `json:"id"`
	// StoryIdea is the premise the comic was generated from.
	StoryIdea string `json:"story_idea"`
	// Panels is the current state of all four panels.
	Panels []PanelResponse `json:"panels"`
	// CreditsRemaining is the video credit budget left on this comic.
	CreditsRemaining int `json:"credits_remaining"`
}

// SpeechResponse is the HTTP response after generating panel audio.
type SpeechResponse struct {
	// AudioURL is the generated narration audio.
	AudioURL string `json:"audio_url"`
	// VoiceID is the voice used for synthesis.
	VoiceID string `json:"voice_id"`
	// Emotion is the normalized emotion applied to the voice.
	Emotion string `json:"emotion"`
}

// VideoRequest is the HTTP request body for animating a panel.
type VideoRequest struct {
	// Confirm must be true; animating a panel spends a credit.
	Confirm bool `json:"confirm"`
}

// VideoResponse is the HTTP response after animating a panel.
type VideoResponse struct {
	// VideoURL is the generated animation.
	VideoURL string `json:"video_url"`
	// CreditsRemaining is the video credit budget left on this comic.
	CreditsRemaining int `json:"credits_remaining"`
}

// ArchiveResponse is the HTTP response after archiving a comic's assets.
type ArchiveResponse struct {
	// Assets lists the archived asset references.
	Assets []ArchivedAsset `json:"assets"`
}

// ArchivedAsset is one archived media file.
type ArchivedAsset struct {
	// Key is the storage key of the asset.
	Key string `json:"key"`
	// Ref is the storage reference (path or URL) of the archived copy.
	Ref string `json:"ref"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
