package minimax

import (
	"errors"
	"fmt"
)

// Static errors for MiniMax client operations.
var (
	// ErrAPIKeyNotSet is returned when no API key is provided.
	ErrAPIKeyNotSet = errors.New("minimax: API key is required")
	// ErrEmptyStoryIdea is returned when the story idea is empty or whitespace.
	ErrEmptyStoryIdea = errors.New("minimax: story idea is required")
	// ErrEmptyPrompt is returned when the image/video prompt is empty or whitespace.
	ErrEmptyPrompt = errors.New("minimax: prompt is required")
	// ErrEmptyText is returned when the speech text is empty or whitespace.
	ErrEmptyText = errors.New("minimax: text is required")
	// ErrNoSpeakableText is returned when sanitization leaves no speakable text.
	ErrNoSpeakableText = errors.New("minimax: no speakable text after cleaning")
	// ErrImageURLRequired is returned when the video source image URL is missing.
	ErrImageURLRequired = errors.New("minimax: image URL is required")
	// ErrTaskIDRequired is returned when the task ID is not provided.
	ErrTaskIDRequired = errors.New("minimax: task ID is required")
	// ErrNoTaskID is returned when a submit response contains no task ID.
	ErrNoTaskID = errors.New("minimax: submit failed: no task ID returned")
	// ErrNoImageReturned is returned when the image response contains no URL.
	ErrNoImageReturned = errors.New("minimax: no image generated")
	// ErrNoAudioReturned is returned when the speech response contains no URL.
	ErrNoAudioReturned = errors.New("minimax: no audio generated")
	// ErrNoScriptReturned is returned when the chat response contains no message.
	ErrNoScriptReturned = errors.New("minimax: no script generated")
	// ErrNetwork is returned when the transport fails before a response arrives.
	ErrNetwork = errors.New("minimax: network error")
	// ErrMalformedResponse is returned when a response body cannot be decoded.
	ErrMalformedResponse = errors.New("minimax: malformed response")
)

// ProviderError is a semantic failure reported by the MiniMax backend, either
// as a non-success HTTP status or a non-zero base_resp status code.
type ProviderError struct {
	// Code is the provider's numeric status code (0 when only HTTP-level).
	Code int
	// HTTPStatus is the HTTP status code of the response.
	HTTPStatus int
	// Message is the stable, user-facing message for this failure.
	Message string
	// Body is the raw response body, kept for diagnostics.
	Body string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("minimax: provider error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("minimax: provider returned HTTP %d: %s", e.HTTPStatus, e.Message)
}

// statusMessages maps MiniMax status codes to stable user-facing messages.
var statusMessages = map[int]string{
	1004: "Authentication failed. Please check your MiniMax API key.",
	1008: "Insufficient balance. Please add funds to your MiniMax account.",
	1002: "Rate limited. Please wait a moment and try again.",
	1039: "Input too long. Please shorten your text.",
}

// StatusMessage resolves a provider status code to a user-facing message.
// Unmapped codes fall back to the provider's own message text, then to a
// generic string. The mapping is total: it never fails.
func StatusMessage(code int, statusMsg string) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	if statusMsg != "" {
		return statusMsg
	}
	return "unknown error"
}

// providerError builds a ProviderError from a base_resp status code.
func providerError(code int, statusMsg string) *ProviderError {
	return &ProviderError{
		Code:    code,
		Message: StatusMessage(code, statusMsg),
	}
}
