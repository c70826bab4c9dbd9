// Package comic provides the Comic aggregate for the four-panel generation
// pipeline. It includes the Panel entity with explicit state machine
// transitions, the per-comic video credit ledger, and the repository
// interface for persistence.
package comic

import (
	"errors"
	"strings"
)

// Status represents the current lifecycle state of a Panel.
type Status string

const (
	// StatusPending indicates no media generation has started yet.
	StatusPending Status = "pending"
	// StatusGeneratingImage indicates an image request is in flight.
	StatusGeneratingImage Status = "generating-image"
	// StatusGeneratingAudio indicates a speech request is in flight.
	StatusGeneratingAudio Status = "generating-audio"
	// StatusGeneratingVideo indicates a video job is in flight.
	StatusGeneratingVideo Status = "generating-video"
	// StatusCompleted indicates the panel has a usable image.
	StatusCompleted Status = "completed"
	// StatusError indicates the image stage failed. Audio and video requests
	// are rejected because no image exists; a re-run of the image sequence
	// may retry the panel.
	StatusError Status = "error"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("comic: invalid panel state transition")

// validTransitions defines which panel state transitions are allowed.
// A failed video or audio stage degrades back to completed rather than to
// error: the panel keeps its image and remains viewable. A failed image
// stage may be retried from error.
var validTransitions = map[Status][]Status{
	StatusPending:         {StatusGeneratingImage},
	StatusGeneratingImage: {StatusCompleted, StatusError},
	StatusCompleted:       {StatusGeneratingAudio, StatusGeneratingVideo},
	StatusGeneratingAudio: {StatusCompleted, StatusGeneratingVideo},
	StatusGeneratingVideo: {StatusCompleted},
	StatusError:           {StatusGeneratingImage},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Emotion is a discrete character emotion tag.
type Emotion string

// Emotions supported by the speech backend.
const (
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionFearful   Emotion = "fearful"
	EmotionSurprised Emotion = "surprised"
	EmotionDisgusted Emotion = "disgusted"
	EmotionNeutral   Emotion = "neutral"
)

// CameraMovement is a discrete camera movement tag for video generation.
type CameraMovement string

// Camera movements supported by the video backend.
const (
	CameraStatic   CameraMovement = "Static"
	CameraZoomIn   CameraMovement = "Zoom In"
	CameraZoomOut  CameraMovement = "Zoom Out"
	CameraPanLeft  CameraMovement = "Pan Left"
	CameraPanRight CameraMovement = "Pan Right"
	CameraTiltUp   CameraMovement = "Tilt Up"
	CameraTiltDown CameraMovement = "Tilt Down"
	CameraRotate   CameraMovement = "Rotate"
)

// Panel represents one unit of the four-part sequence.
// All mutation goes through the owning Comic aggregate, which serializes
// updates; Panel itself carries no lock.
type Panel struct {
	// ID is the stable panel identifier, derived from the ordinal.
	ID string
	// Number is the ordinal position (1-4).
	Number int

	// Script content.
	VisualPrompt   string
	Dialogue       string
	Emotion        Emotion
	CameraMovement CameraMovement
	CharacterName  string
	Gender         string
	Age            string
	Trait          string

	// Derived media, each independently settable.
	ImageURL string
	AudioURL string
	VideoURL string

	// Voice parameters resolved on speech generation.
	VoiceID         string
	ResolvedEmotion string

	// Status is the current lifecycle state.
	Status Status
	// Error is the failure message, present only in the error state.
	Error string

	// audioInFlight guards against concurrent speech requests for the same
	// panel. Audio runs independently of the video path, so it cannot rely
	// on Status alone.
	audioInFlight bool
}

// HasDialogue returns true if the panel has speakable dialogue text.
func (p *Panel) HasDialogue() bool {
	return strings.TrimSpace(p.Dialogue) != ""
}

// transition attempts to change the panel status.
// Returns ErrInvalidTransition if the transition is not allowed.
func (p *Panel) transition(to Status) error {
	if !canTransition(p.Status, to) {
		return ErrInvalidTransition
	}
	p.Status = to
	if to != StatusError {
		p.Error = ""
	}
	return nil
}
