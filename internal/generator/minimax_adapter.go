package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/comicmotion/comicmotion-api/internal/minimax"
)

// MiniMaxAdapter adapts the MiniMax client to the generator Client interface.
type MiniMaxAdapter struct {
	client minimax.Client
}

// NewMiniMaxAdapter creates a new MiniMax generator adapter.
func NewMiniMaxAdapter(client minimax.Client) *MiniMaxAdapter {
	return &MiniMaxAdapter{client: client}
}

// GenerateScript generates a comic script from a story idea.
func (a *MiniMaxAdapter) GenerateScript(ctx context.Context, storyIdea string) ([]PanelScript, error) {
	script, err := a.client.GenerateScript(ctx, storyIdea)
	if err != nil {
		return nil, fmt.Errorf("minimax adapter script: %w", err)
	}

	panels := make([]PanelScript, 0, len(script.Panels))
	for _, p := range script.Panels {
		panels = append(panels, PanelScript{
			PanelNumber:    p.PanelNumber,
			VisualPrompt:   p.VisualPrompt,
			Dialogue:       p.Dialogue,
			Emotion:        p.Emotion,
			CameraMovement: p.CameraMovement,
			CharacterName:  p.CharacterName,
			Gender:         p.Gender,
			Age:            p.Age,
			Trait:          p.Trait,
		})
	}
	return panels, nil
}

// GenerateImage generates an image through MiniMax.
func (a *MiniMaxAdapter) GenerateImage(ctx context.Context, prompt, referenceURL string) (ImageResult, error) {
	result, err := a.client.GenerateImage(ctx, prompt, referenceURL)
	if err != nil {
		return ImageResult{}, fmt.Errorf("minimax adapter image: %w", err)
	}
	return ImageResult{ImageURL: result.ImageURL, TaskID: result.TaskID}, nil
}

// GenerateSpeech generates narration audio through MiniMax.
func (a *MiniMaxAdapter) GenerateSpeech(ctx context.Context, req SpeechRequest) (SpeechResult, error) {
	result, err := a.client.GenerateSpeech(ctx, minimax.SpeechParams{
		Text:    req.Text,
		Emotion: req.Emotion,
		Gender:  req.Gender,
		Age:     req.Age,
		Trait:   req.Trait,
	})
	if err != nil {
		return SpeechResult{}, fmt.Errorf("minimax adapter speech: %w", err)
	}
	return SpeechResult{
		AudioURL: result.AudioURL,
		TaskID:   result.TaskID,
		Emotion:  result.Emotion,
		VoiceID:  result.VoiceID,
	}, nil
}

// SubmitVideo submits an image-to-video task to MiniMax.
func (a *MiniMaxAdapter) SubmitVideo(ctx context.Context, imageURL, prompt, cameraMovement string) (string, error) {
	taskID, err := a.client.SubmitVideo(ctx, imageURL, prompt, cameraMovement)
	if err != nil {
		return "", fmt.Errorf("minimax adapter video submit: %w", err)
	}
	return taskID, nil
}

// PollVideo checks the status of a MiniMax video task. An undecodable status
// response is an inconclusive poll, not a terminal failure: the task may
// still be running on the provider side.
func (a *MiniMaxAdapter) PollVideo(ctx context.Context, taskID string) (VideoPoll, error) {
	result, err := a.client.QueryVideo(ctx, taskID)
	if err != nil {
		if errors.Is(err, minimax.ErrMalformedResponse) {
			return VideoPoll{State: VideoInconclusive, Reason: err.Error()}, nil
		}
		return VideoPoll{}, fmt.Errorf("minimax adapter video poll: %w", err)
	}

	switch result.Status {
	case minimax.StatusSuccess:
		return VideoPoll{State: VideoSucceeded, VideoURL: result.VideoURL}, nil
	case minimax.StatusFailed:
		return VideoPoll{State: VideoFailed, Reason: "video generation failed"}, nil
	default:
		return VideoPoll{State: VideoPending}, nil
	}
}

// Compile-time check that MiniMaxAdapter implements Client.
var _ Client = (*MiniMaxAdapter)(nil)
