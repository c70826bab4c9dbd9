package comic

import (
	"errors"
	"strings"
	"testing"

	"github.com/comicmotion/comicmotion-api/internal/generator"
)

func testScript() []generator.PanelScript {
	return []generator.PanelScript{
		{PanelNumber: 1, VisualPrompt: "A robot wakes up in a junkyard, manga style", Dialogue: "Where... am I?", Emotion: "surprised", CameraMovement: "Zoom In", CharacterName: "Rusty", Gender: "male", Age: "adult", Trait: "gentle"},
		{PanelNumber: 2, VisualPrompt: "The robot climbs a scrap heap at dawn", Dialogue: "I have to find the others.", Emotion: "neutral", CameraMovement: "Tilt Up", CharacterName: "Rusty", Gender: "male", Age: "adult", Trait: "gentle"},
		{PanelNumber: 3, VisualPrompt: "A city skyline appears on the horizon", Dialogue: "", Emotion: "happy", CameraMovement: "Pan Right", CharacterName: "Rusty", Gender: "male", Age: "adult", Trait: "gentle"},
		{PanelNumber: 4, VisualPrompt: "The robot walks toward the city, determined", Dialogue: "Here I come.", Emotion: "happy", CameraMovement: "Static", CharacterName: "Rusty", Gender: "male", Age: "adult", Trait: "gentle"},
	}
}

func newTestComic(t *testing.T) *Comic {
	t.Helper()
	c, err := New("a robot finds its family", testScript(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	c := newTestComic(t)

	if c.ID == "" {
		t.Error("expected comic ID to be set")
	}
	if !strings.HasPrefix(c.ID, "comic-") {
		t.Errorf("expected comic- prefix, got %q", c.ID)
	}

	view := c.Snapshot()
	if len(view.Panels) != PanelCount {
		t.Fatalf("expected %d panels, got %d", PanelCount, len(view.Panels))
	}
	for i, p := range view.Panels {
		if p.Number != i+1 {
			t.Errorf("panel %d has number %d", i, p.Number)
		}
		if p.Status != StatusPending {
			t.Errorf("panel %d: expected status %s, got %s", p.Number, StatusPending, p.Status)
		}
	}
	if view.CreditsRemaining != 3 {
		t.Errorf("expected 3 credits, got %d", view.CreditsRemaining)
	}
}

func TestNew_WrongPanelCount(t *testing.T) {
	_, err := New("idea", testScript()[:3], 3)
	if !errors.Is(err, ErrPanelCount) {
		t.Errorf("expected ErrPanelCount, got %v", err)
	}

	_, err = New("idea", append(testScript(), generator.PanelScript{PanelNumber: 5}), 3)
	if !errors.Is(err, ErrPanelCount) {
		t.Errorf("expected ErrPanelCount, got %v", err)
	}
}

func TestComic_AnchorSetByFirstPanel(t *testing.T) {
	c := newTestComic(t)

	if c.Anchor() != "" {
		t.Errorf("expected empty anchor before generation, got %q", c.Anchor())
	}

	if err := c.StartImage(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.SetImage(1, "https://img.example.com/anchor.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Anchor() != "https://img.example.com/anchor.png" {
		t.Errorf("expected anchor to be panel 1's image, got %q", c.Anchor())
	}
}

func TestComic_NonAnchorImageDoesNotSetAnchor(t *testing.T) {
	c := newTestComic(t)

	if err := c.StartImage(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.SetImage(2, "https://img.example.com/p2.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Anchor() != "" {
		t.Errorf("panel 2 must not set the anchor, got %q", c.Anchor())
	}
}

func TestComic_StartImage_Busy(t *testing.T) {
	c := newTestComic(t)

	if err := c.StartImage(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := c.StartImage(1)
	if !errors.Is(err, ErrPanelBusy) {
		t.Errorf("expected ErrPanelBusy, got %v", err)
	}
}

func TestComic_SetImageError(t *testing.T) {
	c := newTestComic(t)

	if err := c.StartImage(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.SetImageError(1, "provider rejected the prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, _ := c.PanelSnapshot(1)
	if view.Status != StatusError {
		t.Errorf("expected status %s, got %s", StatusError, view.Status)
	}
	if view.Error != "provider rejected the prompt" {
		t.Errorf("unexpected error message: %q", view.Error)
	}

	// A failed image stage may be retried; the retry clears the error
	if err := c.StartImage(1); err != nil {
		t.Fatalf("retry after error: unexpected error: %v", err)
	}
	view, _ = c.PanelSnapshot(1)
	if view.Status != StatusGeneratingImage {
		t.Errorf("expected status %s, got %s", StatusGeneratingImage, view.Status)
	}
	if view.Error != "" {
		t.Errorf("expected error cleared on retry, got %q", view.Error)
	}
}

func TestComic_PanelNotFound(t *testing.T) {
	c := newTestComic(t)

	for _, n := range []int{0, 5, -1} {
		if err := c.StartImage(n); !errors.Is(err, ErrPanelNotFound) {
			t.Errorf("StartImage(%d): expected ErrPanelNotFound, got %v", n, err)
		}
	}
}

func completePanelImage(t *testing.T, c *Comic, number int, url string) {
	t.Helper()
	if err := c.StartImage(number); err != nil {
		t.Fatalf("start image %d: %v", number, err)
	}
	if err := c.SetImage(number, url); err != nil {
		t.Fatalf("set image %d: %v", number, err)
	}
}

func TestComic_AudioLifecycle(t *testing.T) {
	c := newTestComic(t)
	completePanelImage(t, c, 1, "https://img.example.com/p1.png")

	if err := c.StartAudio(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, _ := c.PanelSnapshot(1)
	if view.Status != StatusGeneratingAudio {
		t.Errorf("expected status %s, got %s", StatusGeneratingAudio, view.Status)
	}

	if err := c.SetAudio(1, "https://audio.example.com/p1.mp3", "male-qn-qingse", "surprised"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, _ = c.PanelSnapshot(1)
	if view.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, view.Status)
	}
	if view.AudioURL != "https://audio.example.com/p1.mp3" {
		t.Errorf("unexpected audio URL: %q", view.AudioURL)
	}
	if view.VoiceID != "male-qn-qingse" {
		t.Errorf("unexpected voice ID: %q", view.VoiceID)
	}
}

func TestComic_StartAudio_Preconditions(t *testing.T) {
	c := newTestComic(t)

	// No image yet
	if err := c.StartAudio(1); !errors.Is(err, ErrImageRequired) {
		t.Errorf("expected ErrImageRequired, got %v", err)
	}

	// Panel 3 has no dialogue
	completePanelImage(t, c, 3, "https://img.example.com/p3.png")
	if err := c.StartAudio(3); !errors.Is(err, ErrNoDialogue) {
		t.Errorf("expected ErrNoDialogue, got %v", err)
	}

	// Concurrent speech request
	completePanelImage(t, c, 1, "https://img.example.com/p1.png")
	if err := c.StartAudio(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.StartAudio(1); !errors.Is(err, ErrPanelBusy) {
		t.Errorf("expected ErrPanelBusy, got %v", err)
	}
}

func TestComic_AudioFailed_RestoresCompleted(t *testing.T) {
	c := newTestComic(t)
	completePanelImage(t, c, 1, "https://img.example.com/p1.png")

	if err := c.StartAudio(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.AudioFailed(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, _ := c.PanelSnapshot(1)
	if view.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, view.Status)
	}
	if view.AudioURL != "" {
		t.Errorf("expected no audio URL, got %q", view.AudioURL)
	}

	// Failed audio can be retried
	if err := c.StartAudio(1); err != nil {
		t.Errorf("expected retry to be allowed, got %v", err)
	}
}

func TestComic_VideoLifecycle(t *testing.T) {
	c := newTestComic(t)
	completePanelImage(t, c, 2, "https://img.example.com/p2.png")

	if err := c.StartVideo(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, _ := c.PanelSnapshot(2)
	if view.Status != StatusGeneratingVideo {
		t.Errorf("expected status %s, got %s", StatusGeneratingVideo, view.Status)
	}

	if err := c.SetVideo(2, "https://video.example.com/p2.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, _ = c.PanelSnapshot(2)
	if view.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, view.Status)
	}
	if view.VideoURL != "https://video.example.com/p2.mp4" {
		t.Errorf("unexpected video URL: %q", view.VideoURL)
	}
}

func TestComic_StartVideo_RequiresImage(t *testing.T) {
	c := newTestComic(t)

	if err := c.StartVideo(1); !errors.Is(err, ErrImageRequired) {
		t.Errorf("expected ErrImageRequired, got %v", err)
	}
}

func TestComic_VideoFailed_KeepsImage(t *testing.T) {
	c := newTestComic(t)
	completePanelImage(t, c, 1, "https://img.example.com/p1.png")

	if err := c.StartVideo(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.VideoFailed(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, _ := c.PanelSnapshot(1)
	if view.Status != StatusCompleted {
		t.Errorf("failed video must degrade to completed, got %s", view.Status)
	}
	if view.ImageURL != "https://img.example.com/p1.png" {
		t.Errorf("panel must keep its image, got %q", view.ImageURL)
	}
	if view.VideoURL != "" {
		t.Errorf("expected no video URL, got %q", view.VideoURL)
	}
}

func TestComic_AudioDuringVideo(t *testing.T) {
	c := newTestComic(t)
	completePanelImage(t, c, 1, "https://img.example.com/p1.png")

	if err := c.StartVideo(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A speech request may proceed while the video job is in flight.
	if err := c.StartAudio(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, _ := c.PanelSnapshot(1)
	if view.Status != StatusGeneratingVideo {
		t.Errorf("video state must stay visible, got %s", view.Status)
	}

	if err := c.SetAudio(1, "https://audio.example.com/p1.mp3", "male-qn-qingse", "surprised"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, _ = c.PanelSnapshot(1)
	if view.Status != StatusGeneratingVideo {
		t.Errorf("audio completion must not disturb the video state, got %s", view.Status)
	}
	if view.AudioURL == "" {
		t.Error("expected audio URL to be attached")
	}

	if err := c.SetVideo(1, "https://video.example.com/p1.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, _ = c.PanelSnapshot(1)
	if view.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, view.Status)
	}
}

func TestComic_SnapshotIsACopy(t *testing.T) {
	c := newTestComic(t)
	view := c.Snapshot()

	view.Panels[0].ImageURL = "mutated"

	fresh, _ := c.PanelSnapshot(1)
	if fresh.ImageURL != "" {
		t.Error("snapshot mutation must not affect the aggregate")
	}
}
