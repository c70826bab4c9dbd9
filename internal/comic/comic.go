package comic

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/comicmotion/comicmotion-api/internal/comic/id"
	"github.com/comicmotion/comicmotion-api/internal/generator"
)

// PanelCount is the fixed number of panels in a comic.
const PanelCount = 4

// Static errors for comic aggregate operations.
var (
	// ErrPanelNotFound is returned when a panel ordinal is out of range.
	ErrPanelNotFound = errors.New("comic: panel not found")
	// ErrPanelCount is returned when a script does not have exactly 4 panels.
	ErrPanelCount = errors.New("comic: script must contain exactly 4 panels")
	// ErrPanelBusy is returned when a generation request targets a panel that
	// already has the same kind of request in flight.
	ErrPanelBusy = errors.New("comic: panel generation already in progress")
	// ErrImageRequired is returned when audio or video is requested for a
	// panel that has no image yet.
	ErrImageRequired = errors.New("comic: panel image must be generated first")
	// ErrNoDialogue is returned when speech is requested for a panel without
	// dialogue text.
	ErrNoDialogue = errors.New("comic: panel has no dialogue to speak")
	// ErrAnchorAlreadySet is returned when a second anchor set is attempted
	// within one generation run.
	ErrAnchorAlreadySet = errors.New("comic: anchor reference already set")
)

// Comic is the aggregate owning the four-panel sequence, the anchor
// reference, and the video credit ledger. All panel mutations are serialized
// through the aggregate's lock.
type Comic struct {
	mu sync.RWMutex

	// ID is the unique identifier for this comic.
	ID string
	// StoryIdea is the prompt the script was generated from.
	StoryIdea string

	panels [PanelCount]*Panel

	// anchorURL is panel 1's generated image, reused as the consistency
	// reference for all other panels. Set exactly once per generation run.
	anchorURL string

	// credits gates video generation for this comic.
	credits *CreditLedger

	// CreatedAt is when the comic was created.
	CreatedAt time.Time
	// UpdatedAt is when the comic was last updated.
	UpdatedAt time.Time
}

// New creates a Comic from a generated script. The script must contain
// exactly 4 panels in ordinal order.
func New(storyIdea string, script []generator.PanelScript, creditAllotment int) (*Comic, error) {
	if len(script) != PanelCount {
		return nil, fmt.Errorf("%w: got %d", ErrPanelCount, len(script))
	}

	now := time.Now()
	c := &Comic{
		ID:        id.Generate("comic"),
		StoryIdea: storyIdea,
		credits:   NewCreditLedger(creditAllotment),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for i, s := range script {
		number := i + 1
		c.panels[i] = &Panel{
			ID:             fmt.Sprintf("panel-%d", number),
			Number:         number,
			VisualPrompt:   s.VisualPrompt,
			Dialogue:       s.Dialogue,
			Emotion:        Emotion(s.Emotion),
			CameraMovement: CameraMovement(s.CameraMovement),
			CharacterName:  s.CharacterName,
			Gender:         s.Gender,
			Age:            s.Age,
			Trait:          s.Trait,
			Status:         StatusPending,
		}
	}

	return c, nil
}

// panel returns the panel with the given ordinal. Callers must hold the lock.
func (c *Comic) panel(number int) (*Panel, error) {
	if number < 1 || number > PanelCount {
		return nil, fmt.Errorf("%w: %d", ErrPanelNotFound, number)
	}
	return c.panels[number-1], nil
}

// touch updates the modification timestamp. Callers must hold the lock.
func (c *Comic) touch() {
	c.UpdatedAt = time.Now()
}

// Anchor returns the anchor reference, or "" when panel 1 has not produced
// a usable image yet.
func (c *Comic) Anchor() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.anchorURL
}

// Credits returns the video credit ledger for this comic.
func (c *Comic) Credits() *CreditLedger {
	return c.credits
}

// StartImage transitions a panel into the generating-image state.
// Re-invoking it for a panel already mid-flight returns ErrPanelBusy.
func (c *Comic) StartImage(number int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(number)
	if err != nil {
		return err
	}
	if p.Status == StatusGeneratingImage {
		return ErrPanelBusy
	}
	if err := p.transition(StatusGeneratingImage); err != nil {
		return err
	}
	c.touch()
	return nil
}

// SetImage records a generated image and completes the image stage. For
// panel 1 the image also becomes the anchor reference.
func (c *Comic) SetImage(number int, imageURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(number)
	if err != nil {
		return err
	}
	if err := p.transition(StatusCompleted); err != nil {
		return err
	}
	p.ImageURL = imageURL

	if number == 1 {
		if c.anchorURL != "" {
			return ErrAnchorAlreadySet
		}
		c.anchorURL = imageURL
	}
	c.touch()
	return nil
}

// SetImageError marks a panel's image stage as failed.
func (c *Comic) SetImageError(number int, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(number)
	if err != nil {
		return err
	}
	if err := p.transition(StatusError); err != nil {
		return err
	}
	p.Error = msg
	c.touch()
	return nil
}

// StartAudio marks a speech request in flight. It requires an existing image
// and dialogue text. When the panel is otherwise idle the visible status
// moves to generating-audio; when a video job is concurrently in flight the
// audio request proceeds without a visible transition.
func (c *Comic) StartAudio(number int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(number)
	if err != nil {
		return err
	}
	if p.ImageURL == "" {
		return ErrImageRequired
	}
	if !p.HasDialogue() {
		return ErrNoDialogue
	}
	if p.audioInFlight {
		return ErrPanelBusy
	}
	if p.Status == StatusCompleted {
		if err := p.transition(StatusGeneratingAudio); err != nil {
			return err
		}
	}
	p.audioInFlight = true
	c.touch()
	return nil
}

// SetAudio attaches generated audio and its resolved voice parameters.
func (c *Comic) SetAudio(number int, audioURL, voiceID, emotion string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(number)
	if err != nil {
		return err
	}
	p.AudioURL = audioURL
	p.VoiceID = voiceID
	p.ResolvedEmotion = emotion
	p.audioInFlight = false
	if p.Status == StatusGeneratingAudio {
		if err := p.transition(StatusCompleted); err != nil {
			return err
		}
	}
	c.touch()
	return nil
}

// AudioFailed clears the in-flight speech request. The panel keeps its last
// good state.
func (c *Comic) AudioFailed(number int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(number)
	if err != nil {
		return err
	}
	p.audioInFlight = false
	if p.Status == StatusGeneratingAudio {
		return p.transition(StatusCompleted)
	}
	return nil
}

// StartVideo transitions a panel into the generating-video state. It
// requires an existing image; a concurrent in-flight speech request does not
// block it.
func (c *Comic) StartVideo(number int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(number)
	if err != nil {
		return err
	}
	if p.ImageURL == "" {
		return ErrImageRequired
	}
	if p.Status == StatusGeneratingVideo {
		return ErrPanelBusy
	}
	if err := p.transition(StatusGeneratingVideo); err != nil {
		return err
	}
	c.touch()
	return nil
}

// SetVideo attaches a generated video and completes the video stage.
func (c *Comic) SetVideo(number int, videoURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(number)
	if err != nil {
		return err
	}
	if err := p.transition(StatusCompleted); err != nil {
		return err
	}
	p.VideoURL = videoURL
	c.touch()
	return nil
}

// VideoFailed degrades a failed or timed-out video stage back to completed.
// The panel keeps its image and remains viewable; the budget is untouched.
func (c *Comic) VideoFailed(number int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(number)
	if err != nil {
		return err
	}
	if err := p.transition(StatusCompleted); err != nil {
		return err
	}
	c.touch()
	return nil
}

// PanelView is a read-only copy of one panel's state.
type PanelView struct {
	ID              string
	Number          int
	VisualPrompt    string
	Dialogue        string
	Emotion         Emotion
	CameraMovement  CameraMovement
	CharacterName   string
	Gender          string
	Age             string
	Trait           string
	ImageURL        string
	AudioURL        string
	VideoURL        string
	VoiceID         string
	ResolvedEmotion string
	Status          Status
	Error           string
}

// View is a read-only copy of the comic's state.
type View struct {
	ID               string
	StoryIdea        string
	AnchorURL        string
	CreditsRemaining int
	Panels           []PanelView
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PanelSnapshot returns a read-only copy of one panel.
func (c *Comic) PanelSnapshot(number int) (PanelView, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, err := c.panel(number)
	if err != nil {
		return PanelView{}, err
	}
	return panelView(p), nil
}

// Snapshot returns a read-only copy of the comic for safe reads.
func (c *Comic) Snapshot() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	panels := make([]PanelView, 0, PanelCount)
	for _, p := range c.panels {
		panels = append(panels, panelView(p))
	}

	return View{
		ID:               c.ID,
		StoryIdea:        c.StoryIdea,
		AnchorURL:        c.anchorURL,
		CreditsRemaining: c.credits.Remaining(),
		Panels:           panels,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func panelView(p *Panel) PanelView {
	return PanelView{
		ID:              p.ID,
		Number:          p.Number,
		VisualPrompt:    p.VisualPrompt,
		Dialogue:        p.Dialogue,
		Emotion:         p.Emotion,
		CameraMovement:  p.CameraMovement,
		CharacterName:   p.CharacterName,
		Gender:          p.Gender,
		Age:             p.Age,
		Trait:           p.Trait,
		ImageURL:        p.ImageURL,
		AudioURL:        p.AudioURL,
		VideoURL:        p.VideoURL,
		VoiceID:         p.VoiceID,
		ResolvedEmotion: p.ResolvedEmotion,
		Status:          p.Status,
		Error:           p.Error,
	}
}
