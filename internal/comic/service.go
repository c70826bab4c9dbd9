package comic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/comicmotion/comicmotion-api/internal/generator"
	"github.com/comicmotion/comicmotion-api/internal/poll"
	"github.com/comicmotion/comicmotion-api/internal/storage"
)

// Static errors for service operations.
var (
	// ErrStoryIdeaRequired is returned when the story idea is empty.
	ErrStoryIdeaRequired = errors.New("comic: story idea is required")
	// ErrConfirmationRequired is returned when a video job is requested
	// without the explicit confirmation flag. Spending a credit requires
	// confirmed intent.
	ErrConfirmationRequired = errors.New("comic: video generation requires confirmation")
	// ErrVideoGenerationFailed is returned when the provider reports a
	// terminal video failure. The panel keeps its image; no credit is spent.
	ErrVideoGenerationFailed = errors.New("comic: video generation failed")
	// ErrVideoTimedOut is returned when the poll attempt ceiling is exhausted.
	// User-facing handling matches a failure, but it is logged distinctly.
	ErrVideoTimedOut = errors.New("comic: video generation timed out")
	// ErrNothingToArchive is returned when a comic has no generated media yet.
	ErrNothingToArchive = errors.New("comic: no generated media to archive")
)

// Service orchestrates comic generation: script, anchor-first images,
// narration audio, and credit-gated video animation.
type Service struct {
	repo     Repository
	gen      generator.Client
	archiver *storage.Archiver
	poller   *poll.Poller
	logger   *slog.Logger
	scripts  *gocache.Cache

	creditAllotment  int
	nonAnchorRetries int
}

// ServiceOption is a function that configures a Service.
type ServiceOption func(*Service)

// WithPoller sets the video status poller.
func WithPoller(p *poll.Poller) ServiceOption {
	return func(s *Service) {
		s.poller = p
	}
}

// WithCreditAllotment sets the starting video credit budget per comic.
func WithCreditAllotment(n int) ServiceOption {
	return func(s *Service) {
		if n >= 0 {
			s.creditAllotment = n
		}
	}
}

// WithNonAnchorRetries sets how many extra image attempts panels 2-4 get.
// Panel 1 is never retried: its failure stops the run.
func WithNonAnchorRetries(n int) ServiceOption {
	return func(s *Service) {
		if n >= 0 {
			s.nonAnchorRetries = n
		}
	}
}

// WithScriptCacheTTL sets how long script results are memoized per story idea.
func WithScriptCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.scripts = gocache.New(ttl, ttl)
	}
}

// NewService creates a comic generation service.
func NewService(repo Repository, gen generator.Client, archiver *storage.Archiver, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:            repo,
		gen:             gen,
		archiver:        archiver,
		poller:          poll.New(5*time.Second, 60),
		logger:          logger,
		scripts:         gocache.New(30*time.Minute, 10*time.Minute),
		creditAllotment: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateComic generates a 4-panel script from a story idea and creates the
// comic aggregate. Script results are memoized per story idea so an
// accidental re-submission does not bill a second script call.
func (s *Service) CreateComic(ctx context.Context, storyIdea string) (*Comic, error) {
	idea := strings.TrimSpace(storyIdea)
	if idea == "" {
		return nil, ErrStoryIdeaRequired
	}

	cacheKey := strings.ToLower(idea)
	var script []generator.PanelScript
	if cached, ok := s.scripts.Get(cacheKey); ok {
		script = cached.([]generator.PanelScript)
		s.logger.Debug("script cache hit", slog.String("story_idea", idea))
	} else {
		var err error
		script, err = s.gen.GenerateScript(ctx, idea)
		if err != nil {
			return nil, fmt.Errorf("generate script: %w", err)
		}
		if len(script) != PanelCount {
			return nil, fmt.Errorf("%w: got %d", ErrPanelCount, len(script))
		}
		s.scripts.SetDefault(cacheKey, script)
	}

	c, err := New(idea, script, s.creditAllotment)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save comic: %w", err)
	}

	s.logger.Info("comic created",
		slog.String("comic_id", c.ID),
		slog.Int("credits", s.creditAllotment),
	)
	return c, nil
}

// GetComic retrieves a comic by ID.
func (s *Service) GetComic(ctx context.Context, id string) (*Comic, error) {
	return s.repo.FindByID(ctx, id)
}

// ListComics returns all comics.
func (s *Service) ListComics(ctx context.Context) ([]*Comic, error) {
	return s.repo.List(ctx)
}

// GenerateImages runs the anchor-first image sequence. Panel 1 is generated
// first and awaited; on failure the run stops and panels 2-4 stay pending.
// On success panel 1's image becomes the anchor reference and is attached to
// every other panel's request. Panels 2-4 are issued one at a time in ordinal
// order; a failure on one panel is recorded and the loop continues to the
// next. Panels that already have an image are left untouched, so a re-run
// retries only the failed ones.
func (s *Service) GenerateImages(ctx context.Context, comicID string) error {
	c, err := s.repo.FindByID(ctx, comicID)
	if err != nil {
		return err
	}

	anchorView, err := c.PanelSnapshot(1)
	if err != nil {
		return err
	}
	if anchorView.ImageURL == "" {
		if err := s.generateAnchorImage(ctx, c); err != nil {
			return err
		}
	}
	anchor := c.Anchor()

	for number := 2; number <= PanelCount; number++ {
		view, err := c.PanelSnapshot(number)
		if err != nil {
			return err
		}
		if view.ImageURL != "" {
			continue
		}
		if err := s.generatePanelImage(ctx, c, number, anchor); err != nil {
			s.logger.Warn("panel image generation failed",
				slog.String("comic_id", c.ID),
				slog.Int("panel", number),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.logger.Info("panel image generated",
			slog.String("comic_id", c.ID),
			slog.Int("panel", number),
		)
	}

	return nil
}

// generateAnchorImage generates panel 1's image without a reference.
func (s *Service) generateAnchorImage(ctx context.Context, c *Comic) error {
	view, err := c.PanelSnapshot(1)
	if err != nil {
		return err
	}
	if err := c.StartImage(1); err != nil {
		return err
	}

	result, err := s.gen.GenerateImage(ctx, view.VisualPrompt, "")
	if err != nil {
		_ = c.SetImageError(1, err.Error())
		return fmt.Errorf("anchor image: %w", err)
	}

	if err := c.SetImage(1, result.ImageURL); err != nil {
		return err
	}
	s.logger.Info("anchor image generated",
		slog.String("comic_id", c.ID),
		slog.String("image_url", result.ImageURL),
	)
	return nil
}

// generatePanelImage generates one non-anchor panel image with the anchor as
// its consistency reference, retrying up to the configured attempt count.
func (s *Service) generatePanelImage(ctx context.Context, c *Comic, number int, anchor string) error {
	view, err := c.PanelSnapshot(number)
	if err != nil {
		return err
	}
	if err := c.StartImage(number); err != nil {
		return err
	}

	attempts := 1 + s.nonAnchorRetries
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, genErr := s.gen.GenerateImage(ctx, view.VisualPrompt, anchor)
		if genErr == nil {
			return c.SetImage(number, result.ImageURL)
		}
		lastErr = genErr
	}

	_ = c.SetImageError(number, lastErr.Error())
	return lastErr
}

// GenerateSpeech generates narration audio for one panel. Requesting speech
// for a panel that already has audio is an idempotent no-op returning the
// existing reference.
func (s *Service) GenerateSpeech(ctx context.Context, comicID string, number int) (generator.SpeechResult, error) {
	c, err := s.repo.FindByID(ctx, comicID)
	if err != nil {
		return generator.SpeechResult{}, err
	}

	view, err := c.PanelSnapshot(number)
	if err != nil {
		return generator.SpeechResult{}, err
	}
	if view.AudioURL != "" {
		return generator.SpeechResult{
			AudioURL: view.AudioURL,
			VoiceID:  view.VoiceID,
			Emotion:  view.ResolvedEmotion,
		}, nil
	}

	if err := c.StartAudio(number); err != nil {
		return generator.SpeechResult{}, err
	}

	result, err := s.gen.GenerateSpeech(ctx, generator.SpeechRequest{
		Text:    view.Dialogue,
		Emotion: string(view.Emotion),
		Gender:  view.Gender,
		Age:     view.Age,
		Trait:   view.Trait,
	})
	if err != nil {
		_ = c.AudioFailed(number)
		return generator.SpeechResult{}, fmt.Errorf("generate speech: %w", err)
	}

	if err := c.SetAudio(number, result.AudioURL, result.VoiceID, result.Emotion); err != nil {
		return generator.SpeechResult{}, err
	}

	s.logger.Info("panel audio generated",
		slog.String("comic_id", c.ID),
		slog.Int("panel", number),
		slog.String("voice_id", result.VoiceID),
	)
	return result, nil
}

// GenerateVideo animates one panel. The caller must pass confirm=true; a
// credit must be available before submission; the credit is spent exactly
// once, and only on a successful terminal outcome. Failure and timeout
// degrade the panel back to completed with its image intact.
func (s *Service) GenerateVideo(ctx context.Context, comicID string, number int, confirm bool) (string, error) {
	if !confirm {
		return "", ErrConfirmationRequired
	}

	c, err := s.repo.FindByID(ctx, comicID)
	if err != nil {
		return "", err
	}

	if err := c.Credits().Reserve(); err != nil {
		return "", err
	}

	view, err := c.PanelSnapshot(number)
	if err != nil {
		return "", err
	}
	if err := c.StartVideo(number); err != nil {
		return "", err
	}

	taskID, err := s.gen.SubmitVideo(ctx, view.ImageURL, view.VisualPrompt, string(view.CameraMovement))
	if err != nil {
		_ = c.VideoFailed(number)
		return "", fmt.Errorf("submit video: %w", err)
	}

	s.logger.Info("video task submitted",
		slog.String("comic_id", c.ID),
		slog.Int("panel", number),
		slog.String("task_id", taskID),
	)

	result, err := s.poller.Run(ctx, func(ctx context.Context) poll.Tick {
		status, pollErr := s.gen.PollVideo(ctx, taskID)
		if pollErr != nil {
			return poll.Tick{State: poll.TickFailed, Reason: pollErr.Error()}
		}
		switch status.State {
		case generator.VideoSucceeded:
			return poll.Tick{State: poll.TickSucceeded, Handle: status.VideoURL}
		case generator.VideoFailed:
			return poll.Tick{State: poll.TickFailed, Reason: status.Reason}
		case generator.VideoInconclusive:
			return poll.Tick{State: poll.TickInconclusive}
		default:
			return poll.Tick{State: poll.TickPending}
		}
	})
	if err != nil {
		_ = c.VideoFailed(number)
		return "", err
	}

	switch result.Outcome {
	case poll.OutcomeSucceeded:
		if err := c.SetVideo(number, result.Handle); err != nil {
			return "", err
		}
		c.Credits().Spend()
		s.logger.Info("panel video generated",
			slog.String("comic_id", c.ID),
			slog.Int("panel", number),
			slog.Int("attempts", result.Attempts),
			slog.Int("credits_remaining", c.Credits().Remaining()),
		)
		return result.Handle, nil
	case poll.OutcomeTimedOut:
		_ = c.VideoFailed(number)
		s.logger.Warn("video task timed out",
			slog.String("comic_id", c.ID),
			slog.Int("panel", number),
			slog.String("task_id", taskID),
			slog.Int("attempts", result.Attempts),
		)
		return "", ErrVideoTimedOut
	default:
		_ = c.VideoFailed(number)
		return "", fmt.Errorf("%w: %s", ErrVideoGenerationFailed, result.Reason)
	}
}

// ArchiveComic downloads every generated asset of a comic and persists it to
// the configured archive storage.
func (s *Service) ArchiveComic(ctx context.Context, comicID string) ([]storage.Archived, error) {
	c, err := s.repo.FindByID(ctx, comicID)
	if err != nil {
		return nil, err
	}

	view := c.Snapshot()
	var assets []storage.Asset
	for _, p := range view.Panels {
		if p.ImageURL != "" {
			assets = append(assets, storage.Asset{
				Key: fmt.Sprintf("%s/panel-%d-image.png", view.ID, p.Number),
				URL: p.ImageURL,
			})
		}
		if p.AudioURL != "" {
			assets = append(assets, storage.Asset{
				Key: fmt.Sprintf("%s/panel-%d-audio.mp3", view.ID, p.Number),
				URL: p.AudioURL,
			})
		}
		if p.VideoURL != "" {
			assets = append(assets, storage.Asset{
				Key: fmt.Sprintf("%s/panel-%d-video.mp4", view.ID, p.Number),
				URL: p.VideoURL,
			})
		}
	}
	if len(assets) == 0 {
		return nil, ErrNothingToArchive
	}

	archived, err := s.archiver.Archive(ctx, assets)
	if err != nil {
		return nil, fmt.Errorf("archive comic: %w", err)
	}

	s.logger.Info("comic archived",
		slog.String("comic_id", c.ID),
		slog.Int("assets", len(archived)),
	)
	return archived, nil
}
