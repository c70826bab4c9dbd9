// Package bootstrap provides dependency initialization for the ComicMotion API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/comicmotion/comicmotion-api/internal/comic"
	"github.com/comicmotion/comicmotion-api/internal/config"
	"github.com/comicmotion/comicmotion-api/internal/generator"
	"github.com/comicmotion/comicmotion-api/internal/minimax"
	"github.com/comicmotion/comicmotion-api/internal/poll"
	"github.com/comicmotion/comicmotion-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	ComicService *comic.Service
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize archive storage
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize MiniMax client
	client, err := minimax.NewClient(
		minimax.WithAPIKey(cfg.MiniMaxAPIKey),
		minimax.WithBaseURL(cfg.MiniMaxBaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create MiniMax client: %w", err)
	}

	// Initialize comic repository
	repo := comic.NewMemoryRepository()

	// Initialize the comic service
	svc := comic.NewService(
		repo,
		generator.NewMiniMaxAdapter(client),
		storage.NewArchiver(store),
		logger,
		comic.WithPoller(poll.New(cfg.PollInterval(), cfg.PollMaxAttempts)),
		comic.WithCreditAllotment(cfg.VideoCredits),
		comic.WithNonAnchorRetries(cfg.NonAnchorImageRetries),
		comic.WithScriptCacheTTL(cfg.ScriptCacheTTL()),
	)

	return &Dependencies{
		ComicService: svc,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 archive storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.ArchiveDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local archive storage configured",
		slog.String("archive_dir", cfg.ArchiveDir),
	)
	return localStore, nil
}
