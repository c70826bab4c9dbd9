package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	// Register routes with method-based patterns (Go 1.22+)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /comics", h.CreateComic)
	mux.HandleFunc("GET /comics/{id}", h.GetComic)
	mux.HandleFunc("POST /comics/{id}/images", h.GenerateImages)
	mux.HandleFunc("POST /comics/{id}/panels/{number}/speech", h.GenerateSpeech)
	mux.HandleFunc("POST /comics/{id}/panels/{number}/video", h.GenerateVideo)
	mux.HandleFunc("POST /comics/{id}/archive", h.ArchiveComic)

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
