package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrAssetUnavailable is returned when an asset URL cannot be fetched.
var ErrAssetUnavailable = errors.New("storage: asset unavailable")

// Asset is one remote media file to archive.
type Asset struct {
	// Key is the storage key the asset is archived under.
	Key string
	// URL is the remote location of the asset.
	URL string
}

// Archived is one successfully archived asset.
type Archived struct {
	// Key is the storage key the asset was archived under.
	Key string
	// Ref is the stable storage reference (path or URL).
	Ref string
}

// Archiver downloads generated media from provider URLs and persists it.
// Provider URLs expire; archiving keeps finished comics retrievable.
type Archiver struct {
	store       Storage
	httpClient  *http.Client
	concurrency int
}

// ArchiverOption is a function that configures an Archiver.
type ArchiverOption func(*Archiver)

// WithArchiveHTTPClient sets a custom HTTP client for downloads.
func WithArchiveHTTPClient(c *http.Client) ArchiverOption {
	return func(a *Archiver) {
		a.httpClient = c
	}
}

// WithArchiveConcurrency limits how many assets are downloaded in parallel.
func WithArchiveConcurrency(n int) ArchiverOption {
	return func(a *Archiver) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewArchiver creates an Archiver persisting to the given storage.
func NewArchiver(store Storage, opts ...ArchiverOption) *Archiver {
	a := &Archiver{
		store:       store,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		concurrency: 3,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Archive downloads and persists all assets. Downloads run in parallel,
// bounded by the configured concurrency; the first failure cancels the rest.
func (a *Archiver) Archive(ctx context.Context, assets []Asset) ([]Archived, error) {
	results := make([]Archived, len(assets))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)

	for i, asset := range assets {
		eg.Go(func() error {
			ref, err := a.archiveOne(egCtx, asset)
			if err != nil {
				return err
			}
			results[i] = Archived{Key: asset.Key, Ref: ref}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// archiveOne downloads a single asset and persists it.
func (a *Archiver) archiveOne(ctx context.Context, asset Asset) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return "", fmt.Errorf("storage: create download request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrAssetUnavailable, asset.Key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s: status %d", ErrAssetUnavailable, asset.Key, resp.StatusCode)
	}

	ref, err := a.store.Save(ctx, asset.Key, resp.Body)
	if err != nil {
		return "", fmt.Errorf("storage: save %s: %w", asset.Key, err)
	}
	return ref, nil
}
