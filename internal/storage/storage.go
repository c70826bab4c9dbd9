// Package storage provides persistent storage for archived comic assets.
// It defines the Storage interface (port) and implementations for local
// disk and S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for persisting archived assets.
type Storage interface {
	// Save persists data under the given key and returns a stable reference:
	// a file path for local storage, a public URL for S3.
	Save(ctx context.Context, key string, data io.Reader) (ref string, err error)
}
