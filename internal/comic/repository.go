package comic

import (
	"context"
	"errors"
)

// ErrComicNotFound is returned when a comic cannot be found by ID.
var ErrComicNotFound = errors.New("comic not found")

// Repository defines the interface for comic persistence.
// Implementations return the live aggregate: the Comic serializes its own
// mutations, and in-flight generation runs must observe each other's state.
type Repository interface {
	// Save persists a comic to the storage.
	Save(ctx context.Context, c *Comic) error

	// FindByID retrieves a comic by its unique identifier.
	// Returns ErrComicNotFound if the comic does not exist.
	FindByID(ctx context.Context, id string) (*Comic, error)

	// List returns all comics.
	List(ctx context.Context) ([]*Comic, error)

	// Delete removes a comic from storage.
	// Returns ErrComicNotFound if the comic does not exist.
	Delete(ctx context.Context, id string) error
}
