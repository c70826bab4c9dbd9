package comic

import (
	"context"
	"sync"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// It uses a map with RWMutex for thread-safe access. Comics are process
// scoped: no in-flight job survives a restart.
type MemoryRepository struct {
	mu     sync.RWMutex
	comics map[string]*Comic
}

// NewMemoryRepository creates a new in-memory comic repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		comics: make(map[string]*Comic),
	}
}

// Save persists a comic to the in-memory storage.
func (r *MemoryRepository) Save(_ context.Context, c *Comic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comics[c.ID] = c
	return nil
}

// FindByID retrieves a comic by its ID.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Comic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comics[id]
	if !ok {
		return nil, ErrComicNotFound
	}
	return c, nil
}

// List returns all comics in the repository.
func (r *MemoryRepository) List(_ context.Context) ([]*Comic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Comic, 0, len(r.comics))
	for _, c := range r.comics {
		result = append(result, c)
	}
	return result, nil
}

// Delete removes a comic from storage.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comics[id]; !ok {
		return ErrComicNotFound
	}
	delete(r.comics, id)
	return nil
}
