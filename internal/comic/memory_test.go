package comic

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	c := newTestComic(t)

	if err := repo.Save(ctx, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := repo.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != c.ID {
		t.Errorf("expected ID %s, got %s", c.ID, found.ID)
	}
}

func TestMemoryRepository_FindReturnsLiveAggregate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	c := newTestComic(t)
	_ = repo.Save(ctx, c)

	found, err := repo.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutations through one reference must be visible through the other.
	completePanelImage(t, found, 1, "https://img.example.com/p1.png")

	view, _ := c.PanelSnapshot(1)
	if view.ImageURL != "https://img.example.com/p1.png" {
		t.Error("repository must return the live aggregate, not a copy")
	}
}

func TestMemoryRepository_FindByID_NotFound(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.FindByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrComicNotFound) {
		t.Errorf("expected ErrComicNotFound, got %v", err)
	}
}

func TestMemoryRepository_List(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	comics, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comics) != 0 {
		t.Errorf("expected empty list, got %d", len(comics))
	}

	_ = repo.Save(ctx, newTestComic(t))
	_ = repo.Save(ctx, newTestComic(t))

	comics, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comics) != 2 {
		t.Errorf("expected 2 comics, got %d", len(comics))
	}
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	c := newTestComic(t)
	_ = repo.Save(ctx, c)

	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.FindByID(ctx, c.ID); !errors.Is(err, ErrComicNotFound) {
		t.Errorf("expected ErrComicNotFound after delete, got %v", err)
	}

	if err := repo.Delete(ctx, "nonexistent"); !errors.Is(err, ErrComicNotFound) {
		t.Errorf("expected ErrComicNotFound, got %v", err)
	}
}
