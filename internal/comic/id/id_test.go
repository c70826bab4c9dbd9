package id

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	id := Generate("comic")

	// Check format
	if !strings.HasPrefix(id, "comic-") {
		t.Errorf("expected ID to start with 'comic-', got %s", id)
	}

	// Check uniqueness
	id2 := Generate("comic")
	if id == id2 {
		t.Error("expected different IDs for consecutive calls")
	}
}

func TestGenerate_Prefix(t *testing.T) {
	id := Generate("panel")
	if !strings.HasPrefix(id, "panel-") {
		t.Errorf("expected ID to start with 'panel-', got %s", id)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Generate("comic")
		if seen[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
