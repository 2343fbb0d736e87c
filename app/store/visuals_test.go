package store

import (
	"path/filepath"
	"testing"
)

func TestVisualStoreDefaults(t *testing.T) {
	store := NewFileVisualStore(filepath.Join(t.TempDir(), "visual_settings.json"))

	settings, err := store.Get()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := VisualSettings{Theme: "dark", Layout: "grid", AccentColor: "amber"}
	if settings != expected {
		t.Errorf("Expected %+v, got %+v", expected, settings)
	}
}

func TestVisualStoreUpdateMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visual_settings.json")
	store := NewFileVisualStore(path)

	updated, err := store.Update(VisualSettings{AccentColor: "emerald"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	expected := VisualSettings{Theme: "dark", Layout: "grid", AccentColor: "emerald"}
	if updated != expected {
		t.Errorf("Expected %+v, got %+v", expected, updated)
	}

	updated, err = store.Update(VisualSettings{Theme: "light"})
	if err != nil {
		t.Fatal(err)
	}
	expected = VisualSettings{Theme: "light", Layout: "grid", AccentColor: "emerald"}
	if updated != expected {
		t.Errorf("Expected %+v, got %+v", expected, updated)
	}

	reopened, err := NewFileVisualStore(path).Get()
	if err != nil {
		t.Fatal(err)
	}
	if reopened != expected {
		t.Errorf("Expected persisted %+v, got %+v", expected, reopened)
	}
}

func TestMemoryVisualStore(t *testing.T) {
	store := NewMemoryVisualStore()

	settings, _ := store.Get()
	if settings != DefaultVisualSettings() {
		t.Errorf("Expected defaults, got %+v", settings)
	}

	settings, _ = store.Update(VisualSettings{Layout: "list"})
	if settings.Layout != "list" || settings.Theme != "dark" {
		t.Errorf("Unexpected merged settings: %+v", settings)
	}
}
