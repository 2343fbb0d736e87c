package store

import (
	"cmp"
	"sync"
)

type FileVisualStore struct {
	path string
	mu   sync.Mutex
}

func NewFileVisualStore(path string) *FileVisualStore {
	return &FileVisualStore{path: path}
}

func (s *FileVisualStore) Get() (VisualSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Update merges the non-empty fields of patch into the stored settings.
func (s *FileVisualStore) Update(patch VisualSettings) (VisualSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return VisualSettings{}, err
	}

	merged := mergeVisualSettings(current, patch)
	if err := WriteJSONAtomic(s.path, merged); err != nil {
		return VisualSettings{}, err
	}

	return merged, nil
}

func (s *FileVisualStore) load() (VisualSettings, error) {
	var settings VisualSettings
	if _, err := readJSON(s.path, &settings); err != nil {
		return VisualSettings{}, err
	}
	return mergeVisualSettings(DefaultVisualSettings(), settings), nil
}

func mergeVisualSettings(base, patch VisualSettings) VisualSettings {
	return VisualSettings{
		Theme:       cmp.Or(patch.Theme, base.Theme),
		Layout:      cmp.Or(patch.Layout, base.Layout),
		AccentColor: cmp.Or(patch.AccentColor, base.AccentColor),
	}
}
