package store

import (
	"log/slog"
	"sync"
)

// FileNoteStore maps news item IDs to user notes in one JSON document.
type FileNoteStore struct {
	path string
	mu   sync.Mutex
}

func NewFileNoteStore(path string) *FileNoteStore {
	return &FileNoteStore{path: path}
}

// Get returns "" for unknown IDs. An unreadable notes file reads as empty.
func (s *FileNoteStore) Get(newsID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load()
	if err != nil {
		slog.Warn("Failed to read notes", "path", s.path, "error", err)
		return ""
	}
	return notes[newsID]
}

func (s *FileNoteStore) Set(newsID, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load()
	if err != nil {
		// A corrupt notes file is replaced rather than blocking every save
		slog.Warn("Discarding unreadable notes file", "path", s.path, "error", err)
		notes = make(map[string]string)
	}

	notes[newsID] = note

	return WriteJSONAtomic(s.path, notes)
}

func (s *FileNoteStore) load() (map[string]string, error) {
	notes := make(map[string]string)
	if _, err := readJSON(s.path, &notes); err != nil {
		return nil, err
	}
	if notes == nil {
		notes = make(map[string]string)
	}
	return notes, nil
}
