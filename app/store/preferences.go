package store

import (
	"sync"
)

// FilePreferenceStore keeps the single-tenant topic selection in one JSON
// document.
type FilePreferenceStore struct {
	path string
	mu   sync.RWMutex
}

func NewFilePreferenceStore(path string) *FilePreferenceStore {
	return &FilePreferenceStore{path: path}
}

func (s *FilePreferenceStore) Write(topics []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return WriteJSONAtomic(s.path, Preferences{Topics: NormalizeTopics(topics)})
}

// Read returns an empty selection when nothing has been written yet.
func (s *FilePreferenceStore) Read() (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prefs Preferences
	if _, err := readJSON(s.path, &prefs); err != nil {
		return Preferences{Topics: []string{}}, err
	}
	if prefs.Topics == nil {
		prefs.Topics = []string{}
	}
	return prefs, nil
}

// NormalizeTopics drops duplicate labels, keeping the first occurrence.
func NormalizeTopics(topics []string) []string {
	seen := make(map[string]bool, len(topics))
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		if seen[topic] {
			continue
		}
		seen[topic] = true
		out = append(out, topic)
	}
	return out
}
