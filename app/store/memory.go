package store

import "sync"

// In-memory stores with the same semantics as the file-backed ones.

type MemoryPreferenceStore struct {
	mu    sync.RWMutex
	prefs Preferences
	Err   error
}

func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{prefs: Preferences{Topics: []string{}}}
}

func (s *MemoryPreferenceStore) Write(topics []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	s.prefs = Preferences{Topics: NormalizeTopics(topics)}
	return nil
}

func (s *MemoryPreferenceStore) Read() (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topics := make([]string, len(s.prefs.Topics))
	copy(topics, s.prefs.Topics)
	return Preferences{Topics: topics}, nil
}

type MemoryNoteStore struct {
	mu    sync.Mutex
	notes map[string]string
	Err   error
}

func NewMemoryNoteStore() *MemoryNoteStore {
	return &MemoryNoteStore{notes: make(map[string]string)}
}

func (s *MemoryNoteStore) Get(newsID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes[newsID]
}

func (s *MemoryNoteStore) Set(newsID, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	s.notes[newsID] = note
	return nil
}

type MemoryVisualStore struct {
	mu       sync.Mutex
	settings VisualSettings
}

func NewMemoryVisualStore() *MemoryVisualStore {
	return &MemoryVisualStore{settings: DefaultVisualSettings()}
}

func (s *MemoryVisualStore) Get() (VisualSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *MemoryVisualStore) Update(patch VisualSettings) (VisualSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = mergeVisualSettings(s.settings, patch)
	return s.settings, nil
}
