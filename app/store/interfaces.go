package store

type PreferenceStore interface {
	Write(topics []string) error
	Read() (Preferences, error)
}

type NoteStore interface {
	Get(newsID string) string
	Set(newsID, note string) error
}

type VisualStore interface {
	Get() (VisualSettings, error)
	Update(patch VisualSettings) (VisualSettings, error)
}

var (
	_ PreferenceStore = (*FilePreferenceStore)(nil)
	_ PreferenceStore = (*MemoryPreferenceStore)(nil)
	_ NoteStore       = (*FileNoteStore)(nil)
	_ NoteStore       = (*MemoryNoteStore)(nil)
	_ VisualStore     = (*FileVisualStore)(nil)
	_ VisualStore     = (*MemoryVisualStore)(nil)
)
