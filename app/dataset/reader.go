package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lysyi3m/flipnews/app/store"
)

// Reader loads the published dataset. It never caches: the publisher may
// replace the file between two reads.
type Reader struct {
	path string
}

func NewReader(path string) *Reader {
	return &Reader{path: path}
}

func (r *Reader) Read() ([]NewsItem, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return []NewsItem{}, nil
	}
	if err != nil {
		return nil, &store.IOError{Op: "read", Path: r.path, Err: err}
	}

	var items []NewsItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode published dataset: %w", err)
	}
	if items == nil {
		items = []NewsItem{}
	}
	return items, nil
}
