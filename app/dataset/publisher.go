package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lysyi3m/flipnews/app/store"
)

// Publisher turns the crawler's intermediate dataset into the published one.
type Publisher struct {
	intermediatePath string
	publishedPath    string
}

func NewPublisher(intermediatePath, publishedPath string) *Publisher {
	return &Publisher{
		intermediatePath: intermediatePath,
		publishedPath:    publishedPath,
	}
}

// Run publishes the intermediate dataset and returns the number of items. The
// published file is only replaced when the whole input is valid.
func (p *Publisher) Run(ctx context.Context) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	data, err := os.ReadFile(p.intermediatePath)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("%w: %s", ErrMissingInput, p.intermediatePath)
	}
	if err != nil {
		return 0, &store.IOError{Op: "read", Path: p.intermediatePath, Err: err}
	}

	items, err := Transform(data)
	if err != nil {
		return 0, err
	}

	if err := store.WriteJSONAtomic(p.publishedPath, items); err != nil {
		return 0, err
	}

	slog.Debug("Dataset published", "path", p.publishedPath, "items", len(items))

	return len(items), nil
}
