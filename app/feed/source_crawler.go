package feed

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/flipnews/app/database"
	"github.com/lysyi3m/flipnews/app/dataset"
	"github.com/lysyi3m/flipnews/app/store"
)

const (
	DefaultSourceWindow   = 24 * time.Hour
	DefaultPerSourceLimit = 5
	descriptionLimit      = 200
)

type SourceResult struct {
	Name  string
	Items int
	Err   error
}

// SourceCrawler collects recent items from the admin-managed sources into a
// single dataset file.
type SourceCrawler struct {
	fetcher    *Fetcher
	parser     *Parser
	outputPath string
	window     time.Duration
	perSource  int
	now        func() time.Time
}

func NewSourceCrawler(fetcher *Fetcher, outputPath string) *SourceCrawler {
	return &SourceCrawler{
		fetcher:    fetcher,
		parser:     NewParser(),
		outputPath: outputPath,
		window:     DefaultSourceWindow,
		perSource:  DefaultPerSourceLimit,
		now:        time.Now,
	}
}

// Run crawls every source and replaces the output file with the combined
// items. A failing source is reported in its result and does not stop the
// others.
func (c *SourceCrawler) Run(ctx context.Context, sources []database.Source) ([]SourceResult, error) {
	threshold := c.now().Add(-c.window)
	results := make([]SourceResult, 0, len(sources))
	items := []dataset.NewsItem{}

	for _, source := range sources {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		sourceItems, err := c.crawlSource(ctx, source, threshold)
		if err != nil {
			slog.Warn("Source crawl failed", "source", source.Name, "error", err)
		}
		results = append(results, SourceResult{Name: source.Name, Items: len(sourceItems), Err: err})
		items = append(items, sourceItems...)
	}

	if err := store.WriteJSONAtomic(c.outputPath, items); err != nil {
		return results, err
	}

	slog.Info("Sources crawled", "sources", len(sources), "items", len(items), "path", c.outputPath)

	return results, nil
}

func (c *SourceCrawler) crawlSource(ctx context.Context, source database.Source, threshold time.Time) ([]dataset.NewsItem, error) {
	data, _, err := c.fetcher.Get(ctx, source.URL)
	if err != nil {
		return nil, err
	}

	parsed, err := c.parser.Run(data)
	if err != nil {
		return nil, err
	}

	items := make([]dataset.NewsItem, 0, c.perSource)
	for _, item := range parsed {
		if len(items) >= c.perSource {
			break
		}
		// Undated items are skipped since their age is unknown.
		if item.PublishedAt == nil || item.PublishedAt.Before(threshold) {
			continue
		}
		if item.Title == "" || !isHTTPURL(item.Link) {
			continue
		}

		imageURL := item.ImageURL
		if !isHTTPURL(imageURL) {
			imageURL = dataset.PlaceholderImageURL
		}

		items = append(items, dataset.NewsItem{
			ID:          cmp.Or(item.GUID, item.Link),
			Title:       item.Title,
			Description: truncate(item.Description, descriptionLimit),
			ImageURL:    imageURL,
			Source:      source.Name,
			URL:         item.Link,
			PublishedAt: item.PublishedAt.UTC().Format(dataset.DisplayTimeLayout),
		})
	}

	return items, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return fmt.Sprintf("%s...", string(runes[:limit]))
}
