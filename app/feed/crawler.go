package feed

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/flipnews/app/dataset"
	"github.com/lysyi3m/flipnews/app/store"
)

const (
	DefaultTopic       = "World"
	DefaultSourceName  = "Google News"
	DefaultPerTopic    = 10
	enrichConcurrency  = 5
	searchQuerySuffix  = "&hl=en-US&gl=US&ceid=US:en"
	placeholderImageFm = "https://source.unsplash.com/featured/1200x800?%s&sig=%d"
)

type CrawlerConfig struct {
	SearchURL  string
	PerTopic   int
	OutputPath string
}

// Crawler builds the intermediate dataset from the stored topic preferences.
type Crawler struct {
	preferences store.PreferenceStore
	catalog     *Catalog
	fetcher     *Fetcher
	parser      *Parser
	filterer    *Filterer
	extractor   *Extractor
	config      CrawlerConfig
	out         io.Writer
}

func NewCrawler(preferences store.PreferenceStore, catalog *Catalog, fetcher *Fetcher, config CrawlerConfig, out io.Writer) *Crawler {
	return &Crawler{
		preferences: preferences,
		catalog:     catalog,
		fetcher:     fetcher,
		parser:      NewParser(),
		filterer:    NewFilterer(),
		extractor:   NewExtractor(),
		config:      config,
		out:         out,
	}
}

// Run crawls every preferred topic and writes the combined items. When no
// item was found the output file is left as it was. It fails only when every
// topic fetch failed or ctx was canceled.
func (c *Crawler) Run(ctx context.Context) (int, error) {
	prefs, err := c.preferences.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read preferences: %w", err)
	}

	topics := prefs.Topics
	if len(topics) == 0 {
		topics = []string{DefaultTopic}
	}

	var all []dataset.NewsItem
	seen := make(map[string]bool)
	failures := 0

	for _, topic := range topics {
		items, err := c.crawlTopic(ctx, topic)
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if err != nil {
			failures++
			slog.Warn("Topic crawl failed", "topic", topic, "error", err)
			continue
		}

		for _, item := range items {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			all = append(all, item)
		}
	}

	if failures == len(topics) {
		return 0, fmt.Errorf("all %d topic fetches failed", failures)
	}

	if len(all) == 0 {
		fmt.Fprintln(c.out, "No news found.")
		return 0, nil
	}

	if err := store.WriteJSONAtomic(c.config.OutputPath, all); err != nil {
		return 0, err
	}

	fmt.Fprintf(c.out, "Successfully saved %d unique items.\n", len(all))
	return len(all), nil
}

func (c *Crawler) crawlTopic(ctx context.Context, topic string) ([]dataset.NewsItem, error) {
	start := time.Now()

	data, _, err := c.fetcher.Get(ctx, c.searchURL(c.catalog.Query(topic)))
	if err != nil {
		return nil, err
	}

	parsed, err := c.parser.Run(data)
	if err != nil {
		return nil, err
	}

	catalogTopic, _ := c.catalog.Get(topic)
	parsed = c.filterer.Run(parsed, catalogTopic)

	limit := c.config.PerTopic
	if limit <= 0 {
		limit = DefaultPerTopic
	}
	kept := make([]Item, 0, limit)
	seen := make(map[string]bool)
	filteredCount := 0

	for _, item := range parsed {
		if len(kept) >= limit {
			break
		}
		if item.GUID == "" || item.Title == "" || !isHTTPURL(item.Link) || seen[item.GUID] {
			continue
		}
		seen[item.GUID] = true
		if item.IsFiltered {
			filteredCount++
			slog.Debug("Item filtered", "topic", topic, "title", item.Title, "reason", item.FilterReason)
			continue
		}
		kept = append(kept, item)
	}

	items := c.enrich(ctx, topic, kept)

	slog.Info("Topic crawled",
		"topic", topic,
		"duration", time.Since(start),
		"total", len(parsed),
		"filtered", filteredCount,
		"kept", len(items))

	return items, nil
}

// enrich fetches each article page with bounded concurrency. Output keeps
// feed order.
func (c *Crawler) enrich(ctx context.Context, topic string, items []Item) []dataset.NewsItem {
	results := make([]dataset.NewsItem, len(items))
	sem := make(chan struct{}, enrichConcurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = c.toNewsItem(topic, item, Enrichment{})
				return
			}

			enrichment, err := c.enrichItem(ctx, item)
			if err != nil {
				slog.Debug("Article enrichment failed", "url", item.Link, "error", err)
			}
			results[i] = c.toNewsItem(topic, item, enrichment)
		}()
	}

	wg.Wait()
	return results
}

func (c *Crawler) enrichItem(ctx context.Context, item Item) (Enrichment, error) {
	if item.Link == "" {
		return Enrichment{}, errors.New("item has no link")
	}

	data, finalURL, err := c.fetcher.Get(ctx, item.Link)
	if err != nil {
		return Enrichment{}, err
	}

	return c.extractor.Run(data, finalURL)
}

func (c *Crawler) toNewsItem(topic string, item Item, enrichment Enrichment) dataset.NewsItem {
	published := item.Published
	if item.PublishedAt != nil {
		published = item.PublishedAt.UTC().Format(time.RFC1123Z)
	}

	feedImage := item.ImageURL
	if !isHTTPURL(feedImage) {
		feedImage = ""
	}

	enrichedImage := enrichment.ImageURL
	if !isHTTPURL(enrichedImage) {
		enrichedImage = ""
	}

	return dataset.NewsItem{
		ID:          item.GUID,
		Title:       item.Title,
		Description: cmp.Or(enrichment.Excerpt, item.Description),
		ImageURL:    cmp.Or(enrichedImage, feedImage, PlaceholderImage(topic, item.Title)),
		Source:      cmp.Or(item.Source, DefaultSourceName),
		URL:         item.Link,
		PublishedAt: published,
	}
}

func (c *Crawler) searchURL(query string) string {
	return c.config.SearchURL + "?q=" + url.QueryEscape(query) + searchQuerySuffix
}

// PlaceholderImage returns a stable topic image for an item with no image of
// its own.
func PlaceholderImage(topic, title string) string {
	h := fnv.New32a()
	h.Write([]byte(title))
	keyword := strings.ToLower(strings.ReplaceAll(topic, " ", "-"))
	return fmt.Sprintf(placeholderImageFm, url.QueryEscape(keyword), h.Sum32()%1000)
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
