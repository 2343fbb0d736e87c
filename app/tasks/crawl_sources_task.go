package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/flipnews/app/database"
)

type CrawlSourcesTask struct {
	Task
	crawler    SourceCrawler
	sourceRepo database.SourceRepository
}

func NewCrawlSourcesTask(trigger string, crawler SourceCrawler, sourceRepo database.SourceRepository) *CrawlSourcesTask {
	return &CrawlSourcesTask{
		Task:       NewTask(TaskTypeCrawlSources, trigger),
		crawler:    crawler,
		sourceRepo: sourceRepo,
	}
}

// Execute crawls every registered source and records each outcome. The task
// fails, and is retried, only when every source failed.
func (t *CrawlSourcesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	sources, err := t.sourceRepo.List()
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	results, err := t.crawler.Run(ctx, sources)
	if err != nil {
		return fmt.Errorf("failed to crawl sources: %w", err)
	}

	crawledAt := time.Now()
	failed := 0
	total := 0

	for _, result := range results {
		var crawlErr string
		if result.Err != nil {
			crawlErr = result.Err.Error()
			failed++
		}
		total += result.Items

		if err := t.sourceRepo.RecordCrawl(result.Name, crawledAt, result.Items, crawlErr); err != nil {
			slog.Warn("Failed to record source crawl", "source", result.Name, "error", err)
		}
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"trigger", t.Trigger,
		"duration", t.GetDuration(),
		"sources", len(results),
		"failed", failed,
		"items", total)

	if len(results) > 0 && failed == len(results) {
		return fmt.Errorf("all %d sources failed", failed)
	}

	return nil
}
