package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/lysyi3m/flipnews/app/dataset"
	"github.com/lysyi3m/flipnews/app/process"
)

type Crawler interface {
	Crawl(ctx context.Context) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context) (PublishResult, error)
}

type PublishResult struct {
	Output    string
	ItemCount int
}

var (
	_ Crawler   = (*ProcessCrawler)(nil)
	_ Publisher = (*DatasetPublisher)(nil)
	_ Publisher = (*ProcessPublisher)(nil)
)

// ProcessCrawler runs the crawler as a child process and returns its stdout.
type ProcessCrawler struct {
	runner  *process.Runner
	command process.Command
}

func NewProcessCrawler(runner *process.Runner, command process.Command) *ProcessCrawler {
	return &ProcessCrawler{runner: runner, command: command}
}

func (c *ProcessCrawler) Crawl(ctx context.Context) (string, error) {
	result, err := c.runner.Run(ctx, c.command)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// DatasetPublisher publishes in-process with a dataset.Publisher.
type DatasetPublisher struct {
	publisher *dataset.Publisher
	timeout   time.Duration
}

func NewDatasetPublisher(publisher *dataset.Publisher, timeout time.Duration) *DatasetPublisher {
	return &DatasetPublisher{publisher: publisher, timeout: timeout}
}

func (p *DatasetPublisher) Publish(ctx context.Context) (PublishResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	count, err := p.publisher.Run(ctx)
	if err != nil {
		return PublishResult{}, err
	}

	return PublishResult{
		Output:    PublishedMessage(count),
		ItemCount: count,
	}, nil
}

// ProcessPublisher runs an external publisher command, then counts the items
// it left in the published dataset.
type ProcessPublisher struct {
	runner  *process.Runner
	command process.Command
	reader  *dataset.Reader
}

func NewProcessPublisher(runner *process.Runner, command process.Command, reader *dataset.Reader) *ProcessPublisher {
	return &ProcessPublisher{runner: runner, command: command, reader: reader}
}

func (p *ProcessPublisher) Publish(ctx context.Context) (PublishResult, error) {
	result, err := p.runner.Run(ctx, p.command)
	if err != nil {
		return PublishResult{}, err
	}

	items, err := p.reader.Read()
	if err != nil {
		return PublishResult{}, fmt.Errorf("failed to read published dataset: %w", err)
	}

	return PublishResult{Output: result.Stdout, ItemCount: len(items)}, nil
}

func PublishedMessage(count int) string {
	return fmt.Sprintf("Successfully published %d items.\n", count)
}
