package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/flipnews/app/database"
	"github.com/lysyi3m/flipnews/app/store"
)

type Report struct {
	RunID         string
	CrawlOutput   string
	PublishOutput string
	ItemCount     int
	Duration      time.Duration
}

// Orchestrator runs save-preferences, crawl and publish in order. Only one
// sync runs at a time; later callers wait for the lock or their context.
type Orchestrator struct {
	preferences store.PreferenceStore
	crawler     Crawler
	publisher   Publisher
	runs        database.SyncRunRepository
	lock        chan struct{}
}

// NewOrchestrator creates an orchestrator. runs may be nil to skip history.
func NewOrchestrator(preferences store.PreferenceStore, crawler Crawler, publisher Publisher, runs database.SyncRunRepository) *Orchestrator {
	return &Orchestrator{
		preferences: preferences,
		crawler:     crawler,
		publisher:   publisher,
		runs:        runs,
		lock:        make(chan struct{}, 1),
	}
}

func (o *Orchestrator) Sync(ctx context.Context, topics []string) (*Report, error) {
	return o.SyncWithTrigger(ctx, database.TriggerAPI, topics)
}

// Busy reports whether a sync is currently running.
func (o *Orchestrator) Busy() bool {
	return len(o.lock) > 0
}

func (o *Orchestrator) SyncWithTrigger(ctx context.Context, trigger string, topics []string) (*Report, error) {
	select {
	case o.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-o.lock }()

	run := database.SyncRun{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		Topics:    store.NormalizeTopics(topics),
		Status:    database.SyncStatusRunning,
		StartedAt: time.Now(),
	}
	o.recordStart(run)

	slog.Info("Sync started", "run_id", run.ID, "trigger", trigger, "topics", run.Topics)

	report, err := o.run(ctx, topics)
	report.RunID = run.ID
	report.Duration = time.Since(run.StartedAt)

	o.recordFinish(run, report, err)

	if err != nil {
		slog.Error("Sync failed", "run_id", run.ID, "error", err, "duration", report.Duration)
		return report, err
	}

	slog.Info("Sync completed", "run_id", run.ID, "items", report.ItemCount, "duration", report.Duration)
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, topics []string) (*Report, error) {
	report := &Report{}

	if err := o.preferences.Write(topics); err != nil {
		return report, &StepError{Step: StepPreferences, Err: err}
	}

	crawlOutput, err := o.crawler.Crawl(ctx)
	if err != nil {
		return report, &StepError{Step: StepCrawl, Err: err}
	}
	report.CrawlOutput = crawlOutput

	result, err := o.publisher.Publish(ctx)
	if err != nil {
		return report, &StepError{Step: StepPublish, Err: err}
	}
	report.PublishOutput = result.Output
	report.ItemCount = result.ItemCount

	return report, nil
}

func (o *Orchestrator) recordStart(run database.SyncRun) {
	if o.runs == nil {
		return
	}
	if err := o.runs.Start(run); err != nil {
		slog.Warn("Failed to record sync start", "run_id", run.ID, "error", err)
	}
}

func (o *Orchestrator) recordFinish(run database.SyncRun, report *Report, syncErr error) {
	if o.runs == nil {
		return
	}

	finishedAt := time.Now()
	run.FinishedAt = &finishedAt
	run.ItemCount = report.ItemCount
	run.Status = database.SyncStatusSucceeded

	if syncErr != nil {
		run.Status = database.SyncStatusFailed
		run.Error = syncErr.Error()
		if stepErr, ok := syncErr.(*StepError); ok {
			run.FailedStep = string(stepErr.Step)
		}
	}

	if err := o.runs.Finish(run); err != nil {
		slog.Warn("Failed to record sync finish", "run_id", run.ID, "error", err)
	}
}
