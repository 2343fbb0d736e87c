package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/flipnews/app/cfg"
	"github.com/lysyi3m/flipnews/app/database"
	"github.com/lysyi3m/flipnews/app/store"
)

const (
	defaultTaskTimeout = 5 * time.Minute
	defaultInterval    = 30 * time.Second
	maxRetryDelay      = 30 * time.Second
	taskQueueSize      = 100
)

type Scheduler struct {
	syncer              Syncer
	preferences         store.PreferenceStore
	sourceCrawler       SourceCrawler
	sourceRepo          database.SourceRepository
	interval            time.Duration
	refreshInterval     time.Duration
	sourceCrawlInterval time.Duration
	taskTimeout         time.Duration
	workerCount         int
	ctx                 context.Context
	cancel              context.CancelFunc
	wg                  sync.WaitGroup
	taskQueue           chan TaskInterface
	lastRefresh         time.Time
	lastSourceCrawl     time.Time
}

func NewScheduler(syncer Syncer, preferences store.PreferenceStore, sourceCrawler SourceCrawler, sourceRepo database.SourceRepository) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	interval := time.Duration(cfg.SchedulerInterval) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Scheduler{
		syncer:              syncer,
		preferences:         preferences,
		sourceCrawler:       sourceCrawler,
		sourceRepo:          sourceRepo,
		interval:            interval,
		refreshInterval:     cfg.RefreshInterval,
		sourceCrawlInterval: cfg.SourceCrawlInterval,
		taskTimeout:         max(defaultTaskTimeout, cfg.SyncTimeout),
		workerCount:         max(1, cfg.WorkerCount),
		ctx:                 ctx,
		cancel:              cancel,
		taskQueue:           make(chan TaskInterface, taskQueueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks(time.Now())

		for {
			select {
			case <-s.ctx.Done():
				return
			case now := <-ticker.C:
				s.enqueueTasks(now)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueSync queues a sync with the stored preferences and returns the task ID.
func (s *Scheduler) EnqueueSync(trigger string) (string, error) {
	task := NewSyncFeedTask(trigger, s.syncer, s.preferences)
	if err := s.EnqueueTask(task); err != nil {
		return "", err
	}
	return task.GetID(), nil
}

func (s *Scheduler) EnqueueSourceCrawl(trigger string) (string, error) {
	task := NewCrawlSourcesTask(trigger, s.sourceCrawler, s.sourceRepo)
	if err := s.EnqueueTask(task); err != nil {
		return "", err
	}
	return task.GetID(), nil
}

func (s *Scheduler) enqueueStartupTasks(now time.Time) {
	s.lastRefresh = now

	if s.sourceCrawlInterval <= 0 {
		slog.Debug("Source crawling disabled")
		return
	}

	s.lastSourceCrawl = now
	if _, err := s.EnqueueSourceCrawl(database.TriggerScheduler); err != nil {
		slog.Warn("Failed to enqueue CrawlSourcesTask", "error", err)
	}
}

func (s *Scheduler) enqueueTasks(now time.Time) {
	if s.refreshInterval > 0 && now.Sub(s.lastRefresh) >= s.refreshInterval {
		if s.syncer.Busy() {
			slog.Debug("Sync in progress, skipping scheduled refresh")
		} else {
			s.lastRefresh = now
			if _, err := s.EnqueueSync(database.TriggerScheduler); err != nil {
				slog.Warn("Failed to enqueue SyncFeedTask", "error", err)
			}
		}
	}

	if s.sourceCrawlInterval > 0 && now.Sub(s.lastSourceCrawl) >= s.sourceCrawlInterval {
		s.lastSourceCrawl = now
		if _, err := s.EnqueueSourceCrawl(database.TriggerScheduler); err != nil {
			slog.Warn("Failed to enqueue CrawlSourcesTask", "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
		return
	}

	task.IncrementRetryCount()
	retryDelay := retryBackoff(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "trigger", task.GetTrigger(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryBackoff doubles from one second and is capped at 30s.
func retryBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	delay := time.Duration(1<<uint(retryCount-1)) * time.Second
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
