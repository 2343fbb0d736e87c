package tasks

import (
	"context"

	"github.com/lysyi3m/flipnews/app/database"
	"github.com/lysyi3m/flipnews/app/feed"
	"github.com/lysyi3m/flipnews/app/pipeline"
)

// TaskSchedulerInterface is the worker pool used by main and the admin API.
//
//	scheduler := NewScheduler(orchestrator, preferences, sourceCrawler, sourceRepo)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueSync(database.TriggerAdmin)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueSync(trigger string) (string, error)
	EnqueueSourceCrawl(trigger string) (string, error)
}

type Syncer interface {
	SyncWithTrigger(ctx context.Context, trigger string, topics []string) (*pipeline.Report, error)
	Busy() bool
}

type SourceCrawler interface {
	Run(ctx context.Context, sources []database.Source) ([]feed.SourceResult, error)
}

var (
	_ TaskSchedulerInterface = (*Scheduler)(nil)
	_ Syncer                 = (*pipeline.Orchestrator)(nil)
	_ SourceCrawler          = (*feed.SourceCrawler)(nil)
	_ TaskInterface          = (*SyncFeedTask)(nil)
	_ TaskInterface          = (*CrawlSourcesTask)(nil)
)
