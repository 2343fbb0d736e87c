package api

import (
	"context"
	"time"

	"github.com/lysyi3m/flipnews/app/database"
	"github.com/lysyi3m/flipnews/app/dataset"
	"github.com/lysyi3m/flipnews/app/feed"
	"github.com/lysyi3m/flipnews/app/pipeline"
	"github.com/lysyi3m/flipnews/app/store"
	"github.com/lysyi3m/flipnews/app/tasks"
)

type Syncer interface {
	Sync(ctx context.Context, topics []string) (*pipeline.Report, error)
}

type TopicResolver interface {
	Names() []string
	Resolve(labels []string) ([]string, error)
}

type DatasetReader interface {
	Read() ([]dataset.NewsItem, error)
}

type GeneratorInterface interface {
	Run(channel feed.ChannelInfo, items []dataset.NewsItem) (string, error)
}

var (
	_ Syncer             = (*pipeline.Orchestrator)(nil)
	_ TopicResolver      = (*feed.Catalog)(nil)
	_ DatasetReader      = (*dataset.Reader)(nil)
	_ GeneratorInterface = (*feed.Generator)(nil)
	_ SystemProbe        = (*HostProbe)(nil)
)

// Dependencies groups everything the handlers need. Runs, Sources and
// Scheduler may be nil; the routes depending on them then answer 503.
type Dependencies struct {
	Syncer      Syncer
	Topics      TopicResolver
	Preferences store.PreferenceStore
	Notes       store.NoteStore
	Visuals     store.VisualStore
	Dataset     DatasetReader
	Generator   GeneratorInterface
	Sources     database.SourceRepository
	Runs        database.SyncRunRepository
	Scheduler   tasks.TaskSchedulerInterface
	Probe       SystemProbe

	DataDir     string
	BaseURL     string
	Version     string
	SyncTimeout time.Duration
}

type Handler struct {
	syncer      Syncer
	topics      TopicResolver
	preferences store.PreferenceStore
	notes       store.NoteStore
	visuals     store.VisualStore
	dataset     DatasetReader
	generator   GeneratorInterface
	sources     database.SourceRepository
	runs        database.SyncRunRepository
	scheduler   tasks.TaskSchedulerInterface
	probe       SystemProbe

	dataDir     string
	baseURL     string
	version     string
	syncTimeout time.Duration
}

type SyncRequest struct {
	Topics []string `json:"topics"`
}

type NoteRequest struct {
	NewsID string `json:"newsId"`
	Note   string `json:"note"`
}

type SourceRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AuthError is returned to admin callers with a missing or wrong key.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return e.Reason
}
