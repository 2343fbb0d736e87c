package database

import (
	"time"
)

type SourceRepository interface {
	List() ([]Source, error)
	Get(name string) (*Source, error)
	Count() (int, error)

	Upsert(name, url string) (bool, error)
	Delete(name string) (bool, error)
	RecordCrawl(name string, crawledAt time.Time, itemCount int, crawlErr string) error
}

type SyncRunRepository interface {
	Start(run SyncRun) error
	Finish(run SyncRun) error

	Recent(limit int) ([]SyncRun, error)
	Last() (*SyncRun, error)
}

var (
	_ SourceRepository  = (*SQLSourceRepository)(nil)
	_ SyncRunRepository = (*SQLSyncRunRepository)(nil)
)
