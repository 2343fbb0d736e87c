package database

import (
	"time"
)

type Source struct {
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastCrawledAt *time.Time `json:"last_crawled_at,omitempty"`
	LastItemCount int        `json:"last_item_count"`
	LastError     string     `json:"last_error,omitempty"`
}

const (
	SyncStatusRunning   = "running"
	SyncStatusSucceeded = "succeeded"
	SyncStatusFailed    = "failed"
)

const (
	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
	TriggerAdmin     = "admin"
)

type SyncRun struct {
	ID         string     `json:"id"`
	Trigger    string     `json:"trigger"`
	Topics     []string   `json:"topics"`
	Status     string     `json:"status"`
	FailedStep string     `json:"failed_step,omitempty"`
	ItemCount  int        `json:"item_count"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
