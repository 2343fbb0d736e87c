package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/flipnews/app/store"
)

// SyncFeedTask re-runs the sync with the stored preferences. It is not
// retried; the next scheduled run picks up where a failed one left off.
type SyncFeedTask struct {
	Task
	syncer      Syncer
	preferences store.PreferenceStore
}

func NewSyncFeedTask(trigger string, syncer Syncer, preferences store.PreferenceStore) *SyncFeedTask {
	task := &SyncFeedTask{
		Task:        NewTask(TaskTypeSyncFeed, trigger),
		syncer:      syncer,
		preferences: preferences,
	}
	task.MaxRetries = 0
	return task
}

func (t *SyncFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	prefs, err := t.preferences.Read()
	if err != nil {
		return fmt.Errorf("failed to read preferences: %w", err)
	}

	report, err := t.syncer.SyncWithTrigger(ctx, t.Trigger, prefs.Topics)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"trigger", t.Trigger,
		"duration", t.GetDuration(),
		"topics", prefs.Topics,
		"items", report.ItemCount)

	return nil
}
