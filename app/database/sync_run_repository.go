package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

type SQLSyncRunRepository struct {
	db *DB
}

func NewSyncRunRepository(db *DB) *SQLSyncRunRepository {
	return &SQLSyncRunRepository{db: db}
}

func (r *SQLSyncRunRepository) Start(run SyncRun) error {
	topics, err := json.Marshal(run.Topics)
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO sync_runs (id, trigger, topics, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Trigger, string(topics), run.Status, run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record sync start: %w", err)
	}

	return nil
}

func (r *SQLSyncRunRepository) Finish(run SyncRun) error {
	var finishedAt any
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.UTC()
	}

	result, err := r.db.Exec(`
		UPDATE sync_runs
		SET status = ?, failed_step = ?, item_count = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, run.Status, run.FailedStep, run.ItemCount, run.Error, finishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to record sync finish: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("sync run %s not found", run.ID)
	}

	return nil
}

func (r *SQLSyncRunRepository) Recent(limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, trigger, topics, status, failed_step, item_count, error, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	runs := []SyncRun{}
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run row: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync run rows: %w", err)
	}

	return runs, nil
}

// Last returns nil when no sync has run yet.
func (r *SQLSyncRunRepository) Last() (*SyncRun, error) {
	runs, err := r.Recent(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func scanSyncRun(row rowScanner) (*SyncRun, error) {
	var run SyncRun
	var topics string
	var finishedAt sql.NullTime

	err := row.Scan(
		&run.ID, &run.Trigger, &topics, &run.Status, &run.FailedStep,
		&run.ItemCount, &run.Error, &run.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(topics), &run.Topics); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}
	if run.Topics == nil {
		run.Topics = []string{}
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	return &run, nil
}
