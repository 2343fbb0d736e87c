package database

import (
	"database/sql"
	"fmt"
	"time"
)

type SQLSourceRepository struct {
	db *DB
}

func NewSourceRepository(db *DB) *SQLSourceRepository {
	return &SQLSourceRepository{db: db}
}

const sourceColumns = `name, url, created_at, updated_at, last_crawled_at, last_item_count, last_error`

func (r *SQLSourceRepository) List() ([]Source, error) {
	rows, err := r.db.Query(`SELECT ` + sourceColumns + ` FROM sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	sources := []Source{}
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

// Get returns nil when no source has the given name.
func (r *SQLSourceRepository) Get(name string) (*Source, error) {
	row := r.db.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE name = ?`, name)

	source, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return source, nil
}

func (r *SQLSourceRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return count, nil
}

// Upsert adds a source or replaces the URL of an existing one. It reports
// whether a new source was created.
func (r *SQLSourceRepository) Upsert(name, url string) (bool, error) {
	existing, err := r.Get(name)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(`
		INSERT INTO sources (name, url, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			url = excluded.url,
			updated_at = excluded.updated_at
	`, name, url, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to upsert source: %w", err)
	}

	return existing == nil, nil
}

func (r *SQLSourceRepository) Delete(name string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM sources WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete source: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *SQLSourceRepository) RecordCrawl(name string, crawledAt time.Time, itemCount int, crawlErr string) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET last_crawled_at = ?, last_item_count = ?, last_error = ?
		WHERE name = ?
	`, crawledAt.UTC(), itemCount, crawlErr, name)
	if err != nil {
		return fmt.Errorf("failed to record source crawl: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*Source, error) {
	var source Source
	var lastCrawledAt sql.NullTime

	err := row.Scan(
		&source.Name, &source.URL, &source.CreatedAt, &source.UpdatedAt,
		&lastCrawledAt, &source.LastItemCount, &source.LastError,
	)
	if err != nil {
		return nil, err
	}

	if lastCrawledAt.Valid {
		source.LastCrawledAt = &lastCrawledAt.Time
	}

	return &source, nil
}
