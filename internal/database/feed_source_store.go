package database

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/johnrirwin/marketwire/internal/models"
)

// FeedSourceStore reads and writes the feed registry table.
type FeedSourceStore struct {
	db *DB
}

func NewFeedSourceStore(db *DB) *FeedSourceStore {
	return &FeedSourceStore{db: db}
}

// List returns enabled feeds in position order.
func (s *FeedSourceStore) List(ctx context.Context) ([]models.FeedSource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, source_name, categories
		FROM feed_sources
		WHERE enabled
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query feed sources: %w", err)
	}
	defer rows.Close()

	feeds := make([]models.FeedSource, 0)
	for rows.Next() {
		var f models.FeedSource
		var categories pq.StringArray
		if err := rows.Scan(&f.URL, &f.SourceName, &categories); err != nil {
			return nil, fmt.Errorf("scan feed source: %w", err)
		}
		f.Categories = []string(categories)
		feeds = append(feeds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed sources: %w", err)
	}
	return feeds, nil
}

// Replace overwrites the table with feeds, numbering them from zero.
func (s *FeedSourceStore) Replace(ctx context.Context, feeds []models.FeedSource) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feed_sources`); err != nil {
		return fmt.Errorf("clear feed sources: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feed_sources (position, url, source_name, categories, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, NOW(), NOW())
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range feeds {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, i, f.URL, f.SourceName, pq.Array(f.Categories)); err != nil {
			return fmt.Errorf("insert feed source %s: %w", f.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SeedIfEmpty writes defaults when the table has no rows. It reports whether
// it seeded.
func (s *FeedSourceStore) SeedIfEmpty(ctx context.Context, defaults []models.FeedSource) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feed_sources`).Scan(&count); err != nil {
		return false, fmt.Errorf("count feed sources: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if err := s.Replace(ctx, defaults); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FeedSourceStore) SetEnabled(ctx context.Context, position int, enabled bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE feed_sources SET enabled = $2, updated_at = NOW() WHERE position = $1
	`, position, enabled)
	if err != nil {
		return fmt.Errorf("update feed source %d: %w", position, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("feed source %d not found", position)
	}
	return nil
}
