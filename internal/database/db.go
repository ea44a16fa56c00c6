// Package database stores the feed registry in PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Config holds database configuration
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            5432,
		User:            "postgres",
		Password:        "postgres",
		Database:        "marketwire",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// DB wraps the sql.DB connection
type DB struct {
	*sql.DB
}

// New opens a connection pool and pings it.
func New(config Config) (*DB, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Wrap adopts an existing pool, used by tests.
func Wrap(db *sql.DB) *DB {
	return &DB{DB: db}
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// Migrate creates the schema. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationFeedSources,
		migrationFeedSourceIndexes,
	}

	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// Feeds are keyed by position because the registry allows the same URL and
// source name to appear more than once with different categories.
const migrationFeedSources = `
CREATE TABLE IF NOT EXISTS feed_sources (
    position INTEGER PRIMARY KEY,
    url TEXT NOT NULL,
    source_name TEXT NOT NULL,
    categories TEXT[] NOT NULL,
    enabled BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
`

const migrationFeedSourceIndexes = `
CREATE INDEX IF NOT EXISTS idx_feed_sources_enabled ON feed_sources(enabled, position);
CREATE INDEX IF NOT EXISTS idx_feed_sources_categories ON feed_sources USING GIN (categories);
`
