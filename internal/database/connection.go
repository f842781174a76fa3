package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/hifzbot/internal/config"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Connect establishes a connection to the configured database and applies the schema
func Connect(cfg config.Database) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Type {
	case "postgres":
		if cfg.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_TYPE=postgres")
		}
		db, err = sqlx.Connect("postgres", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	case "", "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join("data", "hifzbot.db")
		}
		if path != ":memory:" {
			// Create data directory if it doesn't exist
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = sqlx.Connect("sqlite3", path+"?_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		// SQLite doesn't support multiple writers; one connection also keeps :memory: databases shared
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q: want sqlite or postgres", cfg.Type)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist.
// The statements are valid for both SQLite and PostgreSQL.
func initializeSchema(db *sqlx.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				telegram_id BIGINT PRIMARY KEY,
				username TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL DEFAULT '',
				scope_kind TEXT NOT NULL DEFAULT 'juz',
				scope_ids TEXT NOT NULL DEFAULT '[30]',
				session_size INTEGER NOT NULL DEFAULT 10,
				context_before INTEGER NOT NULL DEFAULT 1,
				context_after INTEGER NOT NULL DEFAULT 1,
				timezone TEXT NOT NULL DEFAULT '',
				notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
				notification_hour INTEGER NOT NULL DEFAULT 9,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"ayahs", `
			CREATE TABLE IF NOT EXISTS ayahs (
				surah INTEGER NOT NULL,
				ayah INTEGER NOT NULL,
				text TEXT NOT NULL DEFAULT '',
				translation TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (surah, ayah)
			)`},
		{"review_items", `
			CREATE TABLE IF NOT EXISTS review_items (
				user_id BIGINT NOT NULL,
				surah INTEGER NOT NULL,
				ayah INTEGER NOT NULL,
				scope_kind TEXT NOT NULL,
				interval_days INTEGER NOT NULL DEFAULT 0,
				repetitions INTEGER NOT NULL DEFAULT 0,
				ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
				last_reviewed_at TIMESTAMP NOT NULL,
				due_at TIMESTAMP NOT NULL,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, surah, ayah)
			)`},
		{"review_items index", `
			CREATE INDEX IF NOT EXISTS idx_review_items_user_kind_due
			ON review_items (user_id, scope_kind, due_at)`},
		{"daily_logs", `
			CREATE TABLE IF NOT EXISTS daily_logs (
				user_id BIGINT NOT NULL,
				log_date TEXT NOT NULL,
				surah INTEGER NOT NULL,
				ayah INTEGER NOT NULL,
				review_count INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (user_id, log_date, surah, ayah)
			)`},
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}
