package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/hifzbot/internal/store"
	"github.com/example/hifzbot/pkg/models"
)

var _ store.DailyLogs = (*DailyLogRepository)(nil)

// DailyLogRepository handles database operations for the daily review log
type DailyLogRepository struct {
	db *sqlx.DB
}

// NewDailyLogRepository creates a new repository instance
func NewDailyLogRepository(db *sqlx.DB) *DailyLogRepository {
	return &DailyLogRepository{db: db}
}

// Increment adds one to the count for (user, date, ayah), creating it at 1
func (r *DailyLogRepository) Increment(ctx context.Context, userID int64, date string, key models.AyahKey) error {
	query := r.db.Rebind(`
		INSERT INTO daily_logs (user_id, log_date, surah, ayah, review_count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT (user_id, log_date, surah, ayah) DO UPDATE SET
			review_count = daily_logs.review_count + 1
	`)
	if _, err := r.db.ExecContext(ctx, query, userID, date, key.Surah, key.Ayah); err != nil {
		return fmt.Errorf("failed to increment daily log: %w", err)
	}
	return nil
}

// ListByUser returns all log entries of a user ordered by date
func (r *DailyLogRepository) ListByUser(ctx context.Context, userID int64) ([]models.DailyLogEntry, error) {
	query := r.db.Rebind(`
		SELECT user_id, log_date, surah, ayah, review_count
		FROM daily_logs
		WHERE user_id = ?
		ORDER BY log_date ASC, surah ASC, ayah ASC
	`)
	var entries []models.DailyLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list daily logs: %w", err)
	}
	return entries, nil
}

// ListByUserAndDateRange returns entries with from <= date <= to
func (r *DailyLogRepository) ListByUserAndDateRange(ctx context.Context, userID int64, from, to string) ([]models.DailyLogEntry, error) {
	query := r.db.Rebind(`
		SELECT user_id, log_date, surah, ayah, review_count
		FROM daily_logs
		WHERE user_id = ? AND log_date >= ? AND log_date <= ?
		ORDER BY log_date ASC, surah ASC, ayah ASC
	`)
	var entries []models.DailyLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list daily logs: %w", err)
	}
	return entries, nil
}

// DeleteByUser removes all log entries of a user
func (r *DailyLogRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM daily_logs WHERE user_id = ?"), userID); err != nil {
		return fmt.Errorf("failed to delete daily logs: %w", err)
	}
	return nil
}
