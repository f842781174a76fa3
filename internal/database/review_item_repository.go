package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/hifzbot/internal/store"
	"github.com/example/hifzbot/pkg/models"
)

var _ store.ReviewItems = (*ReviewItemRepository)(nil)

const reviewItemColumns = `user_id, surah, ayah, scope_kind, interval_days, repetitions, ease_factor,
	last_reviewed_at, due_at, created_at, updated_at`

// ReviewItemRepository handles database operations for review items
type ReviewItemRepository struct {
	db *sqlx.DB
}

// NewReviewItemRepository creates a new repository instance
func NewReviewItemRepository(db *sqlx.DB) *ReviewItemRepository {
	return &ReviewItemRepository{db: db}
}

// ListByUser returns the user's items scheduled under kind, earliest due first
func (r *ReviewItemRepository) ListByUser(ctx context.Context, userID int64, kind models.ScopeKind) ([]models.ReviewItem, error) {
	query := r.db.Rebind(`
		SELECT ` + reviewItemColumns + `
		FROM review_items
		WHERE user_id = ? AND scope_kind = ?
		ORDER BY due_at ASC, surah ASC, ayah ASC
	`)
	var items []models.ReviewItem
	if err := r.db.SelectContext(ctx, &items, query, userID, kind); err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	return items, nil
}

// Get returns nil, nil when the user has never graded the ayah
func (r *ReviewItemRepository) Get(ctx context.Context, userID int64, key models.AyahKey) (*models.ReviewItem, error) {
	query := r.db.Rebind(`
		SELECT ` + reviewItemColumns + `
		FROM review_items
		WHERE user_id = ? AND surah = ? AND ayah = ?
	`)
	var item models.ReviewItem
	err := r.db.GetContext(ctx, &item, query, userID, key.Surah, key.Ayah)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item %s: %w", key, err)
	}
	return &item, nil
}

// Upsert creates or replaces the item in a single statement keyed on (user, surah, ayah)
func (r *ReviewItemRepository) Upsert(ctx context.Context, item *models.ReviewItem) error {
	now := time.Now().UTC()
	item.UpdatedAt = now
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.LastReviewedAt = item.LastReviewedAt.UTC()
	item.DueAt = item.DueAt.UTC()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO review_items (`+reviewItemColumns+`)
		VALUES (:user_id, :surah, :ayah, :scope_kind, :interval_days, :repetitions, :ease_factor,
			:last_reviewed_at, :due_at, :created_at, :updated_at)
		ON CONFLICT (user_id, surah, ayah) DO UPDATE SET
			scope_kind = excluded.scope_kind,
			interval_days = excluded.interval_days,
			repetitions = excluded.repetitions,
			ease_factor = excluded.ease_factor,
			last_reviewed_at = excluded.last_reviewed_at,
			due_at = excluded.due_at,
			updated_at = excluded.updated_at
	`, item)
	if err != nil {
		return fmt.Errorf("failed to upsert review item %s: %w", item.Key(), err)
	}

	// The row may predate this call; read back its original creation time
	query := r.db.Rebind("SELECT created_at FROM review_items WHERE user_id = ? AND surah = ? AND ayah = ?")
	if err := r.db.QueryRowContext(ctx, query, item.UserID, item.Surah, item.Ayah).Scan(&item.CreatedAt); err != nil {
		return fmt.Errorf("failed to read back review item %s: %w", item.Key(), err)
	}
	return nil
}

// DeleteByUser removes all review items of a user
func (r *ReviewItemRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM review_items WHERE user_id = ?"), userID); err != nil {
		return fmt.Errorf("failed to delete review items: %w", err)
	}
	return nil
}
