// Package store defines the persistence contracts of the review core.
// The database package provides the SQL ("remote") adapter; Memory is the
// in-process ("local") adapter used when no database is configured and in tests.
package store

import (
	"context"

	"github.com/example/hifzbot/pkg/models"
)

// ReviewItems persists per-user, per-ayah retention state
type ReviewItems interface {
	// ListByUser returns the user's items scheduled under kind
	ListByUser(ctx context.Context, userID int64, kind models.ScopeKind) ([]models.ReviewItem, error)
	// Get returns nil, nil when the ayah has never been graded
	Get(ctx context.Context, userID int64, key models.AyahKey) (*models.ReviewItem, error)
	// Upsert writes item atomically, keyed on (user, ayah); last write wins
	Upsert(ctx context.Context, item *models.ReviewItem) error
	DeleteByUser(ctx context.Context, userID int64) error
}

// DailyLogs persists per-user, per-day, per-ayah grading counts
type DailyLogs interface {
	// Increment adds one to the count for (user, date, ayah), creating it at 1
	Increment(ctx context.Context, userID int64, date string, key models.AyahKey) error
	ListByUser(ctx context.Context, userID int64) ([]models.DailyLogEntry, error)
	// ListByUserAndDateRange returns entries with from <= date <= to
	ListByUserAndDateRange(ctx context.Context, userID int64, from, to string) ([]models.DailyLogEntry, error)
	DeleteByUser(ctx context.Context, userID int64) error
}
