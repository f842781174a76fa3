package models

import "time"

// ReviewItem tracks a user's retention state for one ayah using the SM-2 algorithm
type ReviewItem struct {
	UserID         int64     `json:"user_id" db:"user_id"`
	Surah          int       `json:"surah" db:"surah"`
	Ayah           int       `json:"ayah" db:"ayah"`
	ScopeKind      ScopeKind `json:"scope_kind" db:"scope_kind"`
	Interval       int       `json:"interval" db:"interval_days"` // Days until the next review
	Repetitions    int       `json:"repetitions" db:"repetitions"` // Consecutive successful recalls
	EaseFactor     float64   `json:"ease_factor" db:"ease_factor"`
	LastReviewedAt time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	DueAt          time.Time `json:"due_at" db:"due_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Key returns the ayah this item schedules
func (r ReviewItem) Key() AyahKey {
	return AyahKey{Surah: r.Surah, Ayah: r.Ayah}
}

// IsDue reports whether the item is eligible for review at t
func (r ReviewItem) IsDue(t time.Time) bool {
	return !r.DueAt.After(t)
}
