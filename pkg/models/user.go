package models

import "time"

// User represents a Telegram user memorizing with the bot
type User struct {
	ID                  int64     `json:"id" db:"telegram_id"` // Telegram User ID
	Username            string    `json:"username" db:"username"`
	FirstName           string    `json:"first_name" db:"first_name"`
	LastName            string    `json:"last_name" db:"last_name"`
	ScopeKind           ScopeKind `json:"scope_kind" db:"scope_kind"`
	ScopeIDs            []int     `json:"scope_ids" db:"-"` // Stored as JSON in scope_ids
	SessionSize         int       `json:"session_size" db:"session_size"`
	ContextBefore       int       `json:"context_before" db:"context_before"`
	ContextAfter        int       `json:"context_after" db:"context_after"`
	Timezone            string    `json:"timezone" db:"timezone"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"` // Local hour of day (0-23)
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// Scope returns the user's preferred review scope
func (u User) Scope() Scope {
	return Scope{Kind: u.ScopeKind, IDs: u.ScopeIDs}
}

// Location resolves the user's timezone, falling back to fallback when unset or unknown
func (u User) Location(fallback *time.Location) *time.Location {
	if u.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}
