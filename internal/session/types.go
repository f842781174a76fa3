package session

import (
	"time"

	"github.com/example/hifzbot/pkg/models"
)

// Mode is the presentation mode a session is rendered in.
// Scheduling is identical for every mode.
type Mode string

const (
	ModeText Mode = "text"
	ModePage Mode = "page"
)

func (m Mode) Valid() bool {
	return m == ModeText || m == ModePage
}

// Status tells why an ayah was placed in a session
type Status string

const (
	StatusDue    Status = "due"
	StatusUnseen Status = "unseen"
)

// Request describes the session a user asked for
type Request struct {
	Scope         models.Scope `json:"scope"`
	Count         int          `json:"count"`
	ContextBefore int          `json:"context_before"`
	ContextAfter  int          `json:"context_after"`
	Mode          Mode         `json:"mode"`
}

// Item is one prompt ayah with its recall window
type Item struct {
	Ayah   models.Ayah        `json:"ayah"`
	Status Status             `json:"status"`
	Review *models.ReviewItem `json:"review,omitempty"`
	// Before is shown as a cue; After is what the user must recite
	Before             []models.Ayah `json:"before"`
	After              []models.Ayah `json:"after"`
	ContextUnavailable bool          `json:"context_unavailable,omitempty"`
}

// Session is an ordered list of prompts: due ayahs first, most overdue first,
// then unseen ayahs in random order
type Session struct {
	ID             string       `json:"id"`
	UserID         int64        `json:"user_id"`
	Mode           Mode         `json:"mode"`
	Scope          models.Scope `json:"scope"`
	Items          []Item       `json:"items"`
	Degraded       bool         `json:"degraded,omitempty"`
	DegradedReason string       `json:"degraded_reason,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Counts returns the number of due and unseen items
func (s *Session) Counts() (due, unseen int) {
	for _, item := range s.Items {
		if item.Status == StatusDue {
			due++
		} else {
			unseen++
		}
	}
	return due, unseen
}
