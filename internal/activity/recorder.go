package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/example/hifzbot/internal/store"
	"github.com/example/hifzbot/pkg/models"
)

// Recorder counts gradings per user, local day and ayah.
// It is not idempotent: call RecordReview exactly once per grading.
type Recorder struct {
	logs store.DailyLogs
}

func NewRecorder(logs store.DailyLogs) *Recorder {
	return &Recorder{logs: logs}
}

// RecordReview increments today's count for key, creating the entry at 1
func (r *Recorder) RecordReview(ctx context.Context, userID int64, key models.AyahKey, at time.Time, loc *time.Location) error {
	date := DayKey(at, loc)
	if err := r.logs.Increment(ctx, userID, date, key); err != nil {
		return fmt.Errorf("failed to record review of %s on %s: %w", key, date, err)
	}
	return nil
}
