package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/hifzbot/pkg/models"
)

// SM2 implements the two-grade SuperMemo-2 variant used for ayah review
type SM2 struct {
	// Ease factor assumed for an ayah that has never been graded
	DefaultEase float64
	// Lower bound for the ease factor
	MinEase float64
	// Ease change applied on a remembered ayah
	SuccessEaseDelta float64
	// Ease change applied on a forgotten ayah
	FailureEaseDelta float64
	// Intervals in days for the first and second consecutive success
	InitialIntervals []int
}

// NewSM2 creates a new SM2 instance with default settings
func NewSM2() *SM2 {
	return &SM2{
		DefaultEase:      2.5,
		MinEase:          1.3,
		SuccessEaseDelta: 0.1,
		FailureEaseDelta: -0.2,
		InitialIntervals: []int{1, 6},
	}
}

// NextState computes the retention state after grading an ayah at now.
// current may be nil for an ayah that has never been graded.
// The result keeps the identity fields (user, ayah, scope kind, created at) of current.
func (sm *SM2) NextState(current *models.ReviewItem, quality Quality, now time.Time) models.ReviewItem {
	var next models.ReviewItem
	if current != nil {
		next = *current
	} else {
		next.EaseFactor = sm.DefaultEase
	}
	// NextState never produces an ease below MinEase, so zero only comes from a
	// row stored without one; it is treated as a fresh item's ease.
	if next.EaseFactor == 0 {
		next.EaseFactor = sm.DefaultEase
	}

	if quality == Success {
		next.Repetitions++
		next.Interval = sm.successInterval(next.Repetitions, next.Interval, next.EaseFactor)
		next.EaseFactor += sm.SuccessEaseDelta
	} else {
		next.Repetitions = 0
		next.Interval = 1
		next.EaseFactor += sm.FailureEaseDelta
	}

	if next.EaseFactor < sm.MinEase {
		next.EaseFactor = sm.MinEase
	}

	next.LastReviewedAt = now
	next.DueAt = now.AddDate(0, 0, next.Interval)
	return next
}

// successInterval picks the interval for the given repetition count.
// ease is the factor before this grading's adjustment.
func (sm *SM2) successInterval(repetitions, previousInterval int, ease float64) int {
	if repetitions <= len(sm.InitialIntervals) {
		return sm.InitialIntervals[repetitions-1]
	}
	interval := int(math.Round(float64(previousInterval) * ease))
	if interval < 1 {
		interval = 1
	}
	return interval
}

// IsMastered determines if an ayah is considered "mastered":
// reviewed successfully at least 5 times in a row with an interval of at least 30 days
func (sm *SM2) IsMastered(item models.ReviewItem) bool {
	return item.Repetitions >= 5 && item.Interval >= 30
}
