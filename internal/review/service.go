// Package review is the caller-facing API of the memorization core: it starts
// sessions, grades ayahs, reports statistics and resets a user's data.
package review

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/example/hifzbot/internal/activity"
	"github.com/example/hifzbot/internal/corpus"
	apperr "github.com/example/hifzbot/internal/errors"
	"github.com/example/hifzbot/internal/logger"
	"github.com/example/hifzbot/internal/observability"
	"github.com/example/hifzbot/internal/session"
	sr "github.com/example/hifzbot/internal/spaced_repetition"
	"github.com/example/hifzbot/internal/store"
	"github.com/example/hifzbot/pkg/models"
)

// GradeRequest is one recall outcome reported by the user
type GradeRequest struct {
	Key     models.AyahKey `json:"key"`
	Quality sr.Quality     `json:"quality"`
	// ScopeKind files the item under section or named-unit mode.
	// Empty keeps the kind of an existing item.
	ScopeKind models.ScopeKind `json:"scope_kind,omitempty"`
}

// GradeResult is the saved retention state of a graded ayah.
// LogRecorded is false when the schedule was saved but the grading is missing
// from today's log, so today's count and the streak do not include it.
type GradeResult struct {
	models.ReviewItem
	LogRecorded bool     `json:"log_recorded"`
	Warnings    []string `json:"warnings,omitempty"`
}

// WarningLogNotRecorded reports a grading missing from the daily log
const WarningLogNotRecorded = "daily log not updated: today's count and streak exclude this review"

// Service wires the scheduler, the session assembler, the aggregator and the recorder
type Service struct {
	corpus    corpus.Corpus
	items     store.ReviewItems
	logs      store.DailyLogs
	sm2       *sr.SM2
	assembler *session.Assembler
	stats     *activity.Aggregator
	recorder  *activity.Recorder
	log       *logger.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

type options struct {
	now func() time.Time
	rng *rand.Rand
}

// Option configures a Service
type Option func(*options)

// WithClock sets the function used to read the current time
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRand sets the random source used to pick unseen ayahs
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// NewService creates a review service over the given corpus and stores
func NewService(c corpus.Corpus, items store.ReviewItems, logs store.DailyLogs, log *logger.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	assemblerOpts := []session.Option{session.WithClock(o.now)}
	if o.rng != nil {
		assemblerOpts = append(assemblerOpts, session.WithRand(o.rng))
	}

	return &Service{
		corpus:    c,
		items:     items,
		logs:      logs,
		sm2:       sr.NewSM2(),
		assembler: session.NewAssembler(c, items, log, metrics, assemblerOpts...),
		stats:     activity.NewAggregator(items, logs, log, metrics),
		recorder:  activity.NewRecorder(logs),
		log:       log,
		metrics:   metrics,
		now:       o.now,
	}
}

// StartSession assembles a new review session for userID
func (s *Service) StartSession(ctx context.Context, userID int64, req session.Request) (*session.Session, error) {
	return s.assembler.Build(ctx, userID, req)
}

// Grade applies the recall outcome to the ayah's retention state, persists it
// and counts the grading in today's log on the calendar of loc.
func (s *Service) Grade(ctx context.Context, userID int64, req GradeRequest, loc *time.Location) (*GradeResult, error) {
	if !req.Quality.IsValid() {
		return nil, apperr.NewInvalidRequest(fmt.Sprintf("invalid quality %d", int(req.Quality)))
	}
	if _, err := s.corpus.Ayah(req.Key); err != nil {
		return nil, apperr.NewInvalidRequest(fmt.Sprintf("unknown ayah %s", req.Key))
	}
	if req.ScopeKind != "" && !req.ScopeKind.Valid() {
		return nil, apperr.NewInvalidRequest(fmt.Sprintf("unknown scope kind %q", req.ScopeKind))
	}

	current, err := s.items.Get(ctx, userID, req.Key)
	if err != nil {
		s.metrics.StoreError("get_review_item")
		return nil, apperr.NewStoreUnavailable("get_review_item", err)
	}

	kind := req.ScopeKind
	if kind == "" {
		if current == nil {
			return nil, apperr.NewInvalidRequest("scope kind is required for an ayah graded for the first time")
		}
		kind = current.ScopeKind
	}

	now := s.now()
	next := s.sm2.NextState(current, req.Quality, now)
	next.UserID = userID
	next.Surah = req.Key.Surah
	next.Ayah = req.Key.Ayah
	next.ScopeKind = kind

	if err := s.items.Upsert(ctx, &next); err != nil {
		s.metrics.StoreError("upsert_review_item")
		s.log.Error("failed to save review item", "user_id", userID, "ayah", req.Key.String(), "error", err)
		return nil, apperr.NewStoreUnavailable("upsert_review_item", err)
	}
	s.metrics.Graded(req.Quality.String())

	result := &GradeResult{ReviewItem: next, LogRecorded: true}
	// The schedule is already saved; an error here would make the caller grade twice
	if err := s.recorder.RecordReview(ctx, userID, req.Key, now, loc); err != nil {
		s.metrics.StoreError("increment_daily_log")
		s.log.Error("grading saved but daily log not updated",
			"user_id", userID, "ayah", req.Key.String(), "error", err)
		result.LogRecorded = false
		result.Warnings = append(result.Warnings, WarningLogNotRecorded)
	}

	s.log.Debug("ayah graded", "user_id", userID, "ayah", req.Key.String(),
		"quality", req.Quality.String(), "interval", next.Interval, "ease", next.EaseFactor)
	return result, nil
}

// Stats returns the user's activity statistics for today on the calendar of loc
func (s *Service) Stats(ctx context.Context, userID int64, loc *time.Location) models.Stats {
	return s.stats.Stats(ctx, userID, s.now(), loc)
}

// IsMastered reports whether the item has reached long-term retention
func (s *Service) IsMastered(item models.ReviewItem) bool {
	return s.sm2.IsMastered(item)
}

// Reset deletes all review state and daily logs of userID
func (s *Service) Reset(ctx context.Context, userID int64) error {
	if err := s.items.DeleteByUser(ctx, userID); err != nil {
		s.metrics.StoreError("delete_review_items")
		return apperr.NewStoreUnavailable("delete_review_items", err)
	}
	if err := s.logs.DeleteByUser(ctx, userID); err != nil {
		s.metrics.StoreError("delete_daily_logs")
		return apperr.NewStoreUnavailable("delete_daily_logs", err)
	}
	s.log.Info("user data reset", "user_id", userID)
	return nil
}
