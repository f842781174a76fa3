package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/hifzbot/internal/logger"
	"github.com/example/hifzbot/internal/observability"
	"github.com/example/hifzbot/pkg/models"
)

// Default notification window, in each user's local time
const (
	DefaultNotificationStartHour = 6
	DefaultNotificationEndHour   = 22
)

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(userID int64, count int) error
}

// UserSource lists users who have reminders enabled
type UserSource interface {
	GetUsersForNotification(ctx context.Context) ([]models.User, error)
}

// StatsSource computes a user's statistics on the calendar of loc
type StatsSource interface {
	Stats(ctx context.Context, userID int64, loc *time.Location) models.Stats
}

// Options tune the reminder window
type Options struct {
	StartHour       int
	EndHour         int
	DefaultTimezone *time.Location
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     UserSource
	stats     StatsSource
	opts      Options
	log       *logger.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// New creates a new scheduler instance
func New(notifier Notifier, users UserSource, stats StatsSource, opts Options, log *logger.Logger, metrics *observability.Metrics) *Scheduler {
	if opts.DefaultTimezone == nil {
		opts.DefaultTimezone = time.UTC
	}
	if opts.StartHour == 0 && opts.EndHour == 0 {
		opts.StartHour = DefaultNotificationStartHour
		opts.EndHour = DefaultNotificationEndHour
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		users:     users,
		stats:     stats,
		opts:      opts,
		log:       log,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Start runs the reminder check at the top of every hour
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Cron("0 * * * *").Do(func() {
		s.checkAndSendReminders(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("reminder scheduler started", "start_hour", s.opts.StartHour, "end_hour", s.opts.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders sends a reminder to every user whose local hour is
// their notification hour and who has ayahs due
func (s *Scheduler) checkAndSendReminders(ctx context.Context) int {
	users, err := s.users.GetUsersForNotification(ctx)
	if err != nil {
		s.log.Error("failed to get users for notification", "error", err)
		return 0
	}

	now := s.now()
	sent := 0
	for _, user := range users {
		loc := user.Location(s.opts.DefaultTimezone)
		hour := now.In(loc).Hour()
		if hour != user.NotificationHour {
			continue
		}
		if hour < s.opts.StartHour || hour > s.opts.EndHour {
			s.log.Debug("local hour outside notification window, skipping",
				"user_id", user.ID, "hour", hour)
			continue
		}

		ok, err := s.remind(ctx, user, loc)
		if err != nil {
			s.log.Warn("failed to send reminder", "user_id", user.ID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent
}

// RunManualCheck forces a check for a specific user, ignoring the notification hour
func (s *Scheduler) RunManualCheck(ctx context.Context, user models.User) (bool, error) {
	return s.remind(ctx, user, user.Location(s.opts.DefaultTimezone))
}

func (s *Scheduler) remind(ctx context.Context, user models.User, loc *time.Location) (bool, error) {
	due := s.stats.Stats(ctx, user.ID, loc).DueTodayCount
	if due <= 0 {
		return false, nil
	}
	// Don't announce more than one session's worth
	if user.SessionSize > 0 && due > user.SessionSize {
		due = user.SessionSize
	}
	if err := s.notifier.SendReminders(user.ID, due); err != nil {
		return false, err
	}
	s.metrics.ReminderSent()
	return true, nil
}
