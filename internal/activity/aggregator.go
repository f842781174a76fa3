package activity

import (
	"context"
	"sort"
	"time"

	"github.com/example/hifzbot/internal/logger"
	"github.com/example/hifzbot/internal/observability"
	"github.com/example/hifzbot/internal/spaced_repetition"
	"github.com/example/hifzbot/internal/store"
	"github.com/example/hifzbot/pkg/models"
)

// ComputeStats aggregates a user's review items and daily log into dashboard statistics.
// asOf is interpreted on the local calendar of loc.
func ComputeStats(items []models.ReviewItem, logs []models.DailyLogEntry, asOf time.Time, loc *time.Location) models.Stats {
	var stats models.Stats
	sm := spaced_repetition.NewSM2()
	dayStart, nextDayStart := DayBounds(asOf, loc)

	stats.TrackedCount = len(items)
	overdue := 0
	for _, item := range items {
		if !item.DueAt.Before(dayStart) && item.DueAt.Before(nextDayStart) {
			stats.DueTodayCount++
		}
		if item.IsDue(asOf) {
			overdue++
		}
		if sm.IsMastered(item) {
			stats.MasteredCount++
		}
	}
	// Nothing falls inside today's window: report overdue items as due today instead
	if stats.DueTodayCount == 0 {
		stats.DueTodayCount = overdue
	}

	today := DayKey(asOf, loc)
	perDay := make(map[string]int)
	for _, entry := range logs {
		if entry.Count <= 0 {
			continue
		}
		perDay[entry.Date] += entry.Count
		stats.TotalReviewedCount += entry.Count
	}
	stats.ReviewedTodayCount = perDay[today]

	dates := make([]string, 0, len(perDay))
	for date := range perDay {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	if len(dates) > 0 {
		stats.DailyAverage = float64(stats.TotalReviewedCount) / float64(len(dates))
	}
	stats.Daily = make([]models.DayCount, 0, len(dates))
	for _, date := range dates {
		stats.Daily = append(stats.Daily, models.DayCount{Date: date, Count: perDay[date]})
	}

	stats.CurrentStreakDays = streak(dates, today)
	return stats
}

// streak counts consecutive days ending today. dates must be sorted ascending.
// Days after today are ignored.
func streak(dates []string, today string) int {
	i := len(dates) - 1
	for i >= 0 && dates[i] > today {
		i--
	}
	if i < 0 || dates[i] != today {
		return 0
	}

	count := 1
	expected := today
	for i--; i >= 0; i-- {
		prev, err := previousDay(expected)
		if err != nil || dates[i] != prev {
			break
		}
		count++
		expected = prev
	}
	return count
}

// Aggregator reads the stores and computes statistics for one user.
// Stats are advisory: store failures yield zero-valued stats, never an error.
type Aggregator struct {
	items   store.ReviewItems
	logs    store.DailyLogs
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewAggregator(items store.ReviewItems, logs store.DailyLogs, log *logger.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{items: items, logs: logs, log: log, metrics: metrics}
}

// Stats returns the statistics for userID as of asOf on the local calendar of loc.
func (a *Aggregator) Stats(ctx context.Context, userID int64, asOf time.Time, loc *time.Location) models.Stats {
	var items []models.ReviewItem
	for _, kind := range []models.ScopeKind{models.ScopeJuz, models.ScopeSurah} {
		kindItems, err := a.items.ListByUser(ctx, userID, kind)
		if err != nil {
			a.metrics.StoreError("stats_review_items")
			a.log.Warn("stats unavailable: failed to list review items", "user_id", userID, "error", err)
			return models.Stats{}
		}
		items = append(items, kindItems...)
	}

	logs, err := a.logs.ListByUser(ctx, userID)
	if err != nil {
		a.metrics.StoreError("stats_daily_logs")
		a.log.Warn("stats unavailable: failed to list daily logs", "user_id", userID, "error", err)
		return models.Stats{}
	}

	return ComputeStats(items, logs, asOf, loc)
}
