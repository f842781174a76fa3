package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/hifzbot/pkg/models"
)

var (
	_ ReviewItems = (*MemoryReviewItems)(nil)
	_ DailyLogs   = (*MemoryDailyLogs)(nil)
)

type itemKey struct {
	userID int64
	key    models.AyahKey
}

// MemoryReviewItems is a simple in-process review item store for local/dev use.
type MemoryReviewItems struct {
	mu    sync.RWMutex
	items map[itemKey]models.ReviewItem
	now   func() time.Time
}

func NewMemoryReviewItems() *MemoryReviewItems {
	return &MemoryReviewItems{
		items: make(map[itemKey]models.ReviewItem),
		now:   time.Now,
	}
}

func (m *MemoryReviewItems) ListByUser(_ context.Context, userID int64, kind models.ScopeKind) ([]models.ReviewItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ReviewItem
	for k, item := range m.items {
		if k.userID == userID && item.ScopeKind == kind {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].DueAt.Before(out[j].DueAt)
		}
		return out[i].Key().Less(out[j].Key())
	})
	return out, nil
}

func (m *MemoryReviewItems) Get(_ context.Context, userID int64, key models.AyahKey) (*models.ReviewItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[itemKey{userID: userID, key: key}]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *MemoryReviewItems) Upsert(_ context.Context, item *models.ReviewItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := itemKey{userID: item.UserID, key: item.Key()}
	now := m.now().UTC()
	if existing, ok := m.items[k]; ok {
		item.CreatedAt = existing.CreatedAt
	} else if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	m.items[k] = *item
	return nil
}

func (m *MemoryReviewItems) DeleteByUser(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.items {
		if k.userID == userID {
			delete(m.items, k)
		}
	}
	return nil
}

type logKey struct {
	userID int64
	date   string
	key    models.AyahKey
}

// MemoryDailyLogs is a simple in-process daily log store for local/dev use.
type MemoryDailyLogs struct {
	mu   sync.RWMutex
	logs map[logKey]int
}

func NewMemoryDailyLogs() *MemoryDailyLogs {
	return &MemoryDailyLogs{logs: make(map[logKey]int)}
}

func (m *MemoryDailyLogs) Increment(_ context.Context, userID int64, date string, key models.AyahKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[logKey{userID: userID, date: date, key: key}]++
	return nil
}

func (m *MemoryDailyLogs) ListByUser(ctx context.Context, userID int64) ([]models.DailyLogEntry, error) {
	return m.ListByUserAndDateRange(ctx, userID, "", "")
}

// ListByUserAndDateRange treats an empty bound as open.
func (m *MemoryDailyLogs) ListByUserAndDateRange(_ context.Context, userID int64, from, to string) ([]models.DailyLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.DailyLogEntry
	for k, count := range m.logs {
		if k.userID != userID {
			continue
		}
		if (from != "" && k.date < from) || (to != "" && k.date > to) {
			continue
		}
		out = append(out, models.DailyLogEntry{
			UserID: userID,
			Date:   k.date,
			Surah:  k.key.Surah,
			Ayah:   k.key.Ayah,
			Count:  count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Key().Less(out[j].Key())
	})
	return out, nil
}

func (m *MemoryDailyLogs) DeleteByUser(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.logs {
		if k.userID == userID {
			delete(m.logs, k)
		}
	}
	return nil
}
