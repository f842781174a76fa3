package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/hifzbot/pkg/models"
)

func TestMemoryReviewItems_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryReviewItems()
	key := models.AyahKey{Surah: 2, Ayah: 255}

	got, err := s.Get(ctx, 1, key)
	require.NoError(t, err)
	require.Nil(t, got)

	due := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	item := &models.ReviewItem{UserID: 1, Surah: 2, Ayah: 255, ScopeKind: models.ScopeJuz, Interval: 1, DueAt: due}
	require.NoError(t, s.Upsert(ctx, item))
	created := item.CreatedAt
	require.False(t, created.IsZero())

	item.Interval = 6
	require.NoError(t, s.Upsert(ctx, item))
	require.Equal(t, created, item.CreatedAt)

	got, err = s.Get(ctx, 1, key)
	require.NoError(t, err)
	require.Equal(t, 6, got.Interval)

	// Other users do not see the item
	got, err = s.Get(ctx, 2, key)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMemoryReviewItems_ListByUserFiltersKind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryReviewItems()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Upsert(ctx, &models.ReviewItem{UserID: 1, Surah: 1, Ayah: 2, ScopeKind: models.ScopeSurah, DueAt: base.AddDate(0, 0, 2)}))
	require.NoError(t, s.Upsert(ctx, &models.ReviewItem{UserID: 1, Surah: 1, Ayah: 1, ScopeKind: models.ScopeSurah, DueAt: base}))
	require.NoError(t, s.Upsert(ctx, &models.ReviewItem{UserID: 1, Surah: 1, Ayah: 3, ScopeKind: models.ScopeJuz, DueAt: base}))
	require.NoError(t, s.Upsert(ctx, &models.ReviewItem{UserID: 2, Surah: 1, Ayah: 4, ScopeKind: models.ScopeSurah, DueAt: base}))

	items, err := s.ListByUser(ctx, 1, models.ScopeSurah)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 1, items[0].Ayah)
	require.Equal(t, 2, items[1].Ayah)

	require.NoError(t, s.DeleteByUser(ctx, 1))
	items, err = s.ListByUser(ctx, 1, models.ScopeSurah)
	require.NoError(t, err)
	require.Empty(t, items)
	items, err = s.ListByUser(ctx, 2, models.ScopeSurah)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestMemoryDailyLogs_Increment(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDailyLogs()
	key := models.AyahKey{Surah: 1, Ayah: 1}

	require.NoError(t, s.Increment(ctx, 1, "2025-01-01", key))
	require.NoError(t, s.Increment(ctx, 1, "2025-01-01", key))
	require.NoError(t, s.Increment(ctx, 1, "2025-01-02", key))
	require.NoError(t, s.Increment(ctx, 2, "2025-01-02", key))

	entries, err := s.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "2025-01-01", entries[0].Date)
	require.Equal(t, 2, entries[0].Count)
	require.Equal(t, 1, entries[1].Count)

	ranged, err := s.ListByUserAndDateRange(ctx, 1, "2025-01-02", "2025-01-31")
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	require.Equal(t, "2025-01-02", ranged[0].Date)
}

func TestMemoryDailyLogs_ConcurrentIncrement(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDailyLogs()
	key := models.AyahKey{Surah: 112, Ayah: 1}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Increment(ctx, 9, "2025-05-05", key)
		}()
	}
	wg.Wait()

	entries, err := s.ListByUser(ctx, 9)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 50, entries[0].Count)
}
