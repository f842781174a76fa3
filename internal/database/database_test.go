package database

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/example/hifzbot/internal/config"
	"github.com/example/hifzbot/pkg/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(config.Database{Type: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConnectRejectsUnknownType(t *testing.T) {
	_, err := Connect(config.Database{Type: "oracle"})
	require.Error(t, err)
}

func TestConnectCreatesSQLiteFile(t *testing.T) {
	path := t.TempDir() + "/nested/hifz.db"
	db, err := Connect(config.Database{Type: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	defer db.Close()

	// Schema creation is idempotent
	require.NoError(t, initializeSchema(db))
}

func TestReviewItemRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewReviewItemRepository(newTestDB(t))
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	missing, err := repo.Get(ctx, 1, models.AyahKey{Surah: 2, Ayah: 3})
	require.NoError(t, err)
	require.Nil(t, missing)

	first := &models.ReviewItem{
		UserID: 1, Surah: 2, Ayah: 3, ScopeKind: models.ScopeJuz,
		Interval: 1, Repetitions: 1, EaseFactor: 2.6,
		LastReviewedAt: now, DueAt: now.AddDate(0, 0, 1),
	}
	require.NoError(t, repo.Upsert(ctx, first))
	created := first.CreatedAt
	require.False(t, created.IsZero())

	second := &models.ReviewItem{
		UserID: 1, Surah: 1, Ayah: 1, ScopeKind: models.ScopeJuz,
		Interval: 6, Repetitions: 2, EaseFactor: 2.7,
		LastReviewedAt: now, DueAt: now.AddDate(0, 0, 6),
	}
	require.NoError(t, repo.Upsert(ctx, second))
	require.NoError(t, repo.Upsert(ctx, &models.ReviewItem{
		UserID: 1, Surah: 67, Ayah: 1, ScopeKind: models.ScopeSurah,
		Interval: 1, EaseFactor: 2.3, LastReviewedAt: now, DueAt: now,
	}))

	// Replacing keeps a single row and the original creation time
	updated := *first
	updated.CreatedAt = time.Time{}
	updated.Interval = 6
	updated.Repetitions = 2
	updated.DueAt = now.AddDate(0, 0, 6)
	require.NoError(t, repo.Upsert(ctx, &updated))
	require.True(t, created.Equal(updated.CreatedAt))

	got, err := repo.Get(ctx, 1, models.AyahKey{Surah: 2, Ayah: 3})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 6, got.Interval)
	require.Equal(t, 2, got.Repetitions)
	require.InDelta(t, 2.6, got.EaseFactor, 1e-9)
	require.True(t, now.AddDate(0, 0, 6).Equal(got.DueAt))

	juz, err := repo.ListByUser(ctx, 1, models.ScopeJuz)
	require.NoError(t, err)
	require.Len(t, juz, 2)
	require.Equal(t, models.AyahKey{Surah: 1, Ayah: 1}, juz[0].Key())

	surah, err := repo.ListByUser(ctx, 1, models.ScopeSurah)
	require.NoError(t, err)
	require.Len(t, surah, 1)

	other, err := repo.ListByUser(ctx, 2, models.ScopeJuz)
	require.NoError(t, err)
	require.Empty(t, other)

	require.NoError(t, repo.DeleteByUser(ctx, 1))
	juz, err = repo.ListByUser(ctx, 1, models.ScopeJuz)
	require.NoError(t, err)
	require.Empty(t, juz)
}

func TestDailyLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDailyLogRepository(newTestDB(t))
	key := models.AyahKey{Surah: 2, Ayah: 3}

	require.NoError(t, repo.Increment(ctx, 1, "2024-03-09", key))
	require.NoError(t, repo.Increment(ctx, 1, "2024-03-10", key))
	require.NoError(t, repo.Increment(ctx, 1, "2024-03-10", key))
	require.NoError(t, repo.Increment(ctx, 1, "2024-03-10", models.AyahKey{Surah: 1, Ayah: 1}))
	require.NoError(t, repo.Increment(ctx, 2, "2024-03-10", key))

	all, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "2024-03-09", all[0].Date)
	require.Equal(t, 1, all[0].Count)
	require.Equal(t, models.AyahKey{Surah: 2, Ayah: 3}, all[2].Key())
	require.Equal(t, 2, all[2].Count)

	ranged, err := repo.ListByUserAndDateRange(ctx, 1, "2024-03-10", "2024-03-10")
	require.NoError(t, err)
	require.Len(t, ranged, 2)

	require.NoError(t, repo.DeleteByUser(ctx, 1))
	all, err = repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, all)

	others, err := repo.ListByUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, others, 1)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.GetByID(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)

	user := &models.User{
		ID: 42, Username: "hafiz", FirstName: "Aisha",
		ScopeKind: models.ScopeJuz, ScopeIDs: []int{29, 30},
		SessionSize: 10, ContextBefore: 1, ContextAfter: 2,
		Timezone: "Asia/Jakarta", NotificationEnabled: true, NotificationHour: 7,
	}
	require.NoError(t, repo.Create(ctx, user))
	require.NoError(t, repo.Create(ctx, &models.User{ID: 7, ScopeKind: models.ScopeSurah, ScopeIDs: []int{67}}))

	got, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, []int{29, 30}, got.ScopeIDs)
	require.Equal(t, models.ScopeJuz, got.ScopeKind)
	require.Equal(t, 2, got.ContextAfter)
	require.True(t, got.NotificationEnabled)

	got.ScopeKind = models.ScopeSurah
	got.ScopeIDs = []int{36}
	got.NotificationEnabled = false
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.GetByID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, models.Scope{Kind: models.ScopeSurah, IDs: []int{36}}, got.Scope())
	require.False(t, got.NotificationEnabled)

	require.ErrorIs(t, repo.Update(ctx, &models.User{ID: 99}), ErrNotFound)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	notify, err := repo.GetUsersForNotification(ctx)
	require.NoError(t, err)
	require.Empty(t, notify)

	require.NoError(t, repo.Delete(ctx, 42))
	_, err = repo.GetByID(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAyahRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAyahRepository(newTestDB(t))

	require.NoError(t, repo.Upsert(ctx, models.Ayah{Key: models.AyahKey{Surah: 1, Ayah: 2}, Text: "old"}))
	require.NoError(t, repo.Upsert(ctx, models.Ayah{Key: models.AyahKey{Surah: 1, Ayah: 1}, Text: "first"}))
	require.NoError(t, repo.Upsert(ctx, models.Ayah{Key: models.AyahKey{Surah: 1, Ayah: 2}, Text: "new", Translation: "praise"}))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	ayahs, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, ayahs, 2)
	require.Equal(t, "first", ayahs[0].Text)
	require.Equal(t, "new", ayahs[1].Text)
	require.Equal(t, "praise", ayahs[1].Translation)
}
