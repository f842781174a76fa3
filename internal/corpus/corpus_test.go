package corpus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	apperr "github.com/example/hifzbot/internal/errors"
	"github.com/example/hifzbot/pkg/models"
)

func TestMetadataTotals(t *testing.T) {
	total := 0
	for _, n := range surahLengths {
		total += n
	}
	require.Equal(t, AyahCount, total)
}

func TestResolve_Surah(t *testing.T) {
	q := NewQuran()

	ayahs, err := q.Resolve(models.Scope{Kind: models.ScopeSurah, IDs: []int{1}})
	require.NoError(t, err)
	require.Len(t, ayahs, 7)
	require.Equal(t, models.AyahKey{Surah: 1, Ayah: 1}, ayahs[0].Key)
	require.Equal(t, models.AyahKey{Surah: 1, Ayah: 7}, ayahs[6].Key)
	require.Equal(t, 1, ayahs[0].Juz)
}

func TestResolve_JuzBoundaries(t *testing.T) {
	q := NewQuran()

	first, err := q.Resolve(models.Scope{Kind: models.ScopeJuz, IDs: []int{1}})
	require.NoError(t, err)
	require.Len(t, first, 148)
	require.Equal(t, models.AyahKey{Surah: 2, Ayah: 141}, first[len(first)-1].Key)

	last, err := q.Resolve(models.Scope{Kind: models.ScopeJuz, IDs: []int{30}})
	require.NoError(t, err)
	require.Len(t, last, 564)
	require.Equal(t, models.AyahKey{Surah: 78, Ayah: 1}, last[0].Key)
	require.Equal(t, models.AyahKey{Surah: 114, Ayah: 6}, last[len(last)-1].Key)
}

func TestResolve_AllJuzCoverMushaf(t *testing.T) {
	q := NewQuran()
	ids := make([]int, 0, JuzCount)
	for i := JuzCount; i >= 1; i-- {
		ids = append(ids, i, i)
	}

	ayahs, err := q.Resolve(models.Scope{Kind: models.ScopeJuz, IDs: ids})
	require.NoError(t, err)
	require.Len(t, ayahs, AyahCount)
	for i := 1; i < len(ayahs); i++ {
		require.True(t, ayahs[i-1].Key.Less(ayahs[i].Key), "order broken at %s", ayahs[i].Key)
	}
}

func TestResolve_Invalid(t *testing.T) {
	q := NewQuran()

	_, err := q.Resolve(models.Scope{Kind: models.ScopeJuz, IDs: []int{31}})
	require.True(t, apperr.Is(err, apperr.ErrInvalidRequest))

	_, err = q.Resolve(models.Scope{Kind: models.ScopeSurah, IDs: []int{0}})
	require.True(t, apperr.Is(err, apperr.ErrInvalidRequest))

	_, err = q.Resolve(models.Scope{Kind: "page", IDs: []int{1}})
	require.True(t, apperr.Is(err, apperr.ErrInvalidRequest))

	ayahs, err := q.Resolve(models.Scope{Kind: models.ScopeSurah})
	require.NoError(t, err)
	require.Empty(t, ayahs)
}

func TestJuzOf(t *testing.T) {
	tests := []struct {
		key  models.AyahKey
		want int
	}{
		{models.AyahKey{Surah: 1, Ayah: 1}, 1},
		{models.AyahKey{Surah: 2, Ayah: 141}, 1},
		{models.AyahKey{Surah: 2, Ayah: 142}, 2},
		{models.AyahKey{Surah: 2, Ayah: 255}, 3},
		{models.AyahKey{Surah: 18, Ayah: 74}, 15},
		{models.AyahKey{Surah: 18, Ayah: 75}, 16},
		{models.AyahKey{Surah: 114, Ayah: 6}, 30},
		{models.AyahKey{Surah: 114, Ayah: 7}, 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, JuzOf(tt.key), tt.key.String())
	}
}

func TestChapterBoundaries(t *testing.T) {
	q := NewQuran()

	n, err := q.ChapterLength(2)
	require.NoError(t, err)
	require.Equal(t, 286, n)

	_, err = q.ChapterLength(115)
	require.True(t, apperr.Is(err, apperr.ErrCorpusLookup))

	require.True(t, q.IsLastInChapter(models.AyahKey{Surah: 1, Ayah: 7}))
	require.False(t, q.IsLastInChapter(models.AyahKey{Surah: 1, Ayah: 6}))
	require.False(t, q.IsLastInChapter(models.AyahKey{Surah: 1, Ayah: 8}))
}

type fakeSource struct {
	ayahs []models.Ayah
	err   error
}

func (f fakeSource) ListAll(context.Context) ([]models.Ayah, error) {
	return f.ayahs, f.err
}

func TestLoadText(t *testing.T) {
	q := NewQuran()
	src := fakeSource{ayahs: []models.Ayah{
		{Key: models.AyahKey{Surah: 1, Ayah: 1}, Text: "bismillah", Translation: "In the name of Allah"},
		{Key: models.AyahKey{Surah: 1, Ayah: 99}, Text: "ignored"},
	}}

	n, err := q.LoadText(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	a, err := q.Ayah(models.AyahKey{Surah: 1, Ayah: 1})
	require.NoError(t, err)
	require.Equal(t, "bismillah", a.Text)
	require.Equal(t, 1, a.Juz)

	_, err = q.Ayah(models.AyahKey{Surah: 1, Ayah: 99})
	require.True(t, apperr.Is(err, apperr.ErrCorpusLookup))

	_, err = q.LoadText(context.Background(), fakeSource{err: errors.New("db down")})
	require.Error(t, err)
}
