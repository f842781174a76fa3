package corpus

import (
	"context"
	"fmt"
	"sort"
	"sync"

	apperr "github.com/example/hifzbot/internal/errors"
	"github.com/example/hifzbot/pkg/models"
)

// Corpus is the read-only content the review core schedules over
type Corpus interface {
	// Resolve returns the ayahs of scope in mushaf order
	Resolve(scope models.Scope) ([]models.Ayah, error)
	// ChapterLength returns the number of ayahs in a surah
	ChapterLength(surah int) (int, error)
	// IsLastInChapter reports whether key is the final ayah of its surah
	IsLastInChapter(key models.AyahKey) bool
	// Ayah returns a single ayah with its text
	Ayah(key models.AyahKey) (models.Ayah, error)
}

// AyahSource supplies imported ayah text
type AyahSource interface {
	ListAll(ctx context.Context) ([]models.Ayah, error)
}

// Quran is the static corpus built from compiled-in surah and juz boundaries.
// Text is optional and attached with LoadText.
type Quran struct {
	mu    sync.RWMutex
	texts map[models.AyahKey]models.Ayah
}

// NewQuran creates a corpus without ayah text
func NewQuran() *Quran {
	return &Quran{texts: make(map[models.AyahKey]models.Ayah)}
}

// LoadText attaches text and translations from src, returning how many ayahs were loaded
func (q *Quran) LoadText(ctx context.Context, src AyahSource) (int, error) {
	ayahs, err := src.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load ayah text: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	loaded := 0
	for _, a := range ayahs {
		if !ValidKey(a.Key) {
			continue
		}
		q.texts[a.Key] = a
		loaded++
	}
	return loaded, nil
}

// Resolve implements Corpus
func (q *Quran) Resolve(scope models.Scope) ([]models.Ayah, error) {
	if !scope.Kind.Valid() {
		return nil, apperr.NewInvalidRequest(fmt.Sprintf("unknown scope kind %q", scope.Kind))
	}

	ids := dedupeSorted(scope.IDs)
	limit := SurahCount
	if scope.Kind == models.ScopeJuz {
		limit = JuzCount
	}
	for _, id := range ids {
		if id < 1 || id > limit {
			return nil, apperr.NewInvalidRequest(fmt.Sprintf("%s %d out of range 1-%d", scope.Kind, id, limit))
		}
	}

	var out []models.Ayah
	for _, id := range ids {
		var from, to models.AyahKey
		if scope.Kind == models.ScopeSurah {
			from = models.AyahKey{Surah: id, Ayah: 1}
			to = models.AyahKey{Surah: id, Ayah: surahLengths[id-1]}
		} else {
			from = juzStarts[id-1]
			to = models.AyahKey{Surah: SurahCount, Ayah: surahLengths[SurahCount-1]}
			if id < JuzCount {
				to = prev(juzStarts[id])
			}
		}
		for key, ok := from, true; ok; key, ok = next(key) {
			out = append(out, q.ayah(key))
			if key == to {
				break
			}
		}
	}
	return out, nil
}

// ChapterLength implements Corpus
func (q *Quran) ChapterLength(surah int) (int, error) {
	if surah < 1 || surah > SurahCount {
		return 0, apperr.NewCorpusLookup(fmt.Sprintf("surah %d", surah), nil)
	}
	return surahLengths[surah-1], nil
}

// IsLastInChapter implements Corpus
func (q *Quran) IsLastInChapter(key models.AyahKey) bool {
	return ValidKey(key) && key.Ayah == surahLengths[key.Surah-1]
}

// Ayah implements Corpus
func (q *Quran) Ayah(key models.AyahKey) (models.Ayah, error) {
	if !ValidKey(key) {
		return models.Ayah{}, apperr.NewCorpusLookup(key.String(), nil)
	}
	return q.ayah(key), nil
}

func (q *Quran) ayah(key models.AyahKey) models.Ayah {
	q.mu.RLock()
	a, ok := q.texts[key]
	q.mu.RUnlock()
	if !ok {
		a = models.Ayah{Key: key}
	}
	a.Juz = JuzOf(key)
	return a
}

// prev returns the ayah before key; key must not be 1:1
func prev(key models.AyahKey) models.AyahKey {
	if key.Ayah > 1 {
		return models.AyahKey{Surah: key.Surah, Ayah: key.Ayah - 1}
	}
	return models.AyahKey{Surah: key.Surah - 1, Ayah: surahLengths[key.Surah-2]}
}

func dedupeSorted(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
