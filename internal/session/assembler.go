package session

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/hifzbot/internal/corpus"
	apperr "github.com/example/hifzbot/internal/errors"
	"github.com/example/hifzbot/internal/logger"
	"github.com/example/hifzbot/internal/observability"
	"github.com/example/hifzbot/internal/store"
	"github.com/example/hifzbot/pkg/models"
)

// DegradedDueLookup marks a session built without review state
const DegradedDueLookup = "due_lookup_failed"

// Assembler selects the ayahs of a review session
type Assembler struct {
	corpus  corpus.Corpus
	items   store.ReviewItems
	log     *logger.Logger
	metrics *observability.Metrics
	now     func() time.Time

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// Option configures an Assembler
type Option func(*Assembler)

// WithRand sets the random source used to pick unseen ayahs
func WithRand(rng *rand.Rand) Option {
	return func(a *Assembler) { a.rng = rng }
}

// WithClock sets the function used to read the current time
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

func NewAssembler(c corpus.Corpus, items store.ReviewItems, log *logger.Logger, metrics *observability.Metrics, opts ...Option) *Assembler {
	a := &Assembler{
		corpus:  c,
		items:   items,
		log:     log,
		metrics: metrics,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build assembles a session for userID.
// An empty scope returns an empty session together with a SCOPE_EMPTY error.
func (a *Assembler) Build(ctx context.Context, userID int64, req Request) (*Session, error) {
	if req.Mode == "" {
		req.Mode = ModeText
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Mode:      req.Mode,
		Scope:     req.Scope,
		Items:     []Item{},
		CreatedAt: a.now(),
	}

	ayahs, err := a.corpus.Resolve(req.Scope)
	if err != nil {
		return nil, err
	}

	// The final ayah of a surah can never be a prompt: nothing follows it to recite
	candidates := make([]models.Ayah, 0, len(ayahs))
	for _, ayah := range ayahs {
		if !a.corpus.IsLastInChapter(ayah.Key) {
			candidates = append(candidates, ayah)
		}
	}
	if len(candidates) == 0 {
		return sess, apperr.NewScopeEmpty()
	}

	reviews := make(map[models.AyahKey]models.ReviewItem)
	items, err := a.items.ListByUser(ctx, userID, req.Scope.Kind)
	if err != nil {
		sess.Degraded = true
		sess.DegradedReason = DegradedDueLookup
		a.metrics.StoreError("list_review_items")
		a.metrics.SessionDegraded(DegradedDueLookup)
		a.log.Warn("review items unavailable, assembling unseen-only session",
			"user_id", userID, "scope_kind", req.Scope.Kind, "error", err)
	}
	for _, item := range items {
		reviews[item.Key()] = item
	}

	now := sess.CreatedAt
	var due []Item
	var unseen []Item
	for _, ayah := range candidates {
		review, ok := reviews[ayah.Key]
		if !ok {
			unseen = append(unseen, Item{Ayah: ayah, Status: StatusUnseen})
			continue
		}
		if review.IsDue(now) {
			r := review
			due = append(due, Item{Ayah: ayah, Status: StatusDue, Review: &r})
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Review.DueAt.Before(due[j].Review.DueAt)
	})

	if len(due) >= req.Count {
		sess.Items = due[:req.Count]
	} else {
		sess.Items = append(append([]Item{}, due...), a.pick(unseen, req.Count-len(due))...)
	}

	for i := range sess.Items {
		a.attachWindow(&sess.Items[i], req.ContextBefore, req.ContextAfter)
	}

	dueCount, unseenCount := sess.Counts()
	a.metrics.SessionStarted(string(sess.Mode), dueCount, unseenCount)
	a.log.Debug("session assembled", "user_id", userID, "session_id", sess.ID,
		"due", dueCount, "unseen", unseenCount, "degraded", sess.Degraded)
	return sess, nil
}

// pick draws n items uniformly at random without replacement
func (a *Assembler) pick(pool []Item, n int) []Item {
	if n > len(pool) {
		n = len(pool)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < n; i++ {
		j := i + a.rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

// attachWindow fills the preceding and following context of item, clipped to its surah.
// Lookup failures drop the affected window instead of failing the session.
func (a *Assembler) attachWindow(item *Item, before, after int) {
	key := item.Ayah.Key
	item.Before = []models.Ayah{}
	item.After = []models.Ayah{}

	start := key.Ayah - before
	if start < 1 {
		start = 1
	}
	if window, err := a.lookupRange(key.Surah, start, key.Ayah-1); err != nil {
		item.ContextUnavailable = true
		a.log.Warn("preceding context unavailable", "ayah", key.String(), "error", err)
	} else {
		item.Before = window
	}

	if after <= 0 {
		return
	}
	length, err := a.corpus.ChapterLength(key.Surah)
	if err != nil {
		item.ContextUnavailable = true
		a.log.Warn("following context unavailable", "ayah", key.String(), "error", err)
		return
	}
	end := key.Ayah + after
	if end > length {
		end = length
	}
	if window, err := a.lookupRange(key.Surah, key.Ayah+1, end); err != nil {
		item.ContextUnavailable = true
		a.log.Warn("following context unavailable", "ayah", key.String(), "error", err)
	} else {
		item.After = window
	}
}

func (a *Assembler) lookupRange(surah, from, to int) ([]models.Ayah, error) {
	out := []models.Ayah{}
	for n := from; n <= to; n++ {
		ayah, err := a.corpus.Ayah(models.AyahKey{Surah: surah, Ayah: n})
		if err != nil {
			return nil, err
		}
		out = append(out, ayah)
	}
	return out, nil
}

func validate(req Request) error {
	if !req.Mode.Valid() {
		return apperr.NewInvalidRequest(fmt.Sprintf("unknown presentation mode %q", req.Mode))
	}
	if req.Count <= 0 {
		return apperr.NewInvalidRequest("count must be positive")
	}
	if req.ContextBefore < 0 || req.ContextAfter < 0 {
		return apperr.NewInvalidRequest("context window sizes must not be negative")
	}
	if !req.Scope.Kind.Valid() {
		return apperr.NewInvalidRequest(fmt.Sprintf("unknown scope kind %q", req.Scope.Kind))
	}
	return nil
}
