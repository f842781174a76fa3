package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/example/hifzbot/internal/config"
	"github.com/example/hifzbot/internal/corpus"
	"github.com/example/hifzbot/internal/logger"
	"github.com/example/hifzbot/internal/observability"
	"github.com/example/hifzbot/internal/review"
	"github.com/example/hifzbot/internal/session"
	"github.com/example/hifzbot/internal/store"
	"github.com/example/hifzbot/pkg/models"
)

type brokenItems struct{ store.ReviewItems }

func (brokenItems) Get(context.Context, int64, models.AyahKey) (*models.ReviewItem, error) {
	return nil, errors.New("connection reset")
}

type failingIncrement struct{ store.DailyLogs }

func (failingIncrement) Increment(context.Context, int64, string, models.AyahKey) error {
	return errors.New("disk full")
}

func newTestServer(t *testing.T, items store.ReviewItems) *httptest.Server {
	t.Helper()
	return newTestServerWithLogs(t, items, store.NewMemoryDailyLogs())
}

func newTestServerWithLogs(t *testing.T, items store.ReviewItems, logs store.DailyLogs) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg, "test")
	svc := review.NewService(corpus.NewQuran(), items, logs, logger.NewNop(), metrics,
		review.WithRand(rand.New(rand.NewSource(1))))

	cfg := config.Config{DefaultTimezone: time.UTC, SessionSize: 3, ContextBefore: 1, ContextAfter: 1}
	ts := httptest.NewServer(New(cfg, svc, reg, logger.NewNop()).Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func TestStartSessionUsesDefaults(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryReviewItems())

	res := postJSON(t, ts.URL+"/v1/users/7/sessions", map[string]any{
		"scope": map[string]any{"kind": "surah", "ids": []int{112}},
		"mode":  "page",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	sess := decode[session.Session](t, res)
	require.Equal(t, int64(7), sess.UserID)
	require.Equal(t, session.ModePage, sess.Mode)
	require.Len(t, sess.Items, 3) // Al-Ikhlas has 4 ayahs, the last is never a prompt
	for _, item := range sess.Items {
		require.Len(t, item.After, 1)
	}
}

func TestStartSessionErrors(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryReviewItems())

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"bad user id", "/v1/users/abc/sessions", map[string]any{}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown juz", "/v1/users/1/sessions", map[string]any{"scope": map[string]any{"kind": "juz", "ids": []int{31}}}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"empty scope", "/v1/users/1/sessions", map[string]any{"scope": map[string]any{"kind": "surah", "ids": []int{}}}, http.StatusUnprocessableEntity, "SCOPE_EMPTY"},
		{"negative count", "/v1/users/1/sessions", map[string]any{"scope": map[string]any{"kind": "surah", "ids": []int{1}}, "count": -1}, http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := postJSON(t, ts.URL+tc.path, tc.body)
			require.Equal(t, tc.status, res.StatusCode)
			require.Equal(t, tc.code, decode[errorResponse](t, res).Code)
		})
	}
}

func TestGradeStatsAndReset(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryReviewItems())

	res := postJSON(t, ts.URL+"/v1/users/5/grades", map[string]any{
		"surah": 2, "ayah": 255, "quality": "success", "scope_kind": "juz",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	item := decode[review.GradeResult](t, res)
	require.Equal(t, 1, item.Interval)
	require.Equal(t, 1, item.Repetitions)
	require.True(t, item.LogRecorded)

	statsRes, err := http.Get(ts.URL + "/v1/users/5/stats?tz=Asia/Jakarta")
	require.NoError(t, err)
	defer statsRes.Body.Close()
	require.Equal(t, http.StatusOK, statsRes.StatusCode)
	stats := decode[models.Stats](t, statsRes)
	require.Equal(t, 1, stats.TrackedCount)
	require.Equal(t, 1, stats.TotalReviewedCount)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/users/5/data", nil)
	require.NoError(t, err)
	delRes, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delRes.Body.Close()
	require.Equal(t, http.StatusNoContent, delRes.StatusCode)

	statsRes, err = http.Get(ts.URL + "/v1/users/5/stats")
	require.NoError(t, err)
	defer statsRes.Body.Close()
	require.Zero(t, decode[models.Stats](t, statsRes).TrackedCount)
}

func TestGradeValidation(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryReviewItems())

	res := postJSON(t, ts.URL+"/v1/users/5/grades", map[string]any{"surah": 1, "ayah": 1, "scope_kind": "juz"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = postJSON(t, ts.URL+"/v1/users/5/grades", map[string]any{"surah": 1, "ayah": 1, "quality": "maybe"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/users/5/stats", nil)
	require.NoError(t, err)
	req.Header.Set("X-Timezone", "Nowhere/Land")
	bad, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer bad.Body.Close()
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestGradeStoreUnavailable(t *testing.T) {
	ts := newTestServer(t, brokenItems{store.NewMemoryReviewItems()})

	res := postJSON(t, ts.URL+"/v1/users/5/grades", map[string]any{
		"surah": 1, "ayah": 1, "quality": "failure", "scope_kind": "surah",
	})
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	require.Equal(t, "STORE_UNAVAILABLE", decode[errorResponse](t, res).Code)
}

func TestGradeReportsUnrecordedLog(t *testing.T) {
	ts := newTestServerWithLogs(t, store.NewMemoryReviewItems(), failingIncrement{store.NewMemoryDailyLogs()})

	res := postJSON(t, ts.URL+"/v1/users/5/grades", map[string]any{
		"surah": 1, "ayah": 1, "quality": "success", "scope_kind": "surah",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, false, body["log_recorded"])
	require.Equal(t, []any{review.WarningLogNotRecorded}, body["warnings"])
	require.EqualValues(t, 1, body["repetitions"])
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryReviewItems())

	res := postJSON(t, ts.URL+"/v1/users/1/grades", map[string]any{
		"surah": 1, "ayah": 1, "quality": "success", "scope_kind": "surah",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)

	metrics, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(metrics.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(buf.String(), "test_grades_total"), buf.String())
}
