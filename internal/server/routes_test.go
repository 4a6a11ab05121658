package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/copilotpulse/internal/model"
)

func newLoadedService(t *testing.T) (*Service, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := New(Config{Load: staticLoader(testSources()...)})
	require.NoError(t, s.Reload(context.Background()))
	return s, s.Router()
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	_, h := newLoadedService(t)
	w := do(t, h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok\n", w.Body.String())
}

func TestSummaryRoute(t *testing.T) {
	_, h := newLoadedService(t)

	got := decodeBody[model.SummaryStats](t, do(t, h, http.MethodGet, "/v1/summary"))
	assert.Equal(t, 2, got.Users)
	assert.Equal(t, int64(60), got.Generations)

	got = decodeBody[model.SummaryStats](t, do(t, h, http.MethodGet, "/v1/summary?users=bob"))
	assert.Equal(t, 1, got.Users)
	assert.Equal(t, int64(20), got.Generations)

	got = decodeBody[model.SummaryStats](t, do(t, h, http.MethodGet, "/v1/summary?from=2025-01-02"))
	assert.Equal(t, int64(30), got.Generations)
}

func TestUsersRoute(t *testing.T) {
	_, h := newLoadedService(t)

	got := decodeBody[[]model.UserStats](t, do(t, h, http.MethodGet, "/v1/users"))
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].User)
	assert.Equal(t, int64(40), got[0].Generations)
	assert.Equal(t, 2, got[0].ActiveDays)

	got = decodeBody[[]model.UserStats](t, do(t, h, http.MethodGet, "/v1/users?limit=1"))
	assert.Len(t, got, 1)

	w := do(t, h, http.MethodGet, "/v1/users?limit=many")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsAndAdoptionRoutes(t *testing.T) {
	_, h := newLoadedService(t)

	stats := decodeBody[model.MergeStats](t, do(t, h, http.MethodGet, "/v1/stats"))
	assert.Equal(t, 3, stats.TotalRecords)
	require.NotNil(t, stats.DateRange)
	assert.Equal(t, "2025-01-01", stats.DateRange.Start)

	adoption := decodeBody[model.AdoptionStats](t, do(t, h, http.MethodGet, "/v1/adoption"))
	assert.Equal(t, 2, adoption.TotalUsers)
	assert.Equal(t, 1, adoption.Chat)
}

func TestLanguagesRoute(t *testing.T) {
	_, h := newLoadedService(t)

	got := decodeBody[[]model.LanguageStats](t, do(t, h, http.MethodGet, "/v1/languages/acceptance"))
	require.Len(t, got, 1)
	assert.Equal(t, "go", got[0].Language)

	got = decodeBody[[]model.LanguageStats](t, do(t, h, http.MethodGet, "/v1/languages/acceptance?min_generations=1000"))
	assert.Empty(t, got)
}

func TestDetailRoute(t *testing.T) {
	_, h := newLoadedService(t)

	rows := decodeBody[[]model.DetailRow](t, do(t, h, http.MethodGet, "/v1/detail?sort=user"))
	require.Len(t, rows, 3)
	assert.Equal(t, "alice", rows[0].User)
	assert.Equal(t, "2025-01-02", rows[0].Day)

	rows = decodeBody[[]model.DetailRow](t, do(t, h, http.MethodGet, "/v1/detail?from=2025-01-02&to=2025-01-02"))
	assert.Len(t, rows, 1)

	w := do(t, h, http.MethodGet, "/v1/detail?sort=sideways")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReloadRoute(t *testing.T) {
	s, h := newLoadedService(t)
	w := do(t, h, http.MethodPost, "/v1/reload")
	require.Equal(t, http.StatusOK, w.Code)

	st := decodeBody[Status](t, w)
	assert.Equal(t, int64(2), st.ReloadCount)
	assert.Equal(t, float64(2), testutil.ToFloat64(s.metrics.reloads.WithLabelValues("ok")))
}

func TestMetricsRoute(t *testing.T) {
	s, h := newLoadedService(t)
	do(t, h, http.MethodGet, "/v1/summary")
	do(t, h, http.MethodGet, "/v1/summary")
	do(t, h, http.MethodGet, "/nope")

	assert.Equal(t, float64(2), testutil.ToFloat64(s.metrics.requests.WithLabelValues("/v1/summary", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.requests.WithLabelValues("unmatched", "404")))
	assert.Equal(t, float64(3), testutil.ToFloat64(s.metrics.records))

	w := do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "copilotpulse_reloads_total"))
}

func TestEventsRoute(t *testing.T) {
	_, h := newLoadedService(t)
	events := decodeBody[[]Event](t, do(t, h, http.MethodGet, "/v1/events"))
	require.Len(t, events, 1)
	assert.Equal(t, "snapshot", events[0].Type)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b,"))
	assert.Nil(t, splitList(""))
}
