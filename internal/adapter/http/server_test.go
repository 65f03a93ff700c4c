package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/observed-deaths-etl/internal/adapter/http"
	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
)

type mockRuns struct {
	err  error
	last *domain.RunReport
}

func (m *mockRuns) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockRuns) LastRun() (domain.RunReport, bool) {
	if m.last == nil {
		return domain.RunReport{}, false
	}
	return *m.last, true
}

func newTestServer(runs *mockRuns) *httpadapter.Server {
	return httpadapter.NewServer(":0", runs, slog.Default())
}

func serve(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{err: fmt.Errorf("no run yet")}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no run yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLastRunReturns404BeforeFirstRun(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/runs/last")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLastRunReturnsReport(t *testing.T) {
	last := &domain.RunReport{
		RunID:        "20240601T120000Z-1",
		StartedAt:    time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
		Rows:         1200,
		Regions:      54,
		Rendered:     53,
		Skipped:      map[string]string{"Guam": "too_few_points"},
		LastGoodDate: time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC),
		Total:        &domain.RankEntry{Region: "United States", Value: 1100000, Count: 1100000},
	}
	rec := serve(newTestServer(&mockRuns{last: last}), "/runs/last")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got domain.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, last.RunID, got.RunID)
	assert.Equal(t, 53, got.Rendered)
	assert.Equal(t, "too_few_points", got.Skipped["Guam"])
	assert.True(t, last.LastGoodDate.Equal(got.LastGoodDate))
	require.NotNil(t, got.Total)
	assert.Equal(t, "United States", got.Total.Region)
}

func TestLastRunRejectsPost(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&mockRuns{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs/last", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
