package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/scheduler"
)

func newTestServer(t *testing.T, cycle scheduler.CycleFunc, started bool) *Server {
	t.Helper()

	w := scheduler.NewWorker(cycle, time.Hour, time.Minute, logger.NewTestLogger())
	if started {
		require.NoError(t, w.Start())
		t.Cleanup(w.Stop)
	}
	return New(":0", w, logger.NewTestLogger())
}

func TestHealthWhileRunning(t *testing.T) {
	s := newTestServer(t, func() (int, error) { return 0, nil }, true)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHealthWhenStopped(t *testing.T) {
	s := newTestServer(t, func() (int, error) { return 0, nil }, false)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t, func() (int, error) { return 5, nil }, false)

	_, err := s.worker.TriggerNow()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status scheduler.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 5, status.LastForwarded)
	assert.False(t, status.Alive)
}

func TestCheckTriggersCycle(t *testing.T) {
	ran := 0
	s := newTestServer(t, func() (int, error) {
		ran++
		return 2, nil
	}, false)

	rec := httptest.NewRecorder()
	s.handleCheck(rec, httptest.NewRequest(http.MethodPost, "/check", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ran)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["forwarded"])
	assert.NotContains(t, resp, "error")
}

func TestCheckReportsCycleError(t *testing.T) {
	s := newTestServer(t, func() (int, error) {
		return 0, fmt.Errorf("upstream down")
	}, false)

	rec := httptest.NewRecorder()
	s.handleCheck(rec, httptest.NewRequest(http.MethodPost, "/check", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "upstream down", resp["error"])
}

func TestCheckRejectsGet(t *testing.T) {
	s := newTestServer(t, func() (int, error) { return 0, nil }, false)

	rec := httptest.NewRecorder()
	s.handleCheck(rec, httptest.NewRequest(http.MethodGet, "/check", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
