package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/randomoranges/can-do/internal/domain"
	"github.com/randomoranges/can-do/internal/engine"
	"github.com/randomoranges/can-do/internal/llm"
	"github.com/randomoranges/can-do/internal/store"
)

type stubGen struct{}

func (stubGen) Generate(context.Context, string, domain.UserContext) (llm.Message, error) {
	return llm.Message{Subject: "📋 subject", Body: "body — Happy", Source: llm.SourceJSON}, nil
}

type stubSender struct{}

func (stubSender) Send(context.Context, string, string, string) error { return nil }

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "happy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	a := &App{log: zap.NewNop()}
	eng := engine.New(repo, stubGen{}, stubSender{}, "America/New_York", a.log)
	return a.jobsHandler(eng)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestJobsHandler_ScheduledOK(t *testing.T) {
	rec := post(newTestHandler(t), `{"job_type": "morning"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())
}

func TestJobsHandler_EventForUnknownUserStillOK(t *testing.T) {
	// Per-user problems never change the invocation response.
	rec := post(newTestHandler(t), `{"job_type": "celebration", "user_id": "ghost"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())
}

func TestJobsHandler_MalformedPayload(t *testing.T) {
	rec := post(newTestHandler(t), `{"job_type": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestJobsHandler_UnknownJobType(t *testing.T) {
	rec := post(newTestHandler(t), `{"job_type": "lunchtime"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown job type")
}

func TestJobsHandler_EventModeRequiresCelebration(t *testing.T) {
	rec := post(newTestHandler(t), `{"job_type": "morning", "user_id": "u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobsHandler_CORSPreflight(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodOptions, "/jobs", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestJobsHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
