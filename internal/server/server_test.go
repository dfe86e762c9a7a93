package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cartera-ar/cartera/internal/database"
	testhelpers "github.com/cartera-ar/cartera/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingModule struct{}

func (pingModule) RegisterRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type signalJob struct {
	done chan struct{}
}

func (j *signalJob) Name() string { return "signal" }

func (j *signalJob) Run() error {
	close(j.done)
	return nil
}

func newTestServer(t *testing.T, system *SystemHandlers) http.Handler {
	t.Helper()
	return New(Config{
		Log:     zerolog.Nop(),
		Port:    0,
		DevMode: true,
		System:  system,
		Modules: []RouteRegistrar{pingModule{}},
	}).Handler()
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}

func TestModulesMountedUnderAPI(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	newTestServer(t, nil).ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSystemStatus(t *testing.T) {
	ledger := testhelpers.NewTestDB(t, "ledger")
	system := NewSystemHandlers([]*database.DB{ledger}, failingPinger{}, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	newTestServer(t, system).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "degraded", got.Status)
	require.Len(t, got.Databases, 1)
	assert.Equal(t, "ledger", got.Databases[0].Name)
	assert.True(t, got.Databases[0].Healthy)
	require.NotNil(t, got.Postgres)
	assert.False(t, got.Postgres.Healthy)
}

func TestTriggerJob(t *testing.T) {
	system := NewSystemHandlers(nil, nil, nil, zerolog.Nop())
	job := &signalJob{done: make(chan struct{})}
	system.RegisterJob(job)
	handler := newTestServer(t, system)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs/signal", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-job.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/", nil))
	assert.Contains(t, rec.Body.String(), `"signal"`)
}
