package server_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/internal/metrics"
	"github.com/ogulcanaydogan/SafetyRing/internal/server"
	"github.com/ogulcanaydogan/SafetyRing/pkg/alertlog"
	"github.com/ogulcanaydogan/SafetyRing/pkg/channels"
	"github.com/ogulcanaydogan/SafetyRing/pkg/connectivity"
	"github.com/ogulcanaydogan/SafetyRing/pkg/engine"
	"github.com/ogulcanaydogan/SafetyRing/pkg/location"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/ogulcanaydogan/SafetyRing/pkg/queue"
	"github.com/ogulcanaydogan/SafetyRing/pkg/recipients"
	"github.com/ogulcanaydogan/SafetyRing/pkg/risk"
	"github.com/ogulcanaydogan/SafetyRing/pkg/settings"
	"github.com/ogulcanaydogan/SafetyRing/pkg/storage"
	"github.com/ogulcanaydogan/SafetyRing/pkg/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parisGeocoder struct{}

func (parisGeocoder) ReverseGeocode(context.Context, model.Coordinate) (string, error) {
	return "Paris, France", nil
}

type fixture struct {
	srv   *server.Server
	queue *queue.Queue
	log   *alertlog.Log
	probe *connectivity.Manual
}

func setupServer(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tmpl, err := templates.NewStore(ctx, store, nil, logger)
	require.NoError(t, err)
	recips, err := recipients.NewRegistry(ctx, store, logger)
	require.NoError(t, err)
	riskTracker, err := risk.NewTracker(ctx, store, logger)
	require.NoError(t, err)
	q, err := queue.New(ctx, store)
	require.NoError(t, err)
	log, err := alertlog.New(ctx, store)
	require.NoError(t, err)
	prefs, err := settings.NewStore(ctx, store, logger)
	require.NoError(t, err)

	reg := channels.NewRegistry()
	require.NoError(t, reg.Register(model.ChannelPrimary, channels.NewSMSGateway("", "")))

	loc := location.NewTracker(parisGeocoder{}, time.Minute, logger)
	probe := connectivity.NewManual(false)
	m := metrics.New()

	eng := engine.New(engine.Deps{
		Templates:    tmpl,
		Recipients:   recips,
		Risk:         riskTracker,
		Queue:        q,
		Log:          log,
		Settings:     prefs,
		Channels:     reg,
		Location:     loc,
		Connectivity: probe,
		Observer:     m,
	}, logger)
	t.Cleanup(eng.Close)

	srv := server.NewServer(server.Deps{
		Engine:   eng,
		Log:      log,
		Queue:    q,
		Risk:     riskTracker,
		Location: loc,
		Probe:    probe,
		Metrics:  m.Handler(),
	}, logger)
	return &fixture{srv: srv, queue: q, log: log, probe: probe}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	f := setupServer(t)

	w := f.do("GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
}

func TestServer_TriggerStatusCancel(t *testing.T) {
	f := setupServer(t)

	w := f.do("POST", "/api/v1/trigger?template=medical", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = f.do("GET", "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status server.StatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, engine.StateArming, status.State)
	assert.Equal(t, "medical", status.TemplateID)
	assert.Greater(t, status.RemainingSeconds, 0.0)
	assert.False(t, status.Online)

	w = f.do("POST", "/api/v1/trigger", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do("POST", "/api/v1/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do("POST", "/api/v1/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	entries := f.log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Alert cancelled by user", entries[0].Title)
}

func TestServer_TriggerMethodNotAllowed(t *testing.T) {
	f := setupServer(t)
	w := f.do("GET", "/api/v1/trigger", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_Log(t *testing.T) {
	f := setupServer(t)
	for _, title := range []string{"one", "two", "three"} {
		_, err := f.log.Append(context.Background(), model.LogEntry{Title: title})
		require.NoError(t, err)
	}

	w := f.do("GET", "/api/v1/log?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []model.LogEntry
	require.NoError(t, json.NewDecoder(w.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "three", entries[0].Title)

	w = f.do("GET", "/api/v1/log?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_PendingAndDrain(t *testing.T) {
	f := setupServer(t)
	require.NoError(t, f.queue.Enqueue(context.Background(), "help"))

	w := f.do("GET", "/api/v1/pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	var pending []model.PendingAlert
	require.NoError(t, json.NewDecoder(w.Body).Decode(&pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "help", pending[0].Body)

	// Offline: nothing is taken off the queue.
	w = f.do("POST", "/api/v1/pending/drain", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, false, resp["drained"])
	assert.Equal(t, float64(1), resp["pending"])

	f.probe.SetOnline(true)
	w = f.do("POST", "/api/v1/pending/drain", "")
	resp = nil
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, true, resp["drained"])
	assert.Equal(t, float64(0), resp["pending"])
	assert.Equal(t, "Pending alert not sent, action required", f.log.Entries()[0].Title)
}

func TestServer_Risk(t *testing.T) {
	f := setupServer(t)

	w := f.do("GET", "/api/v1/risk", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp server.RiskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, model.TierMinimal, resp.Tier)
	assert.False(t, resp.Gate)
	assert.NotEmpty(t, resp.Description)
	assert.Len(t, resp.Recommendations, 3)
}

func TestServer_Location(t *testing.T) {
	f := setupServer(t)

	w := f.do("POST", "/api/v1/location", `{"lat":48.8566,"lon":2.3522}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Paris, France", resp["address"])
	assert.Equal(t, "48.856600, 2.352200", resp["gps"])

	w = f.do("POST", "/api/v1/location", `{"lat":"north"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Connectivity(t *testing.T) {
	f := setupServer(t)

	w := f.do("POST", "/api/v1/connectivity", `{"online":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]bool
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp["reconnected"])
	assert.True(t, f.probe.IsOnline())

	w = f.do("POST", "/api/v1/connectivity", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	f := setupServer(t)
	f.do("POST", "/api/v1/trigger", "")

	w := f.do("GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "safetyring_alerts_armed_total 1")
}
