package connectivity_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/connectivity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func drain(ch <-chan struct{}) int {
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}

func TestManual_EdgeTriggered(t *testing.T) {
	m := connectivity.NewManual(false)
	assert.False(t, m.IsOnline())

	assert.True(t, m.SetOnline(true))
	assert.False(t, m.SetOnline(true), "staying online is not an edge")
	assert.False(t, m.SetOnline(false))
	assert.True(t, m.SetOnline(true))

	assert.True(t, m.IsOnline())
	assert.Equal(t, 2, drain(m.BecameOnline()))
}

func TestManual_StartsOnlineNoEdge(t *testing.T) {
	m := connectivity.NewManual(true)
	assert.False(t, m.SetOnline(true))
	assert.Zero(t, drain(m.BecameOnline()))
}

func TestManual_DropsWhenBufferFull(t *testing.T) {
	m := connectivity.NewManual(false)
	for i := 0; i < 100; i++ {
		m.SetOnline(true)
		m.SetOnline(false)
	}
	assert.Equal(t, 16, drain(m.BecameOnline()))
}

func TestHTTPProbe_Check(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	p := connectivity.NewHTTPProbe(server.URL, time.Hour, time.Second, testLogger())
	ctx := context.Background()
	assert.False(t, p.IsOnline())

	assert.True(t, p.Check(ctx))
	assert.Equal(t, 1, drain(p.BecameOnline()))

	status.Store(http.StatusServiceUnavailable)
	assert.False(t, p.Check(ctx))
	assert.False(t, p.IsOnline())

	status.Store(http.StatusNoContent)
	assert.True(t, p.Check(ctx))
	assert.Equal(t, 1, drain(p.BecameOnline()))
}

func TestHTTPProbe_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	p := connectivity.NewHTTPProbe(url, time.Hour, 200*time.Millisecond, testLogger())
	assert.False(t, p.Check(context.Background()))
	assert.Zero(t, drain(p.BecameOnline()))
}

func TestHTTPProbe_RunStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	p := connectivity.NewHTTPProbe(server.URL, 10*time.Millisecond, time.Second, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, p.IsOnline, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
