package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(topic string, payload []byte) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestLog_NotifyAndPulse(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	n := notify.NewLog(logger)

	n.NotifyLocally(context.Background())
	n.Pulse(3 * time.Second)

	out := buf.String()
	assert.Contains(t, out, "alert received")
	assert.Contains(t, out, "remaining=3s")
}

func TestRing_Commands(t *testing.T) {
	pub := &recordingPublisher{}
	r := notify.NewRing(pub, "safetyring/ring/cmd", testLogger())

	r.NotifyLocally(context.Background())
	r.Pulse(4 * time.Second)

	require.Len(t, pub.payloads, 2)
	assert.Equal(t, []string{"safetyring/ring/cmd", "safetyring/ring/cmd"}, pub.topics)

	var buzz, pulse map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &buzz))
	require.NoError(t, json.Unmarshal(pub.payloads[1], &pulse))
	assert.Equal(t, "buzz", buzz["cmd"])
	assert.Equal(t, "pulse", pulse["cmd"])
	assert.Equal(t, float64(4), pulse["remaining_seconds"])
}

func TestRing_PublishErrorSwallowed(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("not connected")}
	r := notify.NewRing(pub, "t", testLogger())

	assert.NotPanics(t, func() {
		r.NotifyLocally(context.Background())
		r.Pulse(time.Second)
	})
	assert.Len(t, pub.payloads, 2)
}

func TestMulti(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	ra := notify.NewRing(a, "a", testLogger())
	rb := notify.NewRing(b, "b", testLogger())

	notify.Multi{ra, rb}.NotifyLocally(context.Background())
	notify.MultiFeedback{ra, rb}.Pulse(time.Second)

	assert.Len(t, a.payloads, 2)
	assert.Len(t, b.payloads, 2)
}
