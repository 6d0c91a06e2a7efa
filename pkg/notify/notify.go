package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Notifier raises a local alert on the user's side as soon as a countdown
// starts. It is best-effort and never reports failure.
type Notifier interface {
	NotifyLocally(ctx context.Context)
}

// Feedback emits a haptic or audible cue on each countdown tick.
type Feedback interface {
	Pulse(remaining time.Duration)
}

// Log writes local alerts and countdown pulses to a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a logging notifier.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) NotifyLocally(_ context.Context) {
	l.logger.Warn("SafetyRing alert received, preparing message")
}

func (l *Log) Pulse(remaining time.Duration) {
	l.logger.Info("alert countdown", "remaining", remaining.String())
}

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Ring drives the wearable through MQTT: it buzzes when an alert is
// armed and pulses on every countdown tick.
type Ring struct {
	pub    Publisher
	topic  string
	logger *slog.Logger
}

// NewRing creates a ring notifier publishing commands on topic.
func NewRing(pub Publisher, topic string, logger *slog.Logger) *Ring {
	return &Ring{pub: pub, topic: topic, logger: logger}
}

type ringCommand struct {
	Command          string `json:"cmd"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

func (r *Ring) NotifyLocally(_ context.Context) {
	r.publish(ringCommand{Command: "buzz"})
}

func (r *Ring) Pulse(remaining time.Duration) {
	r.publish(ringCommand{Command: "pulse", RemainingSeconds: int(remaining.Round(time.Second) / time.Second)})
}

func (r *Ring) publish(cmd ringCommand) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		r.logger.Debug("marshal ring command", "error", err)
		return
	}
	if err := r.pub.Publish(r.topic, payload); err != nil {
		r.logger.Debug("ring command not delivered", "cmd", cmd.Command, "error", err)
	}
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) NotifyLocally(ctx context.Context) {
	for _, n := range m {
		n.NotifyLocally(ctx)
	}
}

// MultiFeedback fans a pulse out to several feedback sinks.
type MultiFeedback []Feedback

func (m MultiFeedback) Pulse(remaining time.Duration) {
	for _, f := range m {
		f.Pulse(remaining)
	}
}
