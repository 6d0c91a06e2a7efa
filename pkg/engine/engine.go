// Package engine implements the alert state machine: it arms a countdown
// on trigger, fires the dispatch when the countdown expires, and replays
// queued alerts when connectivity returns.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/alertlog"
	"github.com/ogulcanaydogan/SafetyRing/pkg/channels"
	"github.com/ogulcanaydogan/SafetyRing/pkg/connectivity"
	"github.com/ogulcanaydogan/SafetyRing/pkg/location"
	"github.com/ogulcanaydogan/SafetyRing/pkg/notify"
	"github.com/ogulcanaydogan/SafetyRing/pkg/queue"
	"github.com/ogulcanaydogan/SafetyRing/pkg/recipients"
	"github.com/ogulcanaydogan/SafetyRing/pkg/risk"
	"github.com/ogulcanaydogan/SafetyRing/pkg/settings"
	"github.com/ogulcanaydogan/SafetyRing/pkg/templates"
)

// State is the engine's lifecycle state.
type State string

const (
	StateIdle   State = "idle"
	StateArming State = "arming"
	StateFiring State = "firing"
)

// DefaultTick is the countdown granularity.
const DefaultTick = time.Second

// Snapshot is a point-in-time view of the engine.
type Snapshot struct {
	State     State         `json:"state"`
	Remaining time.Duration `json:"remaining"`
	// TemplateID is the selected template; empty means the custom message.
	TemplateID string `json:"template_id,omitempty"`
}

// Deps are the collaborators the engine orchestrates. Notifier, Feedback
// and Observer are optional.
type Deps struct {
	Templates    *templates.Store
	Recipients   *recipients.Registry
	Risk         *risk.Tracker
	Queue        *queue.Queue
	Log          *alertlog.Log
	Settings     *settings.Store
	Channels     *channels.Registry
	Location     location.Provider
	Connectivity connectivity.Probe
	Notifier     notify.Notifier
	Feedback     notify.Feedback
	Observer     Observer
}

// Engine is the alert state machine. All transitions, countdown ticks and
// queue drains are serialized by mu.
type Engine struct {
	deps      Deps
	tick      time.Duration
	newTicker TickerFunc
	logger    *slog.Logger

	mu         sync.Mutex
	state      State
	remaining  time.Duration
	templateID string
	gen        uint64
	stop       chan struct{}

	status atomic.Pointer[Snapshot]

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithTick sets the countdown granularity.
func WithTick(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tick = d
		}
	}
}

// WithTicker replaces the ticker factory.
func WithTicker(f TickerFunc) Option {
	return func(e *Engine) { e.newTicker = f }
}

// New creates an idle engine.
func New(deps Deps, logger *slog.Logger, opts ...Option) *Engine {
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		deps:      deps,
		tick:      DefaultTick,
		newTicker: NewTimeTicker,
		logger:    logger,
		state:     StateIdle,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.publish()
	e.deps.Observer.PendingDepth(e.deps.Queue.Len())
	return e
}

// State returns the current snapshot without waiting for a dispatch in
// progress.
func (e *Engine) State() Snapshot {
	return *e.status.Load()
}

// Trigger arms a countdown that sends the custom message. It returns false
// when the engine is not idle.
func (e *Engine) Trigger(ctx context.Context) bool {
	return e.arm(ctx, "")
}

// TriggerTemplate arms a countdown that sends the given template.
func (e *Engine) TriggerTemplate(ctx context.Context, templateID string) bool {
	return e.arm(ctx, templateID)
}

// Cancel aborts an armed countdown. It returns false when nothing was
// armed, including when the countdown already expired.
func (e *Engine) Cancel(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateArming {
		return false
	}
	remaining := e.remaining
	e.resetLocked()

	e.appendLog(ctx, logEntry("Alert cancelled by user", "", "", false))
	e.deps.Observer.AlertCancelled()
	e.logger.Info("alert cancelled", "remaining", remaining.String())
	return true
}

// Run replays one pending alert on every offline to online transition
// until ctx is done or the engine is closed.
func (e *Engine) Run(ctx context.Context) {
	if e.deps.Connectivity == nil {
		return
	}
	edges := e.deps.Connectivity.BecameOnline()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.ctx.Done():
			return
		case <-edges:
			e.HandleOnline(ctx)
		}
	}
}

// Close stops any running countdown without firing it.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.state == StateArming {
		e.resetLocked()
	}
	e.mu.Unlock()
	e.cancel()
}

func (e *Engine) arm(ctx context.Context, templateID string) bool {
	e.mu.Lock()
	if e.state != StateIdle || e.ctx.Err() != nil {
		e.mu.Unlock()
		return false
	}

	e.gen++
	gen := e.gen
	e.state = StateArming
	e.remaining = e.deps.Settings.Get().Countdown()
	e.templateID = templateID
	e.stop = make(chan struct{})
	stop := e.stop
	ticker := e.newTicker(e.tick)
	e.publish()
	remaining := e.remaining
	e.mu.Unlock()

	e.deps.Observer.AlertArmed()
	e.logger.Info("alert armed", "countdown", remaining.String(), "template", templateID)

	if n := e.deps.Notifier; n != nil {
		nctx := context.WithoutCancel(ctx)
		go func() {
			defer e.recoverSideEffect("notifier")
			n.NotifyLocally(nctx)
		}()
	}

	go e.countdown(gen, ticker, stop)
	return true
}

func (e *Engine) countdown(gen uint64, ticker Ticker, stop <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-e.ctx.Done():
			return
		case <-ticker.C():
			if e.onTick(gen) {
				return
			}
		}
	}
}

// onTick advances the countdown by one tick and fires on expiry. It
// reports whether the countdown is over.
func (e *Engine) onTick(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A tick that lost the race against Cancel or a newer countdown.
	if e.gen != gen || e.state != StateArming {
		return true
	}

	e.remaining -= e.tick
	if e.remaining > 0 {
		e.publish()
		e.pulse(e.remaining)
		return false
	}

	e.remaining = 0
	e.state = StateFiring
	e.publish()

	e.fire(e.ctx, e.templateID)

	e.state = StateIdle
	e.templateID = ""
	e.stop = nil
	e.publish()
	return true
}

// resetLocked returns to idle and invalidates any in-flight tick.
func (e *Engine) resetLocked() {
	e.gen++
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
	e.state = StateIdle
	e.remaining = 0
	e.templateID = ""
	e.publish()
}

func (e *Engine) publish() {
	e.status.Store(&Snapshot{State: e.state, Remaining: e.remaining, TemplateID: e.templateID})
}

func (e *Engine) pulse(remaining time.Duration) {
	f := e.deps.Feedback
	if f == nil {
		return
	}
	go func() {
		defer e.recoverSideEffect("feedback")
		f.Pulse(remaining)
	}()
}

func (e *Engine) recoverSideEffect(name string) {
	if r := recover(); r != nil {
		e.logger.Warn("side effect panicked", "effect", name, "panic", r)
	}
}
