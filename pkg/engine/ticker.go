package engine

import "time"

// Ticker delivers countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

// NewTimeTicker is the wall-clock TickerFunc.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }

func (t timeTicker) Stop() { t.t.Stop() }

// Observer receives engine events for instrumentation.
type Observer interface {
	AlertArmed()
	AlertCancelled()
	AlertDispatched(outcome Outcome)
	SendAttempted(channel string, ok bool)
	PendingDepth(n int)
}

type nopObserver struct{}

func (nopObserver) AlertArmed() {}
func (nopObserver) AlertCancelled() {}
func (nopObserver) AlertDispatched(Outcome) {}
func (nopObserver) SendAttempted(string, bool) {}
func (nopObserver) PendingDepth(int) {}
