package risk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/ogulcanaydogan/SafetyRing/pkg/storage"
)

// Tracker owns the persisted RiskState of the risky channel.
type Tracker struct {
	mu      sync.RWMutex
	storage storage.Storage
	state   model.RiskState
	now     func() time.Time
	logger  *slog.Logger
}

// Stats summarizes risky channel usage.
type Stats struct {
	UsageCount         int                    `json:"usage_count"`
	LastUsedAt         *time.Time             `json:"last_used_at,omitempty"`
	ConsentGranted     bool                   `json:"consent_granted"`
	Tier               model.RiskTier         `json:"tier"`
	WarningCount       int                    `json:"warning_count"`
	WarningsBySeverity map[model.Severity]int `json:"warnings_by_severity"`
}

// NewTracker loads the risk state from store. On first load the default
// warnings are seeded and persisted.
func NewTracker(ctx context.Context, store storage.Storage, logger *slog.Logger) (*Tracker, error) {
	t := &Tracker{storage: store, now: time.Now, logger: logger}

	found, err := storage.LoadJSON(ctx, store, storage.KeyRiskState, &t.state)
	if err != nil {
		return nil, fmt.Errorf("load risk state: %w", err)
	}
	if !found {
		if err := t.commit(ctx, Seeded(t.state, t.now().UTC())); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// SetClock overrides the tracker's clock.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// State returns a copy of the current state.
func (t *Tracker) State() model.RiskState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return clone(t.state)
}

// Tier returns the risk tier for the current usage count.
func (t *Tracker) Tier() model.RiskTier {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return model.TierForUsage(t.state.UsageCount)
}

// HasSeenRecentWarning reports whether the disclaimer was shown in the last 24h.
func (t *Tracker) HasSeenRecentWarning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return RecentWarning(t.state, t.now())
}

// Gate reports whether the risky channel may be used right now.
func (t *Tracker) Gate() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.ConsentGranted && RecentWarning(t.state, t.now())
}

// IncrementUsage records one successful risky send.
func (t *Tracker) IncrementUsage(ctx context.Context) (model.RiskState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := t.mutate(ctx, func(s model.RiskState) model.RiskState {
		return Incremented(s, t.now().UTC())
	})
	if err != nil {
		return next, err
	}
	if next.UsageCount > HighUsageThreshold {
		t.logger.Warn("risky channel usage is high",
			"usage_count", next.UsageCount,
			"tier", model.TierForUsage(next.UsageCount),
		)
	}
	return next, nil
}

// ShowDisclaimer records that the disclaimer was surfaced now.
func (t *Tracker) ShowDisclaimer(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.mutate(ctx, func(s model.RiskState) model.RiskState {
		return Disclaimed(s, t.now().UTC())
	})
	return err
}

// Enable grants consent for the risky channel and always re-surfaces the
// disclaimer.
func (t *Tracker) Enable(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.mutate(ctx, func(s model.RiskState) model.RiskState {
		return Disclaimed(WithConsent(s, true), t.now().UTC())
	})
	return err
}

// Disable withdraws consent for the risky channel.
func (t *Tracker) Disable(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.mutate(ctx, func(s model.RiskState) model.RiskState {
		return WithConsent(s, false)
	})
	return err
}

// AddWarning appends a warning to the history.
func (t *Tracker) AddWarning(ctx context.Context, text string, severity model.Severity) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.mutate(ctx, func(s model.RiskState) model.RiskState {
		return WithWarning(s, text, severity, t.now().UTC())
	})
	return err
}

// ClearWarnings empties the warning history.
func (t *Tracker) ClearWarnings(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := t.mutate(ctx, func(s model.RiskState) model.RiskState {
		next := clone(s)
		next.Warnings = nil
		return next
	})
	return err
}

// ResetUsage clears the usage counter without touching consent or warnings.
func (t *Tracker) ResetUsage(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.mutate(ctx, SoftReset)
	return err
}

// ResetAll clears the whole risk state.
func (t *Tracker) ResetAll(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.mutate(ctx, func(model.RiskState) model.RiskState { return model.RiskState{} })
	return err
}

// Statistics returns a usage summary.
func (t *Tracker) Statistics() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Stats{
		UsageCount:         t.state.UsageCount,
		ConsentGranted:     t.state.ConsentGranted,
		Tier:               model.TierForUsage(t.state.UsageCount),
		WarningCount:       len(t.state.Warnings),
		WarningsBySeverity: make(map[model.Severity]int),
	}
	if t.state.LastUsedAt != nil {
		last := *t.state.LastUsedAt
		s.LastUsedAt = &last
	}
	for _, w := range t.state.Warnings {
		s.WarningsBySeverity[w.Severity]++
	}
	return s
}

// Reload replaces the in-memory state with the stored one, picking up
// changes written by another process sharing the database.
func (t *Tracker) Reload(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reload(ctx)
}

// mutate applies fn to the latest stored state and persists the result.
// Callers hold t.mu.
func (t *Tracker) mutate(ctx context.Context, fn func(model.RiskState) model.RiskState) (model.RiskState, error) {
	if err := t.reload(ctx); err != nil {
		return clone(t.state), err
	}
	next := fn(t.state)
	if err := t.commit(ctx, next); err != nil {
		return clone(t.state), err
	}
	return clone(next), nil
}

// reload reads the stored state. Callers hold t.mu.
func (t *Tracker) reload(ctx context.Context) error {
	var stored model.RiskState
	found, err := storage.LoadJSON(ctx, t.storage, storage.KeyRiskState, &stored)
	if err != nil {
		return fmt.Errorf("load risk state: %w", err)
	}
	if found {
		t.state = stored
	}
	return nil
}

// commit persists next and makes it current. Callers hold t.mu.
func (t *Tracker) commit(ctx context.Context, next model.RiskState) error {
	if err := storage.SaveJSON(ctx, t.storage, storage.KeyRiskState, next); err != nil {
		return fmt.Errorf("save risk state: %w", err)
	}
	t.state = next
	return nil
}
