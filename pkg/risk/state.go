package risk

import (
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
)

const (
	// WarningWindow is how long a shown disclaimer keeps the risky channel open.
	WarningWindow = 24 * time.Hour

	// HighUsageThreshold is the usage count above which every use adds a warning.
	HighUsageThreshold = 10

	// MaxWarnings caps the warning list; the oldest entries are dropped.
	MaxWarnings = 20
)

const highUsageWarning = "High usage detected. Reduce use of the experimental channel to avoid account suspension."

// defaultWarnings are seeded the first time the risk state is loaded.
var defaultWarnings = []struct {
	text     string
	severity model.Severity
}{
	{"Using the experimental channel may get the messaging account suspended temporarily or permanently.", model.SeverityCritical},
	{"The experimental channel is not supported by the messaging provider and may breach its terms of service.", model.SeverityHigh},
	{"The experimental channel can stop working at any time without notice.", model.SeverityHigh},
	{"Reserve the experimental channel for real emergencies and use it sparingly.", model.SeverityMedium},
	{"For everyday use and testing prefer the primary channel, which is always available and carries no risk.", model.SeverityLow},
}

// Each function below returns a new RiskState; inputs are never mutated.

// Seeded returns s with the default warnings when it has none.
func Seeded(s model.RiskState, now time.Time) model.RiskState {
	if len(s.Warnings) > 0 {
		return clone(s)
	}
	out := clone(s)
	for _, w := range defaultWarnings {
		out = WithWarning(out, w.text, w.severity, now)
	}
	return out
}

// Incremented records one use of the risky channel.
func Incremented(s model.RiskState, now time.Time) model.RiskState {
	out := clone(s)
	out.UsageCount++
	out.LastUsedAt = &now
	if out.UsageCount > HighUsageThreshold {
		out = WithWarning(out, highUsageWarning, model.SeverityHigh, now)
	}
	return out
}

// Disclaimed marks the disclaimer as shown at now.
func Disclaimed(s model.RiskState, now time.Time) model.RiskState {
	out := clone(s)
	out.LastWarningShownAt = &now
	return out
}

// WithConsent sets the risky channel consent flag.
func WithConsent(s model.RiskState, granted bool) model.RiskState {
	out := clone(s)
	out.ConsentGranted = granted
	return out
}

// WithWarning appends a warning, keeping at most MaxWarnings.
func WithWarning(s model.RiskState, text string, severity model.Severity, now time.Time) model.RiskState {
	out := clone(s)
	out.Warnings = append(out.Warnings, model.Warning{
		ID:        uuid.New().String(),
		Text:      text,
		Severity:  severity,
		Timestamp: now,
	})
	if len(out.Warnings) > MaxWarnings {
		out.Warnings = out.Warnings[len(out.Warnings)-MaxWarnings:]
	}
	return out
}

// SoftReset clears usage but keeps consent and warning history.
func SoftReset(s model.RiskState) model.RiskState {
	out := clone(s)
	out.UsageCount = 0
	out.LastUsedAt = nil
	return out
}

// RecentWarning reports whether the disclaimer was shown within WarningWindow of now.
func RecentWarning(s model.RiskState, now time.Time) bool {
	if s.LastWarningShownAt == nil {
		return false
	}
	return now.Sub(*s.LastWarningShownAt) < WarningWindow
}

func clone(s model.RiskState) model.RiskState {
	out := s
	if s.LastUsedAt != nil {
		t := *s.LastUsedAt
		out.LastUsedAt = &t
	}
	if s.LastWarningShownAt != nil {
		t := *s.LastWarningShownAt
		out.LastWarningShownAt = &t
	}
	out.Warnings = append([]model.Warning(nil), s.Warnings...)
	return out
}
