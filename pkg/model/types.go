package model

import "time"

// Category groups templates by the kind of emergency they describe.
type Category string

const (
	CategoryAggression Category = "aggression"
	CategoryMedical    Category = "medical"
	CategoryAccident   Category = "accident"
	CategoryDanger     Category = "danger"
	CategoryCustom     Category = "custom"
)

// Template is a message body with placeholder tokens.
type Template struct {
	ID              string            `json:"id" yaml:"id"`
	Name            string            `json:"name" yaml:"name"`
	Body            string            `json:"body" yaml:"body"`
	Active          bool              `json:"active" yaml:"active"`
	Category        Category          `json:"category" yaml:"category"`
	CustomVariables map[string]string `json:"custom_variables,omitempty" yaml:"custom_variables,omitempty"`
}

// Channel identifies a messaging channel. The set is closed.
type Channel string

const (
	ChannelPrimary Channel = "primary" // Always available, no consent needed
	ChannelRisky   Channel = "risky"   // Experimental, consent-gated and usage-tracked
)

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	return c == ChannelPrimary || c == ChannelRisky
}

// Recipient is a contact that receives alerts.
type Recipient struct {
	ID                 string    `json:"id"`
	Handle             string    `json:"handle"`
	DisplayName        string    `json:"display_name"`
	Channels           []Channel `json:"channels"`
	Active             bool      `json:"active"`
	IsEmergencyContact bool      `json:"is_emergency_contact"`
}

// PreferredChannel returns the first configured channel, or Primary.
func (r Recipient) PreferredChannel() Channel {
	if len(r.Channels) == 0 {
		return ChannelPrimary
	}
	return r.Channels[0]
}

// PendingAlert is an alert body waiting for connectivity.
type PendingAlert struct {
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// LogEntry records the outcome of one alert.
type LogEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Location  string    `json:"location"`
	WasSent   bool      `json:"was_sent"`
}

// Severity ranks risk warnings.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Warning is a disclaimer shown for the risky channel.
type Warning struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// RiskState tracks use of the risky channel.
type RiskState struct {
	UsageCount         int        `json:"usage_count"`
	LastUsedAt         *time.Time `json:"last_used_at,omitempty"`
	LastWarningShownAt *time.Time `json:"last_warning_shown_at,omitempty"`
	ConsentGranted     bool       `json:"consent_granted"`
	Warnings           []Warning  `json:"warnings,omitempty"`
}

// RiskTier is the coarse risk level derived from usage.
type RiskTier string

const (
	TierMinimal  RiskTier = "minimal"
	TierLow      RiskTier = "low"
	TierModerate RiskTier = "moderate"
	TierHigh     RiskTier = "high"
)

// TierForUsage maps a cumulative usage count to a risk tier.
func TierForUsage(count int) RiskTier {
	switch {
	case count > 20:
		return TierHigh
	case count > 10:
		return TierModerate
	case count > 5:
		return TierLow
	default:
		return TierMinimal
	}
}

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a point-in-time view of what the location provider knows.
// Coordinate is nil when no fix is available.
type Location struct {
	Coordinate *Coordinate `json:"coordinate,omitempty"`
	Address    string      `json:"address"`
}
