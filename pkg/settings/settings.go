// Package settings holds the user's alert preferences. Numeric values are
// clamped into range on every mutation rather than rejected.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/ogulcanaydogan/SafetyRing/pkg/storage"
)

const (
	MinCountdownSeconds     = 1.0
	MaxCountdownSeconds     = 10.0
	DefaultCountdownSeconds = 5.0
)

// AlertSettings are the persisted preferences.
type AlertSettings struct {
	EnableVibration        bool          `json:"enable_vibration"`
	EnableSound            bool          `json:"enable_sound"`
	EnableSpeech           bool          `json:"enable_speech"`
	CountdownSeconds       float64       `json:"countdown_seconds"`
	AlertVolume            float64       `json:"alert_volume"`
	SpeechRate             float64       `json:"speech_rate"`
	SpeechVolume           float64       `json:"speech_volume"`
	PreferredChannel       model.Channel `json:"preferred_channel"`
	EnableLocationSharing  bool          `json:"enable_location_sharing"`
	EnableEmergencyNumbers bool          `json:"enable_emergency_numbers"`
}

// Defaults returns the factory settings.
func Defaults() AlertSettings {
	return AlertSettings{
		EnableVibration:        true,
		EnableSound:            true,
		EnableSpeech:           true,
		CountdownSeconds:       DefaultCountdownSeconds,
		AlertVolume:            0.8,
		SpeechRate:             0.5,
		SpeechVolume:           0.7,
		PreferredChannel:       model.ChannelPrimary,
		EnableLocationSharing:  true,
		EnableEmergencyNumbers: true,
	}
}

// Countdown returns the arming duration, clamped to [1s, 10s].
func (s AlertSettings) Countdown() time.Duration {
	secs := clamp(s.CountdownSeconds, MinCountdownSeconds, MaxCountdownSeconds)
	return time.Duration(secs * float64(time.Second))
}

// Clamped returns a copy with every numeric field forced into range.
func (s AlertSettings) Clamped() AlertSettings {
	s.CountdownSeconds = clamp(s.CountdownSeconds, MinCountdownSeconds, MaxCountdownSeconds)
	s.AlertVolume = clamp(s.AlertVolume, 0, 1)
	s.SpeechRate = clamp(s.SpeechRate, 0.1, 1)
	s.SpeechVolume = clamp(s.SpeechVolume, 0, 1)
	if !s.PreferredChannel.Valid() {
		s.PreferredChannel = model.ChannelPrimary
	}
	return s
}

// Validate lists the fields that are out of range. Imported settings are
// checked with it before being clamped.
func (s AlertSettings) Validate() []string {
	var problems []string
	if s.CountdownSeconds < MinCountdownSeconds || s.CountdownSeconds > MaxCountdownSeconds {
		problems = append(problems, "countdown must be between 1 and 10 seconds")
	}
	if s.AlertVolume < 0 || s.AlertVolume > 1 {
		problems = append(problems, "alert volume must be between 0 and 1")
	}
	if s.SpeechRate < 0.1 || s.SpeechRate > 1 {
		problems = append(problems, "speech rate must be between 0.1 and 1")
	}
	if s.SpeechVolume < 0 || s.SpeechVolume > 1 {
		problems = append(problems, "speech volume must be between 0 and 1")
	}
	return problems
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Store persists AlertSettings under storage.KeySettings.
type Store struct {
	mu      sync.RWMutex
	storage storage.Storage
	current AlertSettings
	logger  *slog.Logger
}

// NewStore loads settings, falling back to Defaults when none are stored.
func NewStore(ctx context.Context, store storage.Storage, logger *slog.Logger) (*Store, error) {
	s := &Store{storage: store, current: Defaults(), logger: logger}

	loaded := Defaults()
	found, err := storage.LoadJSON(ctx, store, storage.KeySettings, &loaded)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if found {
		s.current = loaded.Clamped()
	}
	return s, nil
}

// Get returns the current settings.
func (s *Store) Get() AlertSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies fn to a copy of the current settings, clamps the result
// and persists it.
func (s *Store) Update(ctx context.Context, fn func(AlertSettings) AlertSettings) (AlertSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.current).Clamped()
	if err := storage.SaveJSON(ctx, s.storage, storage.KeySettings, next); err != nil {
		return s.current, fmt.Errorf("save settings: %w", err)
	}
	s.current = next
	return next, nil
}

// SetCountdown sets the arming duration in seconds, clamped to [1, 10].
func (s *Store) SetCountdown(ctx context.Context, seconds float64) (AlertSettings, error) {
	return s.Update(ctx, func(a AlertSettings) AlertSettings {
		a.CountdownSeconds = seconds
		return a
	})
}

// Reset removes the stored settings so the factory defaults apply, now and
// on the next load.
func (s *Store) Reset(ctx context.Context) (AlertSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, storage.KeySettings); err != nil {
		return s.current, fmt.Errorf("reset settings: %w", err)
	}
	s.current = Defaults()
	return s.current, nil
}

// Export returns the current settings as JSON.
func (s *Store) Export() ([]byte, error) {
	return json.Marshal(s.Get())
}

// Import replaces the settings with the decoded JSON. Out-of-range values
// are logged and clamped.
func (s *Store) Import(ctx context.Context, data []byte) (AlertSettings, error) {
	imported := Defaults()
	if err := json.Unmarshal(data, &imported); err != nil {
		return s.Get(), fmt.Errorf("decode settings: %w", err)
	}
	if problems := imported.Validate(); len(problems) > 0 {
		s.logger.Warn("imported settings out of range, clamping", "problems", problems)
	}
	return s.Update(ctx, func(AlertSettings) AlertSettings { return imported })
}
