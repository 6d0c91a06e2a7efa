package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no blob is stored under the key.
var ErrNotFound = errors.New("key not found")

// Stable keys under which the engine's state is persisted.
const (
	KeyTemplates     = "sr_emergency_templates"
	KeyCustomMessage = "sr_custom_message"
	KeyRecipients    = "sr_message_recipients"
	KeyConsent       = "sr_user_consent"
	KeyPending       = "sr_pending"
	KeyLogs          = "sr_logs"
	KeyRiskState     = "sr_risk_state"
	KeySettings      = "sr_alert_settings"
)

// Storage is a key-value store of opaque blobs.
type Storage interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}

// LoadJSON decodes the blob under key into v. It reports false, with v
// untouched, when the key is missing.
func LoadJSON(ctx context.Context, s Storage, key string, v any) (bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}
