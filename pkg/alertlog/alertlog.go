package alertlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/ogulcanaydogan/SafetyRing/pkg/storage"
)

// Log is the append-only history of alert outcomes, newest first.
type Log struct {
	mu      sync.RWMutex
	storage storage.Storage
	entries []model.LogEntry
	now     func() time.Time
}

// New loads the log from store. A missing key yields an empty log.
func New(ctx context.Context, store storage.Storage) (*Log, error) {
	l := &Log{storage: store, now: time.Now}
	if _, err := storage.LoadJSON(ctx, store, storage.KeyLogs, &l.entries); err != nil {
		return nil, fmt.Errorf("load alert log: %w", err)
	}
	return l, nil
}

// SetClock overrides the clock used to stamp entries.
func (l *Log) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Append prepends entry and persists the log. ID and Timestamp are filled
// in when empty. The stored entry is returned.
func (l *Log) Append(ctx context.Context, entry model.LogEntry) (model.LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}

	next := make([]model.LogEntry, 0, len(l.entries)+1)
	next = append(next, entry)
	next = append(next, l.entries...)
	if err := storage.SaveJSON(ctx, l.storage, storage.KeyLogs, next); err != nil {
		return model.LogEntry{}, fmt.Errorf("save alert log: %w", err)
	}
	l.entries = next
	return entry, nil
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []model.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.LogEntry(nil), l.entries...)
}

// Recent returns at most n entries, newest first. n <= 0 returns all.
func (l *Log) Recent(n int) []model.LogEntry {
	entries := l.Entries()
	if n > 0 && len(entries) > n {
		return entries[:n]
	}
	return entries
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
