package alertlog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/alertlog"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/ogulcanaydogan/SafetyRing/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) (*alertlog.Log, storage.Storage) {
	t.Helper()
	db, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	l, err := alertlog.New(context.Background(), db)
	require.NoError(t, err)
	return l, db
}

func TestLog_NewestFirst(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()

	_, err := l.Append(ctx, model.LogEntry{Title: "first"})
	require.NoError(t, err)
	_, err = l.Append(ctx, model.LogEntry{Title: "second"})
	require.NoError(t, err)

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Title)
	assert.Equal(t, "first", entries[1].Title)
}

func TestLog_FillsIDAndTimestamp(t *testing.T) {
	l, _ := newTestLog(t)
	fixed := time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return fixed })

	got, err := l.Append(context.Background(), model.LogEntry{Title: "x", WasSent: true})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, fixed, got.Timestamp)
	assert.True(t, got.WasSent)
}

func TestLog_KeepsGivenID(t *testing.T) {
	l, _ := newTestLog(t)

	got, err := l.Append(context.Background(), model.LogEntry{ID: "fixed-id", Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", got.ID)
}

func TestLog_Recent(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		_, err := l.Append(ctx, model.LogEntry{Title: title})
		require.NoError(t, err)
	}

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Title)
	assert.Equal(t, "b", recent[1].Title)
	assert.Len(t, l.Recent(0), 3)
	assert.Len(t, l.Recent(10), 3)
}

func TestLog_PersistsAcrossReload(t *testing.T) {
	l, db := newTestLog(t)
	ctx := context.Background()

	_, err := l.Append(ctx, model.LogEntry{Title: "stored", Message: "help", Location: "Paris"})
	require.NoError(t, err)

	reloaded, err := alertlog.New(ctx, db)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Len())
	entry := reloaded.Entries()[0]
	assert.Equal(t, "stored", entry.Title)
	assert.Equal(t, "help", entry.Message)
	assert.Equal(t, "Paris", entry.Location)
}
