package queue_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/queue"
	"github.com/ogulcanaydogan/SafetyRing/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*queue.Queue, storage.Storage) {
	t.Helper()
	db, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	q, err := queue.New(context.Background(), db)
	require.NoError(t, err)
	return q, db
}

func TestQueue_FIFO(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "A"))
	require.NoError(t, q.Enqueue(ctx, "B"))
	assert.Equal(t, 2, q.Len())

	first, ok, err := q.PopFront(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", first.Body)

	second, ok, err := q.PopFront(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "B", second.Body)

	_, ok, err = q.PopFront(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueue_StampsCreatedAt(t *testing.T) {
	q, _ := newTestQueue(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	q.SetClock(func() time.Time { return fixed })

	require.NoError(t, q.Enqueue(context.Background(), "A"))
	items := q.List()
	require.Len(t, items, 1)
	assert.Equal(t, fixed, items[0].CreatedAt)
}

func TestQueue_PersistsAcrossReload(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	for _, body := range []string{"one", "two", "three"} {
		require.NoError(t, q.Enqueue(ctx, body))
	}
	_, _, err := q.PopFront(ctx)
	require.NoError(t, err)

	reloaded, err := queue.New(ctx, db)
	require.NoError(t, err)
	items := reloaded.List()
	require.Len(t, items, 2)
	assert.Equal(t, "two", items[0].Body)
	assert.Equal(t, "three", items[1].Body)
}

func TestQueue_ListIsCopy(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, "A"))

	items := q.List()
	items[0].Body = "mutated"

	assert.Equal(t, "A", q.List()[0].Body)
}
