package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/ogulcanaydogan/SafetyRing/pkg/storage"
)

// Queue is a durable FIFO of alerts that could not be dispatched. It only
// grows through Enqueue and only shrinks through PopFront.
type Queue struct {
	mu      sync.Mutex
	storage storage.Storage
	items   []model.PendingAlert
	now     func() time.Time
}

// New loads the queue from store. A missing key yields an empty queue.
func New(ctx context.Context, store storage.Storage) (*Queue, error) {
	q := &Queue{storage: store, now: time.Now}
	if _, err := storage.LoadJSON(ctx, store, storage.KeyPending, &q.items); err != nil {
		return nil, fmt.Errorf("load pending queue: %w", err)
	}
	return q, nil
}

// SetClock overrides the clock used to stamp new entries.
func (q *Queue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

// Enqueue appends body with the current time and persists the queue.
func (q *Queue) Enqueue(ctx context.Context, body string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	next := append(q.snapshot(), model.PendingAlert{Body: body, CreatedAt: q.now().UTC()})
	if err := storage.SaveJSON(ctx, q.storage, storage.KeyPending, next); err != nil {
		return fmt.Errorf("save pending queue: %w", err)
	}
	q.items = next
	return nil
}

// PopFront removes and returns the oldest entry. The bool is false when
// the queue is empty. On a persistence error the entry stays queued.
func (q *Queue) PopFront(ctx context.Context) (model.PendingAlert, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return model.PendingAlert{}, false, nil
	}

	head := q.items[0]
	rest := append([]model.PendingAlert(nil), q.items[1:]...)
	if err := storage.SaveJSON(ctx, q.storage, storage.KeyPending, rest); err != nil {
		return model.PendingAlert{}, false, fmt.Errorf("save pending queue: %w", err)
	}
	q.items = rest
	return head, true, nil
}

// Len returns the number of queued alerts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// List returns a copy of the queue, oldest first.
func (q *Queue) List() []model.PendingAlert {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshot()
}

func (q *Queue) snapshot() []model.PendingAlert {
	return append([]model.PendingAlert(nil), q.items...)
}
