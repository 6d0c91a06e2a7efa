package recipients

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/ogulcanaydogan/SafetyRing/pkg/storage"
)

// Registry owns the persisted recipient list and the global consent flag.
type Registry struct {
	mu      sync.RWMutex
	storage storage.Storage
	list    List
	consent bool
	logger  *slog.Logger
}

// NewRegistry loads recipients and consent from store.
func NewRegistry(ctx context.Context, store storage.Storage, logger *slog.Logger) (*Registry, error) {
	r := &Registry{storage: store, logger: logger}

	var items []model.Recipient
	if _, err := storage.LoadJSON(ctx, store, storage.KeyRecipients, &items); err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}
	r.list = NewList(items)

	if _, err := storage.LoadJSON(ctx, store, storage.KeyConsent, &r.consent); err != nil {
		return nil, fmt.Errorf("load consent: %w", err)
	}
	return r, nil
}

// List returns the current list value.
func (r *Registry) List() List {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list
}

// All returns every recipient.
func (r *Registry) All() []model.Recipient { return r.List().All() }

// Active returns the active recipients.
func (r *Registry) Active() []model.Recipient { return r.List().Active() }

// Find looks a recipient up by id or handle.
func (r *Registry) Find(ref string) (model.Recipient, bool) { return r.List().Find(ref) }

// Consent reports whether the user granted global consent.
func (r *Registry) Consent() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.consent
}

// SetConsent stores the consent flag. Granting consent seeds the emergency
// service numbers; seeding is idempotent by handle.
func (r *Registry) SetConsent(ctx context.Context, granted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := storage.SaveJSON(ctx, r.storage, storage.KeyConsent, granted); err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	r.consent = granted
	if !granted {
		return nil
	}

	next, added := r.list.WithEmergencyServices()
	if added == 0 {
		return nil
	}
	if err := r.commit(ctx, next); err != nil {
		return err
	}
	r.logger.Info("seeded emergency recipients", "added", added)
	return nil
}

// Add stores a new recipient and returns it normalized.
func (r *Registry) Add(ctx context.Context, rec model.Recipient) (model.Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, added := r.list.Add(rec)
	if err := r.commit(ctx, next); err != nil {
		return model.Recipient{}, err
	}
	return added, nil
}

// Update replaces an existing recipient.
func (r *Registry) Update(ctx context.Context, rec model.Recipient) error {
	return r.mutate(ctx, func(l List) (List, error) { return l.Update(rec) })
}

// Remove deletes a recipient by id.
func (r *Registry) Remove(ctx context.Context, id string) error {
	return r.mutate(ctx, func(l List) (List, error) { return l.Remove(id) })
}

// Toggle flips a recipient's active flag.
func (r *Registry) Toggle(ctx context.Context, id string) (model.Recipient, error) {
	var toggled model.Recipient
	err := r.mutate(ctx, func(l List) (List, error) {
		next, rec, err := l.Toggle(id)
		toggled = rec
		return next, err
	})
	return toggled, err
}

func (r *Registry) mutate(ctx context.Context, fn func(List) (List, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := fn(r.list)
	if err != nil {
		return err
	}
	return r.commit(ctx, next)
}

// commit persists next and makes it current. Callers hold r.mu.
func (r *Registry) commit(ctx context.Context, next List) error {
	if err := storage.SaveJSON(ctx, r.storage, storage.KeyRecipients, next.All()); err != nil {
		return fmt.Errorf("save recipients: %w", err)
	}
	r.list = next
	return nil
}
