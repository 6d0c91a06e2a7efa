package templates

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/ogulcanaydogan/SafetyRing/pkg/storage"
)

// Store owns the persisted template catalog and the custom message.
type Store struct {
	mu      sync.RWMutex
	storage storage.Storage
	catalog Catalog
	custom  string
	now     func() time.Time
	logger  *slog.Logger
}

// NewStore loads the catalog from store. When no catalog has ever been
// saved, seed (or Defaults when seed is nil) is persisted as the initial
// catalog. An existing catalog, even an empty one, is never reseeded.
func NewStore(ctx context.Context, store storage.Storage, seed []model.Template, logger *slog.Logger) (*Store, error) {
	s := &Store{storage: store, now: time.Now, logger: logger}

	var items []model.Template
	found, err := storage.LoadJSON(ctx, store, storage.KeyTemplates, &items)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	if !found {
		items = seed
		if items == nil {
			items = Defaults()
		}
	}

	catalog, err := NewCatalog(items)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	if !found {
		if err := s.commit(ctx, catalog); err != nil {
			return nil, err
		}
		logger.Info("seeded default templates", "count", catalog.Len())
	}
	s.catalog = catalog

	if _, err := storage.LoadJSON(ctx, store, storage.KeyCustomMessage, &s.custom); err != nil {
		return nil, fmt.Errorf("load custom message: %w", err)
	}
	return s, nil
}

// SetClock overrides the clock used for {TIME}.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Catalog returns the current catalog value.
func (s *Store) Catalog() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// List returns all templates.
func (s *Store) List() []model.Template { return s.Catalog().List() }

// Active returns the active templates.
func (s *Store) Active() []model.Template { return s.Catalog().Active() }

// Get returns the template with the given id.
func (s *Store) Get(id string) (model.Template, bool) { return s.Catalog().Get(id) }

// Add stores a new template, assigning an id when it has none.
func (s *Store) Add(ctx context.Context, t model.Template) (model.Template, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Category == "" {
		t.Category = model.CategoryCustom
	}
	return t, s.mutate(ctx, func(c Catalog) (Catalog, error) { return c.Add(t) })
}

// Update replaces an existing template.
func (s *Store) Update(ctx context.Context, t model.Template) error {
	return s.mutate(ctx, func(c Catalog) (Catalog, error) { return c.Update(t) })
}

// Delete removes a template.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(c Catalog) (Catalog, error) { return c.Delete(id) })
}

// ToggleActive flips a template's active flag.
func (s *Store) ToggleActive(ctx context.Context, id string) (model.Template, error) {
	var toggled model.Template
	err := s.mutate(ctx, func(c Catalog) (Catalog, error) {
		next, t, err := c.ToggleActive(id)
		toggled = t
		return next, err
	})
	return toggled, err
}

// CustomMessage returns the stored custom message.
func (s *Store) CustomMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custom
}

// SetCustomMessage replaces the custom message. An empty message makes
// RenderCustom fall back to the built-in emergency text.
func (s *Store) SetCustomMessage(ctx context.Context, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storage.SaveJSON(ctx, s.storage, storage.KeyCustomMessage, msg); err != nil {
		return fmt.Errorf("save custom message: %w", err)
	}
	s.custom = msg
	return nil
}

// Render renders t at the store's current time and logs tokens left
// unresolved.
func (s *Store) Render(t model.Template, loc model.Location) string {
	out := Render(t, loc, s.clock())
	s.logUnresolved(t.ID, out)
	return out
}

// RenderCustom renders the stored custom message.
func (s *Store) RenderCustom(loc model.Location) string {
	out := RenderCustom(s.CustomMessage(), loc, s.clock())
	s.logUnresolved("custom", out)
	return out
}

func (s *Store) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

func (s *Store) logUnresolved(templateID, rendered string) {
	if tokens := Unresolved(rendered); len(tokens) > 0 {
		s.logger.Warn("unresolved template tokens", "template", templateID, "tokens", tokens)
	}
}

func (s *Store) mutate(ctx context.Context, fn func(Catalog) (Catalog, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.catalog)
	if err != nil {
		return err
	}
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.catalog = next
	return nil
}

func (s *Store) commit(ctx context.Context, c Catalog) error {
	if err := storage.SaveJSON(ctx, s.storage, storage.KeyTemplates, c.List()); err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	return nil
}
