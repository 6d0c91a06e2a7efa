package templates

import (
	"errors"
	"fmt"
	"maps"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
)

var (
	// ErrNotFound is returned when no template has the requested id.
	ErrNotFound = errors.New("template not found")

	// ErrDuplicateID is returned when adding a template whose id is taken.
	ErrDuplicateID = errors.New("template id already exists")

	// ErrEmptyID is returned when a template has no id.
	ErrEmptyID = errors.New("template id is empty")
)

// Catalog is an immutable, ordered set of templates. Every mutation
// returns a new Catalog and leaves the receiver untouched.
type Catalog struct {
	items []model.Template
}

// NewCatalog builds a catalog from items, rejecting empty or duplicate ids.
func NewCatalog(items []model.Template) (Catalog, error) {
	c := Catalog{}
	for _, t := range items {
		next, err := c.Add(t)
		if err != nil {
			return Catalog{}, err
		}
		c = next
	}
	return c, nil
}

// Len returns the number of templates.
func (c Catalog) Len() int { return len(c.items) }

// List returns a copy of all templates in insertion order.
func (c Catalog) List() []model.Template {
	out := make([]model.Template, len(c.items))
	for i, t := range c.items {
		out[i] = cloneTemplate(t)
	}
	return out
}

// Active returns the active templates in insertion order.
func (c Catalog) Active() []model.Template {
	var out []model.Template
	for _, t := range c.items {
		if t.Active {
			out = append(out, cloneTemplate(t))
		}
	}
	return out
}

// Get returns the template with the given id.
func (c Catalog) Get(id string) (model.Template, bool) {
	i := c.index(id)
	if i < 0 {
		return model.Template{}, false
	}
	return cloneTemplate(c.items[i]), true
}

// Add appends t.
func (c Catalog) Add(t model.Template) (Catalog, error) {
	if t.ID == "" {
		return c, ErrEmptyID
	}
	if c.index(t.ID) >= 0 {
		return c, fmt.Errorf("add %q: %w", t.ID, ErrDuplicateID)
	}
	next := c.List()
	next = append(next, cloneTemplate(t))
	return Catalog{items: next}, nil
}

// Update replaces the template that has t's id.
func (c Catalog) Update(t model.Template) (Catalog, error) {
	i := c.index(t.ID)
	if i < 0 {
		return c, fmt.Errorf("update %q: %w", t.ID, ErrNotFound)
	}
	next := c.List()
	next[i] = cloneTemplate(t)
	return Catalog{items: next}, nil
}

// Delete removes the template with the given id.
func (c Catalog) Delete(id string) (Catalog, error) {
	i := c.index(id)
	if i < 0 {
		return c, fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	next := c.List()
	next = append(next[:i], next[i+1:]...)
	return Catalog{items: next}, nil
}

// ToggleActive flips the active flag of the template with the given id
// and returns the updated template.
func (c Catalog) ToggleActive(id string) (Catalog, model.Template, error) {
	i := c.index(id)
	if i < 0 {
		return c, model.Template{}, fmt.Errorf("toggle %q: %w", id, ErrNotFound)
	}
	next := c.List()
	next[i].Active = !next[i].Active
	return Catalog{items: next}, cloneTemplate(next[i]), nil
}

func (c Catalog) index(id string) int {
	for i, t := range c.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneTemplate(t model.Template) model.Template {
	if t.CustomVariables != nil {
		t.CustomVariables = maps.Clone(t.CustomVariables)
	}
	return t
}
