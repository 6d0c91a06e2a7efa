package channels

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
)

// Registry maps each channel to the composer that serves it.
type Registry struct {
	mu        sync.RWMutex
	composers map[model.Channel]Composer
}

// NewRegistry creates an empty composer registry.
func NewRegistry() *Registry {
	return &Registry{
		composers: make(map[model.Channel]Composer),
	}
}

// Register binds c to ch.
func (r *Registry) Register(ch model.Channel, c Composer) error {
	if !ch.Valid() {
		return fmt.Errorf("unknown channel %q", ch)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.composers[ch]; exists {
		return fmt.Errorf("channel %q already served by %q", ch, existing.Name())
	}
	r.composers[ch] = c
	return nil
}

// Get returns the composer bound to ch.
func (r *Registry) Get(ch model.Channel) (Composer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.composers[ch]
	if !ok {
		return nil, fmt.Errorf("no composer for channel %q", ch)
	}
	return c, nil
}

// Usable reports whether ch has a composer that can send right now.
func (r *Registry) Usable(ch model.Channel) bool {
	c, err := r.Get(ch)
	return err == nil && c.CanSend()
}

// List returns the registered channels in sorted order.
func (r *Registry) List() []model.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Channel, 0, len(r.composers))
	for ch := range r.composers {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
