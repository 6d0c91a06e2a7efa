package recipients

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
)

// ErrNotFound is returned when no recipient matches.
var ErrNotFound = errors.New("recipient not found")

// List is an immutable, ordered set of recipients. Mutations return a new
// List.
type List struct {
	items []model.Recipient
}

// NewList builds a list from items, normalizing each entry.
func NewList(items []model.Recipient) List {
	out := make([]model.Recipient, len(items))
	for i, r := range items {
		out[i] = Normalize(r)
	}
	return List{items: out}
}

// Normalize fills the defaults a stored recipient must have: an id, a
// display name (the handle) and at least one valid channel (Primary).
func Normalize(r model.Recipient) model.Recipient {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.DisplayName == "" {
		r.DisplayName = r.Handle
	}
	channels := make([]model.Channel, 0, len(r.Channels))
	for _, c := range r.Channels {
		if c.Valid() {
			channels = append(channels, c)
		}
	}
	if len(channels) == 0 {
		channels = []model.Channel{model.ChannelPrimary}
	}
	r.Channels = channels
	return r
}

// EmergencyServices are seeded once the user grants consent.
func EmergencyServices() []model.Recipient {
	return []model.Recipient{
		{Handle: "17", DisplayName: "Police", Channels: []model.Channel{model.ChannelPrimary}, Active: true, IsEmergencyContact: true},
		{Handle: "15", DisplayName: "SAMU", Channels: []model.Channel{model.ChannelPrimary}, Active: true, IsEmergencyContact: true},
		{Handle: "18", DisplayName: "Fire brigade", Channels: []model.Channel{model.ChannelPrimary}, Active: true, IsEmergencyContact: true},
	}
}

// Len returns the number of recipients.
func (l List) Len() int { return len(l.items) }

// All returns a copy of every recipient.
func (l List) All() []model.Recipient {
	out := make([]model.Recipient, len(l.items))
	for i, r := range l.items {
		out[i] = clone(r)
	}
	return out
}

// Active returns the active recipients.
func (l List) Active() []model.Recipient {
	var out []model.Recipient
	for _, r := range l.items {
		if r.Active {
			out = append(out, clone(r))
		}
	}
	return out
}

// Get returns the recipient with the given id.
func (l List) Get(id string) (model.Recipient, bool) {
	i := l.index(func(r model.Recipient) bool { return r.ID == id })
	if i < 0 {
		return model.Recipient{}, false
	}
	return clone(l.items[i]), true
}

// Find returns the first recipient whose id or handle equals ref.
func (l List) Find(ref string) (model.Recipient, bool) {
	if r, ok := l.Get(ref); ok {
		return r, true
	}
	i := l.index(func(r model.Recipient) bool { return r.Handle == ref })
	if i < 0 {
		return model.Recipient{}, false
	}
	return clone(l.items[i]), true
}

// Add appends r after normalizing it.
func (l List) Add(r model.Recipient) (List, model.Recipient) {
	r = Normalize(r)
	next := append(l.All(), r)
	return List{items: next}, clone(r)
}

// Update replaces the recipient with r's id.
func (l List) Update(r model.Recipient) (List, error) {
	i := l.index(func(x model.Recipient) bool { return x.ID == r.ID })
	if i < 0 {
		return l, fmt.Errorf("update %q: %w", r.ID, ErrNotFound)
	}
	next := l.All()
	next[i] = Normalize(r)
	return List{items: next}, nil
}

// Remove deletes the recipient with the given id.
func (l List) Remove(id string) (List, error) {
	i := l.index(func(r model.Recipient) bool { return r.ID == id })
	if i < 0 {
		return l, fmt.Errorf("remove %q: %w", id, ErrNotFound)
	}
	next := l.All()
	next = append(next[:i], next[i+1:]...)
	return List{items: next}, nil
}

// Toggle flips the active flag of the recipient with the given id.
func (l List) Toggle(id string) (List, model.Recipient, error) {
	i := l.index(func(r model.Recipient) bool { return r.ID == id })
	if i < 0 {
		return l, model.Recipient{}, fmt.Errorf("toggle %q: %w", id, ErrNotFound)
	}
	next := l.All()
	next[i].Active = !next[i].Active
	return List{items: next}, clone(next[i]), nil
}

// WithEmergencyServices adds each of EmergencyServices whose handle is not
// already present. It reports how many were added.
func (l List) WithEmergencyServices() (List, int) {
	next := l
	added := 0
	for _, svc := range EmergencyServices() {
		exists := next.index(func(r model.Recipient) bool { return r.Handle == svc.Handle }) >= 0
		if exists {
			continue
		}
		next, _ = next.Add(svc)
		added++
	}
	return next, added
}

func (l List) index(match func(model.Recipient) bool) int {
	for i, r := range l.items {
		if match(r) {
			return i
		}
	}
	return -1
}

func clone(r model.Recipient) model.Recipient {
	r.Channels = append([]model.Channel(nil), r.Channels...)
	return r
}
