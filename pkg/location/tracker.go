package location

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	gocache "github.com/patrickmn/go-cache"
)

// Geocoder resolves a coordinate to a human-readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, c model.Coordinate) (string, error)
}

// Tracker keeps the last reported coordinate and its resolved address.
// Addresses are cached per ~11m grid cell so repeated fixes at the same
// spot do not hit the geocoder.
type Tracker struct {
	mu         sync.RWMutex
	coordinate *model.Coordinate
	address    string

	geocoder Geocoder
	cache    *gocache.Cache
	logger   *slog.Logger
}

// NewTracker creates a tracker. geocoder may be nil, in which case
// addresses are never resolved.
func NewTracker(geocoder Geocoder, cacheTTL time.Duration, logger *slog.Logger) *Tracker {
	return &Tracker{
		address:  UnknownAddress,
		geocoder: geocoder,
		cache:    gocache.New(cacheTTL, 2*cacheTTL),
		logger:   logger,
	}
}

// CurrentCoordinate returns the last known coordinate.
func (t *Tracker) CurrentCoordinate() (model.Coordinate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.coordinate == nil {
		return model.Coordinate{}, false
	}
	return *t.coordinate, true
}

// CurrentAddress returns the last resolved address or UnknownAddress.
func (t *Tracker) CurrentAddress() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.address
}

// Update records a new fix and resolves its address. The coordinate is
// visible to readers before geocoding starts. A failed lookup keeps the
// previous address.
func (t *Tracker) Update(ctx context.Context, c model.Coordinate) {
	t.mu.Lock()
	t.coordinate = &c
	t.mu.Unlock()

	if t.geocoder == nil {
		return
	}

	key := cacheKey(c)
	if cached, ok := t.cache.Get(key); ok {
		t.setAddress(cached.(string))
		return
	}

	addr, err := t.geocoder.ReverseGeocode(ctx, c)
	if err != nil {
		t.logger.Warn("reverse geocoding failed", "lat", c.Lat, "lon", c.Lon, "error", err)
		return
	}
	if addr == "" {
		return
	}
	t.cache.Set(key, addr, gocache.DefaultExpiration)
	t.setAddress(addr)
}

// Clear forgets the current fix.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.coordinate = nil
	t.address = UnknownAddress
}

func (t *Tracker) setAddress(addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.address = addr
}

func cacheKey(c model.Coordinate) string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}
