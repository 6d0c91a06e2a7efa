package location_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/location"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paris = model.Coordinate{Lat: 48.8566, Lon: 2.3522}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type countingGeocoder struct {
	calls int
	addr  string
	err   error
}

func (g *countingGeocoder) ReverseGeocode(_ context.Context, _ model.Coordinate) (string, error) {
	g.calls++
	return g.addr, g.err
}

func TestGPSAndMapLink(t *testing.T) {
	assert.Equal(t, "48.856600, 2.352200", location.GPS(paris))
	assert.Equal(t, "https://maps.apple.com/?ll=48.856600,2.352200", location.MapLink(paris))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, location.UnknownAddress, location.Format(model.Location{}))

	withAddr := location.Format(model.Location{Coordinate: &paris, Address: "Paris, France"})
	assert.Contains(t, withAddr, "Paris, France")
	assert.Contains(t, withAddr, "48.856600, 2.352200")

	noAddr := location.Format(model.Location{Coordinate: &paris, Address: location.UnknownAddress})
	assert.NotContains(t, noAddr, location.UnknownAddress)
	assert.Contains(t, noAddr, "maps.apple.com")
}

func TestEmergencyText(t *testing.T) {
	now := time.Date(2025, 7, 14, 22, 5, 0, 0, time.UTC)

	unknown := location.EmergencyText(model.Location{}, now)
	assert.Contains(t, unknown, location.UnknownAddress)
	assert.Contains(t, unknown, "14 Jul 2025 22:05")

	known := location.EmergencyText(model.Location{Coordinate: &paris, Address: "Paris, France"}, now)
	assert.Contains(t, known, "Address: Paris, France")
	assert.Contains(t, known, "GPS: 48.856600, 2.352200")
	assert.Contains(t, known, "14 Jul 2025 22:05")
}

func TestSnapshot(t *testing.T) {
	tr := location.NewTracker(nil, time.Minute, testLogger())

	snap := location.Snapshot(tr)
	assert.Nil(t, snap.Coordinate)
	assert.Equal(t, location.UnknownAddress, snap.Address)

	tr.Update(context.Background(), paris)
	snap = location.Snapshot(tr)
	require.NotNil(t, snap.Coordinate)
	assert.Equal(t, paris, *snap.Coordinate)

	assert.Equal(t, location.UnknownAddress, location.Snapshot(nil).Address)
}

func TestTracker_GeocodeCached(t *testing.T) {
	geo := &countingGeocoder{addr: "Paris, France"}
	tr := location.NewTracker(geo, time.Minute, testLogger())
	ctx := context.Background()

	tr.Update(ctx, paris)
	tr.Update(ctx, model.Coordinate{Lat: 48.85661, Lon: 2.35221})

	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, "Paris, France", tr.CurrentAddress())
	c, ok := tr.CurrentCoordinate()
	require.True(t, ok)
	assert.Equal(t, 48.85661, c.Lat)
}

func TestTracker_GeocodeFailureKeepsAddress(t *testing.T) {
	geo := &countingGeocoder{addr: "Paris, France"}
	tr := location.NewTracker(geo, time.Minute, testLogger())
	ctx := context.Background()

	tr.Update(ctx, paris)
	geo.err = errors.New("boom")
	tr.Update(ctx, model.Coordinate{Lat: 45.764, Lon: 4.8357})

	assert.Equal(t, "Paris, France", tr.CurrentAddress())
	c, _ := tr.CurrentCoordinate()
	assert.Equal(t, 45.764, c.Lat)
}

func TestTracker_Clear(t *testing.T) {
	tr := location.NewTracker(&countingGeocoder{addr: "x"}, time.Minute, testLogger())
	tr.Update(context.Background(), paris)
	tr.Clear()

	_, ok := tr.CurrentCoordinate()
	assert.False(t, ok)
	assert.Equal(t, location.UnknownAddress, tr.CurrentAddress())
}

func TestHTTPGeocoder(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"display_name":"Paris, Ile-de-France, France"}`))
	}))
	defer server.Close()

	g := location.NewHTTPGeocoder(server.URL, "safetyring-test")
	addr, err := g.ReverseGeocode(context.Background(), paris)
	require.NoError(t, err)
	assert.Equal(t, "Paris, Ile-de-France, France", addr)
	assert.Equal(t, "/reverse", gotPath)
	assert.True(t, strings.Contains(gotQuery, "lat=48.856600"))
	assert.Equal(t, "safetyring-test", gotUA)
}

func TestHTTPGeocoder_ReversePathNotDoubled(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"display_name":"Paris"}`))
	}))
	defer server.Close()

	g := location.NewHTTPGeocoder(server.URL+"/reverse/", "ua")
	_, err := g.ReverseGeocode(context.Background(), paris)
	require.NoError(t, err)
	assert.Equal(t, "/reverse", gotPath)
}

func TestHTTPGeocoder_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "0.000000" {
			w.Write([]byte(`{"error":"Unable to geocode"}`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := location.NewHTTPGeocoder(server.URL, "ua")
	_, err := g.ReverseGeocode(context.Background(), model.Coordinate{})
	assert.ErrorContains(t, err, "Unable to geocode")

	_, err = g.ReverseGeocode(context.Background(), paris)
	assert.ErrorContains(t, err, "429")
}
