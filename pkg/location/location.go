package location

import (
	"fmt"
	"strings"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
)

const (
	// UnknownAddress is used when no address can be resolved.
	UnknownAddress = "unknown location"

	// Unavailable is used for GPS and map link when there is no fix.
	Unavailable = "unavailable"

	// TimeLayout formats alert timestamps.
	TimeLayout = "02 Jan 2006 15:04"
)

// Provider supplies the last known position. Implementations never block
// and never fail: CurrentAddress returns UnknownAddress when nothing is known.
type Provider interface {
	CurrentCoordinate() (model.Coordinate, bool)
	CurrentAddress() string
}

// Snapshot reads p once into a Location value.
func Snapshot(p Provider) model.Location {
	if p == nil {
		return model.Location{Address: UnknownAddress}
	}
	loc := model.Location{Address: p.CurrentAddress()}
	if c, ok := p.CurrentCoordinate(); ok {
		loc.Coordinate = &c
	}
	return loc
}

// GPS formats c as "lat, lon" with six decimals.
func GPS(c model.Coordinate) string {
	return fmt.Sprintf("%.6f, %.6f", c.Lat, c.Lon)
}

// MapLink returns a map URL centered on c.
func MapLink(c model.Coordinate) string {
	return fmt.Sprintf("https://maps.apple.com/?ll=%.6f,%.6f", c.Lat, c.Lon)
}

// Address returns loc's address, or UnknownAddress when it is empty or
// there is no fix.
func Address(loc model.Location) string {
	if loc.Coordinate == nil || !hasAddress(loc.Address) {
		return UnknownAddress
	}
	return loc.Address
}

func hasAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	return addr != "" && addr != UnknownAddress
}

// Format renders loc as the short text stored in alert log entries.
func Format(loc model.Location) string {
	if loc.Coordinate == nil {
		return UnknownAddress
	}
	c := *loc.Coordinate
	if hasAddress(loc.Address) {
		return fmt.Sprintf("%s\nGPS: %s\nMap: %s", loc.Address, GPS(c), MapLink(c))
	}
	return fmt.Sprintf("GPS: %s\nMap: %s", GPS(c), MapLink(c))
}

// EmergencyText builds a self-contained distress message from loc alone.
// It is used when no custom message is configured.
func EmergencyText(loc model.Location, now time.Time) string {
	ts := now.Format(TimeLayout)
	if loc.Coordinate == nil {
		return fmt.Sprintf("EMERGENCY ALERT\nLocation: %s\nTime: %s", UnknownAddress, ts)
	}

	c := *loc.Coordinate
	var b strings.Builder
	b.WriteString("EMERGENCY ALERT\nI need help immediately!\n\n")
	if hasAddress(loc.Address) {
		fmt.Fprintf(&b, "Address: %s\n", loc.Address)
	}
	fmt.Fprintf(&b, "GPS: %s\nMap: %s\n\nTime: %s\nSent by SafetyRing", GPS(c), MapLink(c), ts)
	return b.String()
}
