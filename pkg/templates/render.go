package templates

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/location"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
)

// Standard placeholder tokens.
const (
	TokenAddress = "{ADDRESS}"
	TokenGPS     = "{GPS}"
	TokenMapLink = "{MAP_LINK}"
	TokenTime    = "{TIME}"
)

var tokenPattern = regexp.MustCompile(`\{[A-Za-z0-9_]+\}`)

// Render substitutes the standard placeholders and t's custom variables
// in t.Body. It is a pure function of its arguments. Tokens with no
// value are left in place.
func Render(t model.Template, loc model.Location, now time.Time) string {
	out := substitute(t.Body, loc, now)

	keys := make([]string, 0, len(t.CustomVariables))
	for k := range t.CustomVariables {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		out = strings.ReplaceAll(out, "{"+k+"}", t.CustomVariables[k])
	}
	return out
}

// RenderCustom renders the user's custom message. An empty message falls
// back to location.EmergencyText.
func RenderCustom(message string, loc model.Location, now time.Time) string {
	if strings.TrimSpace(message) == "" {
		return location.EmergencyText(loc, now)
	}
	return substitute(message, loc, now)
}

// Unresolved lists the distinct {TOKEN} spans left in a rendered message.
func Unresolved(rendered string) []string {
	found := tokenPattern.FindAllString(rendered, -1)
	slices.Sort(found)
	return slices.Compact(found)
}

func substitute(body string, loc model.Location, now time.Time) string {
	gps, mapLink := location.Unavailable, location.Unavailable
	if loc.Coordinate != nil {
		gps = location.GPS(*loc.Coordinate)
		mapLink = location.MapLink(*loc.Coordinate)
	}

	r := strings.NewReplacer(
		TokenAddress, location.Address(loc),
		TokenGPS, gps,
		TokenMapLink, mapLink,
		TokenTime, now.Format(location.TimeLayout),
	)
	return r.Replace(body)
}
