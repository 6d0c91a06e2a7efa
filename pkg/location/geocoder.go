package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
)

const reversePath = "/reverse"

// HTTPGeocoder queries a Nominatim-compatible reverse geocoding endpoint.
type HTTPGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewHTTPGeocoder creates a geocoder for a Nominatim server, e.g.
// "https://nominatim.openstreetmap.org". The /reverse path is added when
// baseURL does not already end with it.
func NewHTTPGeocoder(baseURL, userAgent string) *HTTPGeocoder {
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(endpoint, reversePath) {
		endpoint += reversePath
	}
	return &HTTPGeocoder{
		baseURL:   endpoint,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

func (g *HTTPGeocoder) ReverseGeocode(ctx context.Context, c model.Coordinate) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(c.Lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(c.Lon, 'f', 6, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode geocode response: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("geocoder: %s", body.Error)
	}
	return body.DisplayName, nil
}
