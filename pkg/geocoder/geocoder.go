package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/retailrewards/rewards-backend/internal/geo"
)

// ErrNotFound indicates the geocoder had no result for the query
var ErrNotFound = errors.New("geocoder: no result for query")

// Geocoder resolves a shop name and address to coordinates
type Geocoder interface {
	Geocode(ctx context.Context, name, address string) (*geo.Coordinates, error)
}

// NominatimGeocoder queries the OpenStreetMap Nominatim API
type NominatimGeocoder struct {
	BaseURL    string
	UserAgent  string
	httpClient *http.Client
}

// MockGeocoder serves canned results keyed by "name, address"
type MockGeocoder struct {
	Results map[string]geo.Coordinates
}

// NewNominatimGeocoder creates a Nominatim-backed geocoder
func NewNominatimGeocoder(baseURL, userAgent string) *NominatimGeocoder {
	return &NominatimGeocoder{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewMockGeocoder creates a geocoder with a fixed result set
func NewMockGeocoder(results map[string]geo.Coordinates) *MockGeocoder {
	return &MockGeocoder{Results: results}
}

// Geocode looks up the first Nominatim match for "name, address"
func (g *NominatimGeocoder) Geocode(ctx context.Context, name, address string) (*geo.Coordinates, error) {
	query := url.Values{}
	query.Set("q", name+", "+address)
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode request: %w", err)
	}
	// Nominatim's usage policy requires an identifying user agent
	req.Header.Set("User-Agent", g.UserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder returned bad latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder returned bad longitude %q: %w", results[0].Lon, err)
	}

	coords := &geo.Coordinates{Latitude: lat, Longitude: lon}
	if err := coords.Validate(); err != nil {
		return nil, err
	}
	return coords, nil
}

// Geocode returns the canned result for "name, address"
func (g *MockGeocoder) Geocode(ctx context.Context, name, address string) (*geo.Coordinates, error) {
	coords, ok := g.Results[name+", "+address]
	if !ok {
		return nil, ErrNotFound
	}
	return &coords, nil
}
