package geocoder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailrewards/rewards-backend/internal/geo"
)

func TestNominatimGeocoder_ParsesFirstResult(t *testing.T) {
	var gotQuery, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"-26.2041","lon":"28.0473"},{"lat":"0","lon":"0"}]`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(server.URL, "test-agent/1.0")
	coords, err := g.Geocode(context.Background(), "SuperMart", "12 Main Rd, Johannesburg")
	require.NoError(t, err)

	assert.Equal(t, "SuperMart, 12 Main Rd, Johannesburg", gotQuery)
	assert.Equal(t, "test-agent/1.0", gotAgent)
	assert.InDelta(t, -26.2041, coords.Latitude, 1e-9)
	assert.InDelta(t, 28.0473, coords.Longitude, 1e-9)
}

func TestNominatimGeocoder_NoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(server.URL, "test-agent/1.0")
	_, err := g.Geocode(context.Background(), "Nowhere", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNominatimGeocoder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := NewNominatimGeocoder(server.URL, "test-agent/1.0")
	_, err := g.Geocode(context.Background(), "SuperMart", "")
	assert.Error(t, err)
}

func TestNominatimGeocoder_RejectsOutOfRangeResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"123.4","lon":"28.0"}]`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(server.URL, "test-agent/1.0")
	_, err := g.Geocode(context.Background(), "SuperMart", "")
	assert.Error(t, err)
}

func TestMockGeocoder(t *testing.T) {
	mock := NewMockGeocoder(map[string]geo.Coordinates{
		"SuperMart, 12 Main Rd": {Latitude: -26.2, Longitude: 28.0},
	})

	coords, err := mock.Geocode(context.Background(), "SuperMart", "12 Main Rd")
	require.NoError(t, err)
	assert.InDelta(t, -26.2, coords.Latitude, 1e-9)

	_, err = mock.Geocode(context.Background(), "Unknown", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}
