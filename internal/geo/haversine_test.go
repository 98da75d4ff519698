package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailrewards/rewards-backend/internal/models"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Coordinates
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "Johannesburg to Pretoria",
			a:         Coordinates{-26.2041, 28.0473},
			b:         Coordinates{-25.7479, 28.2293},
			wantKm:    54,
			tolerance: 3,
		},
		{
			name:      "Cape Town to Johannesburg",
			a:         Coordinates{-33.9249, 18.4241},
			b:         Coordinates{-26.2041, 28.0473},
			wantKm:    1265,
			tolerance: 15,
		},
		{
			name:      "one degree of latitude at the equator",
			a:         Coordinates{0, 0},
			b:         Coordinates{1, 0},
			wantKm:    111.19,
			tolerance: 0.5,
		},
		{
			name:      "antipodal points",
			a:         Coordinates{0, 0},
			b:         Coordinates{0, 180},
			wantKm:    math.Pi * EarthRadiusKm,
			tolerance: 0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DistanceKm(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantKm, got, tt.tolerance)
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][2]Coordinates{
		{{-26.2041, 28.0473}, {-33.9249, 18.4241}},
		{{51.5074, -0.1278}, {40.7128, -74.0060}},
		{{-90, 0}, {90, 0}},
		{{10.5, -170.25}, {-45.125, 179.9}},
	}
	for _, p := range pairs {
		ab, err := DistanceKm(p[0], p[1])
		require.NoError(t, err)
		ba, err := DistanceKm(p[1], p[0])
		require.NoError(t, err)
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	points := []Coordinates{
		{0, 0},
		{-26.2041, 28.0473},
		{89.999, 179.999},
	}
	for _, p := range points {
		d, err := DistanceKm(p, p)
		require.NoError(t, err)
		assert.Less(t, d, 1e-6)
	}
}

func TestDistanceKm_InvalidCoordinates(t *testing.T) {
	valid := Coordinates{-26.2, 28.0}
	tests := []struct {
		name string
		bad  Coordinates
	}{
		{"latitude above range", Coordinates{90.01, 0}},
		{"latitude below range", Coordinates{-91, 0}},
		{"longitude above range", Coordinates{0, 180.5}},
		{"longitude below range", Coordinates{0, -181}},
		{"NaN latitude", Coordinates{math.NaN(), 0}},
		{"infinite longitude", Coordinates{0, math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DistanceKm(tt.bad, valid)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidCoordinate))

			_, err = DistanceKm(valid, tt.bad)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidCoordinate))
		})
	}
}
