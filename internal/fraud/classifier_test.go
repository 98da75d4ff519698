package fraud

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailrewards/rewards-backend/internal/geo"
	"github.com/retailrewards/rewards-backend/internal/models"
)

// pointAtKm returns a coordinate roughly km kilometers due north of origin
func pointAtKm(origin geo.Coordinates, km float64) *geo.Coordinates {
	return &geo.Coordinates{
		Latitude:  origin.Latitude + km/111.19,
		Longitude: origin.Longitude,
	}
}

func TestClassify_DistanceBands(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	origin := geo.Coordinates{Latitude: -26.2041, Longitude: 28.0473}

	tests := []struct {
		name       string
		distanceKm float64
		wantFlag   models.FraudFlag
		wantScore  int
	}{
		{"10 km is valid", 10, models.FraudFlagValid, 4},
		{"just inside valid band", 49, models.FraudFlagValid, 19},
		{"75 km needs review", 75, models.FraudFlagReview, 40},
		{"150 km is suspicious", 150, models.FraudFlagSuspicious, 70},
		{"250 km is flagged", 250, models.FraudFlagFlagged, 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.Classify(&origin, pointAtKm(origin, tt.distanceKm))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFlag, v.Flag)
			assert.Equal(t, tt.wantScore, v.Score)
			require.NotNil(t, v.DistanceKm)
			assert.InDelta(t, tt.distanceKm, *v.DistanceKm, 1)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

func TestClassify_SeverityMonotonicInDistance(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	origin := geo.Coordinates{Latitude: 0, Longitude: 0}

	prevSeverity := -1
	for km := 0.0; km <= 400; km += 5 {
		v, err := c.Classify(&origin, pointAtKm(origin, km))
		require.NoError(t, err)
		sev := v.Flag.Severity()
		assert.GreaterOrEqual(t, sev, prevSeverity, "severity regressed at %.0f km", km)
		prevSeverity = sev
	}
}

func TestClassify_MissingCoordinates(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	point := &geo.Coordinates{Latitude: -26.2, Longitude: 28.0}

	tests := []struct {
		name         string
		shop, upload *geo.Coordinates
	}{
		{"no shop location", nil, point},
		{"no upload location", point, nil},
		{"neither location", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.Classify(tt.shop, tt.upload)
			require.NoError(t, err)
			assert.Equal(t, models.FraudFlagReview, v.Flag)
			assert.Equal(t, 50, v.Score)
			assert.Equal(t, "insufficient location data", v.Reason)
			assert.Nil(t, v.DistanceKm)
		})
	}
}

func TestClassify_InvalidCoordinatePropagates(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	good := &geo.Coordinates{Latitude: -26.2, Longitude: 28.0}
	bad := &geo.Coordinates{Latitude: math.NaN(), Longitude: 28.0}

	_, err := c.Classify(bad, good)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidCoordinate))
}

func TestClassify_CustomThresholds(t *testing.T) {
	c := NewClassifier(Thresholds{ValidKm: 10, ReviewKm: 20, SuspiciousKm: 30})
	origin := geo.Coordinates{Latitude: 0, Longitude: 0}

	v, err := c.Classify(&origin, pointAtKm(origin, 15))
	require.NoError(t, err)
	assert.Equal(t, models.FraudFlagReview, v.Flag)

	v, err = c.Classify(&origin, pointAtKm(origin, 35))
	require.NoError(t, err)
	assert.Equal(t, models.FraudFlagFlagged, v.Flag)

	assert.Equal(t, 10.0, c.Thresholds().ValidKm)
}
