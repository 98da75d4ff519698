package fraud

import (
	"fmt"

	"github.com/retailrewards/rewards-backend/internal/geo"
	"github.com/retailrewards/rewards-backend/internal/models"
)

// Thresholds are the distance band boundaries in kilometers. They are
// configuration, not law: operators may move them without a code change.
type Thresholds struct {
	ValidKm      float64 `json:"validKm"`
	ReviewKm     float64 `json:"reviewKm"`
	SuspiciousKm float64 `json:"suspiciousKm"`
}

// DefaultThresholds returns the standard 50/100/200 km bands
func DefaultThresholds() Thresholds {
	return Thresholds{ValidKm: 50, ReviewKm: 100, SuspiciousKm: 200}
}

// Verdict is the outcome of classifying one receipt's location signal
type Verdict struct {
	Flag       models.FraudFlag `json:"fraudFlag"`
	Score      int              `json:"fraudScore"`
	Reason     string           `json:"fraudReason,omitempty"`
	DistanceKm *float64         `json:"distanceKm,omitempty"`
}

// Classifier scores receipts for location-consistency fraud
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a Classifier with the given band boundaries
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Thresholds returns the active band boundaries for inspection
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// InsufficientDataVerdict is the neutral outcome when either coordinate
// pair is missing. It is also the fallback the ingestion pipeline uses when
// classification fails on bad coordinates: a receipt is always recorded.
func InsufficientDataVerdict() Verdict {
	return Verdict{
		Flag:   models.FraudFlagReview,
		Score:  50,
		Reason: "insufficient location data",
	}
}

// Classify produces a verdict from the shop and upload locations. Either
// pair may be nil. An invalid coordinate surfaces as ErrInvalidCoordinate
// for the caller to degrade as it sees fit.
func (c *Classifier) Classify(shop, upload *geo.Coordinates) (Verdict, error) {
	if shop == nil || upload == nil {
		return InsufficientDataVerdict(), nil
	}

	distance, err := geo.DistanceKm(*shop, *upload)
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{DistanceKm: &distance}
	switch {
	case distance < c.thresholds.ValidKm:
		v.Flag = models.FraudFlagValid
		// linear 0-20 across the valid band
		v.Score = int(distance / c.thresholds.ValidKm * 20)
		v.Reason = "within expected shopping radius"
	case distance <= c.thresholds.ReviewKm:
		v.Flag = models.FraudFlagReview
		v.Score = 40
		v.Reason = "moderate distance between shop and upload location"
	case distance <= c.thresholds.SuspiciousKm:
		v.Flag = models.FraudFlagSuspicious
		v.Score = 70
		v.Reason = fmt.Sprintf("large distance (%.0f km) - possible location spoofing", distance)
	default:
		v.Flag = models.FraudFlagFlagged
		v.Score = 95
		v.Reason = fmt.Sprintf("extreme distance (%.0f km) - blocked from draw pool", distance)
	}
	return v, nil
}
