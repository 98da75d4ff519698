package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shop represents a retail location referenced by receipts. Coordinates may
// be nil until the geocoding collaborator backfills them; receipts ingested
// before that legitimately classify as "review".
type Shop struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	// NameKey is the lower-cased trimmed name. A unique index on it makes
	// create-on-first-sight safe under concurrent ingestion.
	NameKey      string   `bson:"nameKey" json:"-"`
	Address      string   `bson:"address,omitempty" json:"address,omitempty"`
	Latitude     *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude    *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
	ReceiptCount int      `bson:"receiptCount" json:"receiptCount"`
	TotalSales   float64  `bson:"totalSales" json:"totalSales"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
