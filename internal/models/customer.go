package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Customer represents a participant identified by their phone number.
// Aggregate fields are maintained by atomic increments only.
type Customer struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PhoneNumber   string             `bson:"phoneNumber" json:"phoneNumber"`
	Name          string             `bson:"name,omitempty" json:"name,omitempty"`
	TotalReceipts int                `bson:"totalReceipts" json:"totalReceipts"`
	TotalSpent    float64            `bson:"totalSpent" json:"totalSpent"`
	TotalWins     int                `bson:"totalWins" json:"totalWins"`
	TotalWinnings float64            `bson:"totalWinnings" json:"totalWinnings"`
	LastLatitude  *float64           `bson:"lastLatitude,omitempty" json:"lastLatitude,omitempty"`
	LastLongitude *float64           `bson:"lastLongitude,omitempty" json:"lastLongitude,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
