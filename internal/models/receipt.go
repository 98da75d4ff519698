package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReceiptStatus represents the processing status of a receipt
type ReceiptStatus string

const (
	ReceiptStatusProcessed     ReceiptStatus = "processed"
	ReceiptStatusPendingReview ReceiptStatus = "pending_review"
	ReceiptStatusWon           ReceiptStatus = "won"
	ReceiptStatusRejected      ReceiptStatus = "rejected"
)

// FraudFlag ranks the trustworthiness of a receipt's location signal
type FraudFlag string

const (
	FraudFlagValid      FraudFlag = "valid"
	FraudFlagReview     FraudFlag = "review"
	FraudFlagSuspicious FraudFlag = "suspicious"
	FraudFlagFlagged    FraudFlag = "flagged"
)

// Severity returns the rank of a fraud flag for ordering checks
// (valid < review < suspicious < flagged).
func (f FraudFlag) Severity() int {
	switch f {
	case FraudFlagValid:
		return 0
	case FraudFlagReview:
		return 1
	case FraudFlagSuspicious:
		return 2
	case FraudFlagFlagged:
		return 3
	default:
		return -1
	}
}

// ReceiptItem is a single line item extracted from a receipt
type ReceiptItem struct {
	Name     string  `bson:"name" json:"name"`
	Price    float64 `bson:"price" json:"price"`
	Quantity int     `bson:"quantity,omitempty" json:"quantity,omitempty"`
}

// Receipt represents one submitted proof of purchase. Immutable after
// creation except for status transitions and a one-time manual-review
// override of the fraud fields.
type Receipt struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	CustomerID    primitive.ObjectID  `bson:"customerId" json:"customerId"`
	CustomerPhone string              `bson:"customerPhone" json:"customerPhone"`
	ShopID        *primitive.ObjectID `bson:"shopId,omitempty" json:"shopId,omitempty"`
	ShopName      string              `bson:"shopName,omitempty" json:"shopName,omitempty"`
	Amount        float64             `bson:"amount" json:"amount"`
	Currency      string              `bson:"currency" json:"currency"`
	Items         []ReceiptItem       `bson:"items,omitempty" json:"items,omitempty"`
	RawText       string              `bson:"rawText,omitempty" json:"rawText,omitempty"`

	// Customer location at upload time
	UploadLatitude  *float64 `bson:"uploadLatitude,omitempty" json:"uploadLatitude,omitempty"`
	UploadLongitude *float64 `bson:"uploadLongitude,omitempty" json:"uploadLongitude,omitempty"`
	UploadAddress   string   `bson:"uploadAddress,omitempty" json:"uploadAddress,omitempty"`

	// Shop location as known at classification time
	ShopLatitude  *float64 `bson:"shopLatitude,omitempty" json:"shopLatitude,omitempty"`
	ShopLongitude *float64 `bson:"shopLongitude,omitempty" json:"shopLongitude,omitempty"`
	ShopAddress   string   `bson:"shopAddress,omitempty" json:"shopAddress,omitempty"`

	// DistanceKm is nil unless both coordinate pairs were present
	DistanceKm  *float64  `bson:"distanceKm,omitempty" json:"distanceKm,omitempty"`
	FraudFlag   FraudFlag `bson:"fraudFlag" json:"fraudFlag"`
	FraudScore  int       `bson:"fraudScore" json:"fraudScore"`
	FraudReason string    `bson:"fraudReason,omitempty" json:"fraudReason,omitempty"`

	Status    ReceiptStatus `bson:"status" json:"status"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}
