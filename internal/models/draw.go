package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawStatus represents the status of a daily draw
type DrawStatus string

const (
	DrawStatusPending   DrawStatus = "pending"
	DrawStatusCompleted DrawStatus = "completed"
	DrawStatusNoEntries DrawStatus = "no_entries"
)

// DrawDateLayout is the calendar-date key format for draws
const DrawDateLayout = "2006-01-02"

// Draw represents one per-day prize selection over the eligible receipt
// pool. A unique index on DrawDate enforces one draw per calendar date;
// a completed draw is final.
type Draw struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	DrawDate            string              `bson:"drawDate" json:"drawDate"`
	TotalReceipts       int                 `bson:"totalReceipts" json:"totalReceipts"`
	TotalAmount         float64             `bson:"totalAmount" json:"totalAmount"`
	WinnerReceiptID     *primitive.ObjectID `bson:"winnerReceiptId,omitempty" json:"winnerReceiptId,omitempty"`
	WinnerCustomerID    *primitive.ObjectID `bson:"winnerCustomerId,omitempty" json:"winnerCustomerId,omitempty"`
	WinnerCustomerPhone string              `bson:"winnerCustomerPhone,omitempty" json:"winnerCustomerPhone,omitempty"`
	PrizeAmount         float64             `bson:"prizeAmount" json:"prizeAmount"`
	Status              DrawStatus          `bson:"status" json:"status"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// FraudStats summarises receipt counts per fraud flag for reporting
type FraudStats struct {
	TotalReceipts int     `json:"totalReceipts"`
	Valid         int     `json:"valid"`
	Review        int     `json:"review"`
	Suspicious    int     `json:"suspicious"`
	Flagged       int     `json:"flagged"`
	FraudRate     float64 `json:"fraudRate"`
}
