package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/retailrewards/rewards-backend/internal/models"
)

// CustomerRepository handles Customer persistence. Aggregate mutations are
// atomic increments so concurrent ingestions never lose updates.
type CustomerRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	FindOrCreate(ctx context.Context, phone, name string) (*models.Customer, error)
	FindAll(ctx context.Context, skip, limit int) ([]*models.Customer, error)
	Count(ctx context.Context) (int64, error)
	// ApplyReceipt increments totalReceipts by delta and totalSpent by
	// amount. Negative values roll an ingestion back on manual rejection.
	ApplyReceipt(ctx context.Context, id primitive.ObjectID, delta int, amount float64) error
	// ApplyWin increments totalWins by one and totalWinnings by prize
	ApplyWin(ctx context.Context, id primitive.ObjectID, prize float64) error
	UpdateLastLocation(ctx context.Context, phone string, lat, lon float64) error
}

// ShopRepository handles Shop persistence
type ShopRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Shop, error)
	// FindOrCreate resolves a shop by case-insensitive trimmed name,
	// creating it on first sight. Safe under concurrent ingestion.
	FindOrCreate(ctx context.Context, name, address string, lat, lon *float64) (*models.Shop, error)
	FindAll(ctx context.Context, skip, limit int) ([]*models.Shop, error)
	Count(ctx context.Context) (int64, error)
	ApplyReceipt(ctx context.Context, id primitive.ObjectID, delta int, amount float64) error
	UpdateCoordinates(ctx context.Context, id primitive.ObjectID, lat, lon float64) error
}

// ReceiptFilter narrows receipt queries for the dashboard surface
type ReceiptFilter struct {
	Date      string // YYYY-MM-DD, empty for any
	Status    models.ReceiptStatus
	FraudFlag models.FraudFlag
}

// ReceiptRepository handles Receipt persistence
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Receipt, error)
	FindByCustomerPhone(ctx context.Context, phone string, skip, limit int) ([]*models.Receipt, error)
	Find(ctx context.Context, filter ReceiptFilter, skip, limit int) ([]*models.Receipt, error)
	// FindEligibleForDraw returns the draw pool for a calendar date:
	// created that day (UTC), status processed, fraud flag valid or review.
	FindEligibleForDraw(ctx context.Context, date string) ([]*models.Receipt, error)
	// FindNeedingReview returns review/suspicious/flagged receipts ordered
	// by descending fraud score
	FindNeedingReview(ctx context.Context, skip, limit int) ([]*models.Receipt, error)
	FraudStats(ctx context.Context) (*models.FraudStats, error)
	// MarkWon transitions processed -> won; reports false when the receipt
	// was not in the processed state (already won or reviewed away)
	MarkWon(ctx context.Context, id primitive.ObjectID) (bool, error)
	// ReleaseWon reverts won -> processed when a draw fails after marking
	// its winner; reports false when the receipt was not in the won state
	ReleaseWon(ctx context.Context, id primitive.ObjectID) (bool, error)
	// OverrideReview applies a manual-review decision to status and the
	// fraud fields
	OverrideReview(ctx context.Context, id primitive.ObjectID, status models.ReceiptStatus, flag models.FraudFlag, reason string) error
}

// DrawRepository handles Draw persistence. The claim protocol keeps
// concurrent invocations from both drawing the same date.
type DrawRepository interface {
	// Claim attempts to take ownership of a date by inserting a pending
	// draw. When the date is already taken the existing draw is returned
	// with claimed == false, except that a no_entries draw may be
	// re-claimed for another attempt.
	Claim(ctx context.Context, date string, now time.Time) (draw *models.Draw, claimed bool, err error)
	// Complete finalises a pending draw; no-op if the draw is not pending
	Complete(ctx context.Context, draw *models.Draw) error
	// MarkNoEntries finalises a pending draw as having had an empty pool
	MarkNoEntries(ctx context.Context, id primitive.ObjectID, totalReceipts int) error
	FindByDate(ctx context.Context, date string) (*models.Draw, error)
	FindAll(ctx context.Context, skip, limit int) ([]*models.Draw, error)
	FindByWinnerPhone(ctx context.Context, phone string) ([]*models.Draw, error)
}
