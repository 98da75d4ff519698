package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/retailrewards/rewards-backend/internal/fraud"
	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
)

// IngestReceiptInput carries one pre-extracted receipt submission. Text
// extraction happens upstream; by the time a submission reaches us the
// fields below are all there is.
type IngestReceiptInput struct {
	CustomerPhone string
	CustomerName  string
	ShopName      string
	ShopAddress   string
	Amount        float64
	Currency      string
	Items         []models.ReceiptItem
	RawText       string

	UploadLatitude  *float64
	UploadLongitude *float64
	UploadAddress   string

	ShopLatitude  *float64
	ShopLongitude *float64
}

// IngestionService runs the receipt ingestion pipeline: resolve the
// customer and shop, classify the location signal, persist the receipt
// and update the aggregates.
type IngestionService interface {
	IngestReceipt(ctx context.Context, input IngestReceiptInput) (*models.Receipt, error)
}

// DrawService defines the interface for draw-related operations
type DrawService interface {
	// RunDrawForDate runs (or re-runs) the daily draw for a YYYY-MM-DD
	// date. Completed draws are returned as-is; no_entries draws get
	// another attempt.
	RunDrawForDate(ctx context.Context, date string) (*models.Draw, error)

	// GetDrawByDate retrieves the draw for a calendar date
	GetDrawByDate(ctx context.Context, date string) (*models.Draw, error)

	// GetDraws retrieves draws, newest first
	GetDraws(ctx context.Context, page, limit int) ([]*models.Draw, error)

	// GetWinsByPhone retrieves a customer's winning draws
	GetWinsByPhone(ctx context.Context, phone string) ([]*models.Draw, error)
}

// ReceiptService defines the query and manual-review surface for receipts
type ReceiptService interface {
	GetReceiptByID(ctx context.Context, id primitive.ObjectID) (*models.Receipt, error)
	GetReceiptsByCustomer(ctx context.Context, phone string, page, limit int) ([]*models.Receipt, error)
	GetReceipts(ctx context.Context, filter repositories.ReceiptFilter, page, limit int) ([]*models.Receipt, error)
	GetReceiptsNeedingReview(ctx context.Context, page, limit int) ([]*models.Receipt, error)
	GetFraudStats(ctx context.Context) (*models.FraudStats, error)
	// Thresholds reports the distance bands the classifier is running with
	Thresholds() fraud.Thresholds
	// ReviewReceipt applies a manual approve/reject decision to a receipt
	// held for review. Rejection rolls the customer and shop aggregates
	// back.
	ReviewReceipt(ctx context.Context, id primitive.ObjectID, approve bool, reason string) (*models.Receipt, error)
}

// CustomerService defines the query surface for customers
type CustomerService interface {
	GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error)
	GetCustomers(ctx context.Context, page, limit int) ([]*models.Customer, error)
	CountCustomers(ctx context.Context) (int64, error)
}

// ShopService defines the query surface for shops
type ShopService interface {
	GetShopByID(ctx context.Context, id primitive.ObjectID) (*models.Shop, error)
	GetShops(ctx context.Context, page, limit int) ([]*models.Shop, error)
	CountShops(ctx context.Context) (int64, error)
}
