package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"

	"github.com/retailrewards/rewards-backend/internal/fraud"
	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
)

// Compile-time check to ensure ReceiptServiceImpl implements ReceiptService
var _ ReceiptService = (*ReceiptServiceImpl)(nil)

// ReceiptServiceImpl handles receipt queries and manual review
type ReceiptServiceImpl struct {
	receiptRepo  repositories.ReceiptRepository
	customerRepo repositories.CustomerRepository
	shopRepo     repositories.ShopRepository
	classifier   *fraud.Classifier
}

// NewReceiptService creates a new ReceiptServiceImpl
func NewReceiptService(
	receiptRepo repositories.ReceiptRepository,
	customerRepo repositories.CustomerRepository,
	shopRepo repositories.ShopRepository,
	classifier *fraud.Classifier,
) *ReceiptServiceImpl {
	return &ReceiptServiceImpl{
		receiptRepo:  receiptRepo,
		customerRepo: customerRepo,
		shopRepo:     shopRepo,
		classifier:   classifier,
	}
}

// GetReceiptByID retrieves a receipt by ID
func (s *ReceiptServiceImpl) GetReceiptByID(ctx context.Context, id primitive.ObjectID) (*models.Receipt, error) {
	return s.receiptRepo.FindByID(ctx, id)
}

// GetReceiptsByCustomer retrieves a customer's receipts, newest first
func (s *ReceiptServiceImpl) GetReceiptsByCustomer(ctx context.Context, phone string, page, limit int) ([]*models.Receipt, error) {
	skip, limit := pagination(page, limit)
	return s.receiptRepo.FindByCustomerPhone(ctx, phone, skip, limit)
}

// GetReceipts retrieves receipts matching the filter, newest first
func (s *ReceiptServiceImpl) GetReceipts(ctx context.Context, filter repositories.ReceiptFilter, page, limit int) ([]*models.Receipt, error) {
	skip, limit := pagination(page, limit)
	return s.receiptRepo.Find(ctx, filter, skip, limit)
}

// GetReceiptsNeedingReview retrieves receipts with an elevated fraud flag,
// highest score first
func (s *ReceiptServiceImpl) GetReceiptsNeedingReview(ctx context.Context, page, limit int) ([]*models.Receipt, error) {
	skip, limit := pagination(page, limit)
	return s.receiptRepo.FindNeedingReview(ctx, skip, limit)
}

// GetFraudStats aggregates receipt counts per fraud flag
func (s *ReceiptServiceImpl) GetFraudStats(ctx context.Context) (*models.FraudStats, error) {
	return s.receiptRepo.FraudStats(ctx)
}

// Thresholds reports the distance bands the classifier is running with
func (s *ReceiptServiceImpl) Thresholds() fraud.Thresholds {
	return s.classifier.Thresholds()
}

// ReviewReceipt applies a manual approve/reject decision. Approval clears
// the receipt into the eligible pool; rejection removes it and rolls the
// customer and shop aggregates back. Receipts that already won or were
// already rejected cannot be reviewed again.
func (s *ReceiptServiceImpl) ReviewReceipt(ctx context.Context, id primitive.ObjectID, approve bool, reason string) (*models.Receipt, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if receipt.Status != models.ReceiptStatusProcessed && receipt.Status != models.ReceiptStatusPendingReview {
		return nil, fmt.Errorf("receipt %s has status %s and cannot be reviewed", id.Hex(), receipt.Status)
	}

	status := models.ReceiptStatusProcessed
	flag := models.FraudFlagValid
	if !approve {
		status = models.ReceiptStatusRejected
		flag = models.FraudFlagFlagged
	}
	if reason == "" {
		reason = "manual review"
	}

	if err := s.receiptRepo.OverrideReview(ctx, id, status, flag, reason); err != nil {
		return nil, fmt.Errorf("failed to apply review decision: %w", err)
	}

	if !approve {
		// The ingestion counted this receipt; take it back out
		if err := s.customerRepo.ApplyReceipt(ctx, receipt.CustomerID, -1, -receipt.Amount); err != nil {
			slog.Error("Failed to roll back customer aggregates on rejection", "receiptId", id.Hex(), "error", err)
		}
		if receipt.ShopID != nil {
			if err := s.shopRepo.ApplyReceipt(ctx, *receipt.ShopID, -1, -receipt.Amount); err != nil {
				slog.Error("Failed to roll back shop aggregates on rejection", "receiptId", id.Hex(), "error", err)
			}
		}
	}

	slog.Info("Receipt reviewed", "receiptId", id.Hex(), "approved", approve, "reason", reason)
	return s.receiptRepo.FindByID(ctx, id)
}
