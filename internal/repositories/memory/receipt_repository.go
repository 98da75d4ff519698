package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
)

var _ repositories.ReceiptRepository = (*ReceiptRepository)(nil)

// ReceiptRepository is an in-memory ReceiptRepository
type ReceiptRepository struct {
	mu       sync.Mutex
	receipts []*models.Receipt
}

// NewReceiptRepository creates an empty in-memory receipt store
func NewReceiptRepository() *ReceiptRepository {
	return &ReceiptRepository{}
}

func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if receipt.ID.IsZero() {
		receipt.ID = primitive.NewObjectID()
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now().UTC()
	}
	receipt.UpdatedAt = receipt.CreatedAt
	copied := *receipt
	r.receipts = append(r.receipts, &copied)
	return nil
}

func (r *ReceiptRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, receipt := range r.receipts {
		if receipt.ID == id {
			r.receipts = append(r.receipts[:i], r.receipts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *ReceiptRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, receipt := range r.receipts {
		if receipt.ID == id {
			copied := *receipt
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *ReceiptRepository) FindByCustomerPhone(ctx context.Context, phone string, skip, limit int) ([]*models.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := r.filterLocked(func(receipt *models.Receipt) bool {
		return receipt.CustomerPhone == phone
	})
	sortNewestFirst(matched)
	return page(matched, skip, limit), nil
}

func (r *ReceiptRepository) Find(ctx context.Context, filter repositories.ReceiptFilter, skip, limit int) ([]*models.Receipt, error) {
	var start, end time.Time
	if filter.Date != "" {
		parsed, err := time.Parse(models.DrawDateLayout, filter.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", filter.Date, err)
		}
		start, end = parsed, parsed.AddDate(0, 0, 1)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	matched := r.filterLocked(func(receipt *models.Receipt) bool {
		if filter.Date != "" && (receipt.CreatedAt.Before(start) || !receipt.CreatedAt.Before(end)) {
			return false
		}
		if filter.Status != "" && receipt.Status != filter.Status {
			return false
		}
		if filter.FraudFlag != "" && receipt.FraudFlag != filter.FraudFlag {
			return false
		}
		return true
	})
	sortNewestFirst(matched)
	return page(matched, skip, limit), nil
}

func (r *ReceiptRepository) FindEligibleForDraw(ctx context.Context, date string) ([]*models.Receipt, error) {
	start, err := time.Parse(models.DrawDateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	end := start.AddDate(0, 0, 1)

	r.mu.Lock()
	defer r.mu.Unlock()
	matched := r.filterLocked(func(receipt *models.Receipt) bool {
		if receipt.CreatedAt.Before(start) || !receipt.CreatedAt.Before(end) {
			return false
		}
		if receipt.Status != models.ReceiptStatusProcessed {
			return false
		}
		return receipt.FraudFlag == models.FraudFlagValid || receipt.FraudFlag == models.FraudFlagReview
	})
	return matched, nil
}

func (r *ReceiptRepository) FindNeedingReview(ctx context.Context, skip, limit int) ([]*models.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := r.filterLocked(func(receipt *models.Receipt) bool {
		switch receipt.FraudFlag {
		case models.FraudFlagReview, models.FraudFlagSuspicious, models.FraudFlagFlagged:
			return true
		}
		return false
	})
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].FraudScore > matched[j].FraudScore
	})
	return page(matched, skip, limit), nil
}

func (r *ReceiptRepository) FraudStats(ctx context.Context) (*models.FraudStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.FraudStats{}
	for _, receipt := range r.receipts {
		stats.TotalReceipts++
		switch receipt.FraudFlag {
		case models.FraudFlagValid:
			stats.Valid++
		case models.FraudFlagReview:
			stats.Review++
		case models.FraudFlagSuspicious:
			stats.Suspicious++
		case models.FraudFlagFlagged:
			stats.Flagged++
		}
	}
	if stats.TotalReceipts > 0 {
		flaggedish := stats.Review + stats.Suspicious + stats.Flagged
		stats.FraudRate = float64(flaggedish) / float64(stats.TotalReceipts) * 100
	}
	return stats, nil
}

func (r *ReceiptRepository) MarkWon(ctx context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, receipt := range r.receipts {
		if receipt.ID == id {
			if receipt.Status != models.ReceiptStatusProcessed {
				return false, nil
			}
			receipt.Status = models.ReceiptStatusWon
			receipt.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *ReceiptRepository) ReleaseWon(ctx context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, receipt := range r.receipts {
		if receipt.ID == id {
			if receipt.Status != models.ReceiptStatusWon {
				return false, nil
			}
			receipt.Status = models.ReceiptStatusProcessed
			receipt.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *ReceiptRepository) OverrideReview(ctx context.Context, id primitive.ObjectID, status models.ReceiptStatus, flag models.FraudFlag, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, receipt := range r.receipts {
		if receipt.ID == id {
			receipt.Status = status
			receipt.FraudFlag = flag
			receipt.FraudReason = reason
			receipt.UpdatedAt = time.Now()
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *ReceiptRepository) filterLocked(keep func(*models.Receipt) bool) []*models.Receipt {
	matched := []*models.Receipt{}
	for _, receipt := range r.receipts {
		if keep(receipt) {
			copied := *receipt
			matched = append(matched, &copied)
		}
	}
	return matched
}

func sortNewestFirst(receipts []*models.Receipt) {
	sort.SliceStable(receipts, func(i, j int) bool {
		return receipts[i].CreatedAt.After(receipts[j].CreatedAt)
	})
}

func page(receipts []*models.Receipt, skip, limit int) []*models.Receipt {
	if skip >= len(receipts) {
		return []*models.Receipt{}
	}
	receipts = receipts[skip:]
	if limit > 0 && limit < len(receipts) {
		receipts = receipts[:limit]
	}
	return receipts
}
