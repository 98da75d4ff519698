package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
	"github.com/retailrewards/rewards-backend/pkg/notifier"
)

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

// DrawServiceImpl handles the daily draw lifecycle
type DrawServiceImpl struct {
	drawRepo     repositories.DrawRepository
	receiptRepo  repositories.ReceiptRepository
	customerRepo repositories.CustomerRepository
	notifier     notifier.Notifier
}

// NewDrawService creates a new DrawServiceImpl
func NewDrawService(
	drawRepo repositories.DrawRepository,
	receiptRepo repositories.ReceiptRepository,
	customerRepo repositories.CustomerRepository,
	winnerNotifier notifier.Notifier,
) *DrawServiceImpl {
	return &DrawServiceImpl{
		drawRepo:     drawRepo,
		receiptRepo:  receiptRepo,
		customerRepo: customerRepo,
		notifier:     winnerNotifier,
	}
}

// RunDrawForDate runs the daily draw for a YYYY-MM-DD date. Safe to call
// repeatedly and concurrently: the date claim admits one runner, a
// completed draw is returned unchanged, and a no_entries draw gets
// another attempt.
func (s *DrawServiceImpl) RunDrawForDate(ctx context.Context, date string) (*models.Draw, error) {
	draw, claimed, err := s.drawRepo.Claim(ctx, date, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to claim draw date: %w", err)
	}
	if !claimed {
		// Completed by an earlier run, or another runner holds the claim
		slog.Info("Draw date already taken", "date", date, "status", draw.Status)
		return draw, nil
	}

	pool, err := s.receiptRepo.FindEligibleForDraw(ctx, date)
	if err != nil {
		s.releaseClaim(ctx, draw.ID, date)
		return nil, fmt.Errorf("failed to load draw pool: %w", err)
	}
	poolSize := len(pool)

	totalAmount := 0.0
	for _, receipt := range pool {
		totalAmount += receipt.Amount
	}

	winner, err := s.pickWinner(ctx, pool)
	if err != nil {
		s.releaseClaim(ctx, draw.ID, date)
		return nil, err
	}
	if winner == nil {
		if err := s.drawRepo.MarkNoEntries(ctx, draw.ID, poolSize); err != nil {
			return nil, fmt.Errorf("failed to record empty draw: %w", err)
		}
		draw.Status = models.DrawStatusNoEntries
		draw.TotalReceipts = poolSize
		slog.Info("Draw found no eligible receipts", "date", date, "poolSize", poolSize)
		return draw, nil
	}

	// The prize refunds the winning purchase
	draw.TotalReceipts = poolSize
	draw.TotalAmount = totalAmount
	draw.WinnerReceiptID = &winner.ID
	draw.WinnerCustomerID = &winner.CustomerID
	draw.WinnerCustomerPhone = winner.CustomerPhone
	draw.PrizeAmount = winner.Amount
	if err := s.drawRepo.Complete(ctx, draw); err != nil {
		// Put the winning receipt back in the pool and release the claim
		// so a retry can draw the date cleanly
		if released, relErr := s.receiptRepo.ReleaseWon(ctx, winner.ID); relErr != nil {
			slog.Error("Failed to release winning receipt", "receiptId", winner.ID.Hex(), "error", relErr)
		} else if !released {
			slog.Error("Winning receipt no longer held after failed draw", "receiptId", winner.ID.Hex())
		}
		s.releaseClaim(ctx, draw.ID, date)
		return nil, fmt.Errorf("failed to complete draw: %w", err)
	}

	if err := s.customerRepo.ApplyWin(ctx, winner.CustomerID, winner.Amount); err != nil {
		slog.Error("Failed to update winner aggregates", "customerId", winner.CustomerID.Hex(), "error", err)
	}

	// A notification failure never unwinds a completed draw
	if s.notifier != nil {
		messageID, err := s.notifier.NotifyWinner(ctx, winner.CustomerPhone, winner.Amount, date)
		if err != nil {
			slog.Error("Failed to notify winner", "phone", maskPhone(winner.CustomerPhone), "date", date, "error", err)
		} else {
			slog.Info("Winner notified", "phone", maskPhone(winner.CustomerPhone), "date", date, "messageId", messageID)
		}
	}

	slog.Info("Draw completed",
		"date", date,
		"totalReceipts", draw.TotalReceipts,
		"totalAmount", draw.TotalAmount,
		"winnerPhone", maskPhone(winner.CustomerPhone),
		"prizeAmount", draw.PrizeAmount,
	)
	return draw, nil
}

// pickWinner selects a uniformly random receipt from the pool and marks
// it won. Receipts that lost the processed state since the pool was read
// are dropped and the selection repeats. Returns nil when the pool is
// exhausted. The caller's slice is left untouched.
func (s *DrawServiceImpl) pickWinner(ctx context.Context, pool []*models.Receipt) (*models.Receipt, error) {
	candidates := append([]*models.Receipt(nil), pool...)
	for len(candidates) > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(candidates))))
		if err != nil {
			return nil, fmt.Errorf("failed to draw random index: %w", err)
		}
		i := int(n.Int64())
		won, err := s.receiptRepo.MarkWon(ctx, candidates[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to mark winning receipt: %w", err)
		}
		if won {
			return candidates[i], nil
		}
		candidates = append(candidates[:i], candidates[i+1:]...)
	}
	return nil, nil
}

// releaseClaim returns a claimed date to the re-claimable no_entries
// state after a failed run, so a retry is not locked out
func (s *DrawServiceImpl) releaseClaim(ctx context.Context, id primitive.ObjectID, date string) {
	if err := s.drawRepo.MarkNoEntries(ctx, id, 0); err != nil {
		slog.Error("Failed to release draw claim", "date", date, "error", err)
	}
}

// GetDrawByDate retrieves the draw for a calendar date
func (s *DrawServiceImpl) GetDrawByDate(ctx context.Context, date string) (*models.Draw, error) {
	return s.drawRepo.FindByDate(ctx, date)
}

// GetDraws retrieves draws, newest first
func (s *DrawServiceImpl) GetDraws(ctx context.Context, page, limit int) ([]*models.Draw, error) {
	skip, limit := pagination(page, limit)
	return s.drawRepo.FindAll(ctx, skip, limit)
}

// GetWinsByPhone retrieves a customer's winning draws
func (s *DrawServiceImpl) GetWinsByPhone(ctx context.Context, phone string) ([]*models.Draw, error) {
	return s.drawRepo.FindByWinnerPhone(ctx, phone)
}

// pagination converts a 1-based page and limit to skip/limit with bounds
func pagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
