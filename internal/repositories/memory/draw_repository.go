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

var _ repositories.DrawRepository = (*DrawRepository)(nil)

// DrawRepository is an in-memory DrawRepository. The mutex stands in for
// the unique drawDate index, so the claim protocol behaves the same way.
type DrawRepository struct {
	mu     sync.Mutex
	byDate map[string]*models.Draw
}

// NewDrawRepository creates an empty in-memory draw store
func NewDrawRepository() *DrawRepository {
	return &DrawRepository{byDate: map[string]*models.Draw{}}
}

func (r *DrawRepository) Claim(ctx context.Context, date string, now time.Time) (*models.Draw, bool, error) {
	if _, err := time.Parse(models.DrawDateLayout, date); err != nil {
		return nil, false, fmt.Errorf("invalid draw date %q: %w", date, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byDate[date]; ok {
		if existing.Status != models.DrawStatusNoEntries {
			copied := *existing
			return &copied, false, nil
		}
		existing.Status = models.DrawStatusPending
		existing.UpdatedAt = now
		copied := *existing
		return &copied, true, nil
	}

	draw := &models.Draw{
		ID:        primitive.NewObjectID(),
		DrawDate:  date,
		Status:    models.DrawStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.byDate[date] = draw
	copied := *draw
	return &copied, true, nil
}

func (r *DrawRepository) Complete(ctx context.Context, draw *models.Draw) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byDate[draw.DrawDate]
	if !ok || stored.ID != draw.ID || stored.Status != models.DrawStatusPending {
		return models.ErrDuplicateDraw
	}
	draw.Status = models.DrawStatusCompleted
	draw.UpdatedAt = time.Now()
	copied := *draw
	r.byDate[draw.DrawDate] = &copied
	return nil
}

func (r *DrawRepository) MarkNoEntries(ctx context.Context, id primitive.ObjectID, totalReceipts int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, draw := range r.byDate {
		if draw.ID == id && draw.Status == models.DrawStatusPending {
			draw.Status = models.DrawStatusNoEntries
			draw.TotalReceipts = totalReceipts
			draw.UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}

func (r *DrawRepository) FindByDate(ctx context.Context, date string) (*models.Draw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	draw, ok := r.byDate[date]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *draw
	return &copied, nil
}

func (r *DrawRepository) FindAll(ctx context.Context, skip, limit int) ([]*models.Draw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	draws := []*models.Draw{}
	for _, draw := range r.byDate {
		copied := *draw
		draws = append(draws, &copied)
	}
	sort.Slice(draws, func(i, j int) bool { return draws[i].DrawDate > draws[j].DrawDate })
	if skip >= len(draws) {
		return []*models.Draw{}, nil
	}
	draws = draws[skip:]
	if limit > 0 && limit < len(draws) {
		draws = draws[:limit]
	}
	return draws, nil
}

func (r *DrawRepository) FindByWinnerPhone(ctx context.Context, phone string) ([]*models.Draw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	draws := []*models.Draw{}
	for _, draw := range r.byDate {
		if draw.WinnerCustomerPhone == phone {
			copied := *draw
			draws = append(draws, &copied)
		}
	}
	sort.Slice(draws, func(i, j int) bool { return draws[i].DrawDate > draws[j].DrawDate })
	return draws, nil
}
