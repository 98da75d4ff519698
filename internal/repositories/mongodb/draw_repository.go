package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
)

// Compile-time check to ensure DrawRepository implements the interface
var _ repositories.DrawRepository = (*DrawRepository)(nil)

// DrawRepository handles MongoDB operations for Draw
type DrawRepository struct {
	collection *mongo.Collection
}

// NewDrawRepository creates a new DrawRepository
func NewDrawRepository(db *mongo.Database) *DrawRepository {
	return &DrawRepository{
		collection: db.Collection("draws"),
	}
}

// Claim takes ownership of a draw date. The unique index on drawDate is the
// arbiter: the insert succeeds for exactly one invocation. A no_entries
// draw may be re-claimed; pending and completed draws are returned as-is.
func (r *DrawRepository) Claim(ctx context.Context, date string, now time.Time) (*models.Draw, bool, error) {
	if _, err := time.Parse(models.DrawDateLayout, date); err != nil {
		return nil, false, fmt.Errorf("invalid draw date %q: %w", date, err)
	}

	draw := &models.Draw{
		ID:        primitive.NewObjectID(),
		DrawDate:  date,
		Status:    models.DrawStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.collection.InsertOne(ctx, draw)
	if err == nil {
		return draw, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, err
	}

	existing, err := r.FindByDate(ctx, date)
	if err != nil {
		return nil, false, err
	}
	if existing.Status != models.DrawStatusNoEntries {
		return existing, false, nil
	}

	// Re-arm a no_entries draw; the conditional update keeps two
	// re-claimers from both winning the date.
	filter := bson.M{"_id": existing.ID, "status": models.DrawStatusNoEntries}
	update := bson.M{"$set": bson.M{"status": models.DrawStatusPending, "updatedAt": now}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, false, err
	}
	if result.ModifiedCount == 0 {
		existing, err = r.FindByDate(ctx, date)
		return existing, false, err
	}
	existing.Status = models.DrawStatusPending
	existing.UpdatedAt = now
	return existing, true, nil
}

// Complete finalises a pending draw with its winner and totals
func (r *DrawRepository) Complete(ctx context.Context, draw *models.Draw) error {
	draw.Status = models.DrawStatusCompleted
	draw.UpdatedAt = time.Now()
	filter := bson.M{"_id": draw.ID, "status": models.DrawStatusPending}
	update := bson.M{"$set": bson.M{
		"status":              draw.Status,
		"totalReceipts":       draw.TotalReceipts,
		"totalAmount":         draw.TotalAmount,
		"winnerReceiptId":     draw.WinnerReceiptID,
		"winnerCustomerId":    draw.WinnerCustomerID,
		"winnerCustomerPhone": draw.WinnerCustomerPhone,
		"prizeAmount":         draw.PrizeAmount,
		"updatedAt":           draw.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return models.ErrDuplicateDraw
	}
	return nil
}

// MarkNoEntries finalises a pending draw that found an empty pool
func (r *DrawRepository) MarkNoEntries(ctx context.Context, id primitive.ObjectID, totalReceipts int) error {
	filter := bson.M{"_id": id, "status": models.DrawStatusPending}
	update := bson.M{"$set": bson.M{
		"status":        models.DrawStatusNoEntries,
		"totalReceipts": totalReceipts,
		"updatedAt":     time.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// FindByDate finds the draw for a calendar date
func (r *DrawRepository) FindByDate(ctx context.Context, date string) (*models.Draw, error) {
	var draw models.Draw
	err := r.collection.FindOne(ctx, bson.M{"drawDate": date}).Decode(&draw)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &draw, nil
}

// FindAll retrieves draws, newest first
func (r *DrawRepository) FindAll(ctx context.Context, skip, limit int) ([]*models.Draw, error) {
	opts := options.Find().
		SetSort(bson.M{"drawDate": -1}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var draws []*models.Draw
	if err := cursor.All(ctx, &draws); err != nil {
		return nil, err
	}
	if draws == nil {
		draws = []*models.Draw{}
	}
	return draws, nil
}

// FindByWinnerPhone retrieves a customer's winning draws, newest first
func (r *DrawRepository) FindByWinnerPhone(ctx context.Context, phone string) ([]*models.Draw, error) {
	opts := options.Find().SetSort(bson.M{"drawDate": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"winnerCustomerPhone": phone}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var draws []*models.Draw
	if err := cursor.All(ctx, &draws); err != nil {
		return nil, err
	}
	if draws == nil {
		draws = []*models.Draw{}
	}
	return draws, nil
}
