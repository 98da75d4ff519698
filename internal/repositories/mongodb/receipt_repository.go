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

// Compile-time check to ensure ReceiptRepository implements the interface
var _ repositories.ReceiptRepository = (*ReceiptRepository)(nil)

// ReceiptRepository handles MongoDB operations for Receipt
type ReceiptRepository struct {
	collection *mongo.Collection
}

// NewReceiptRepository creates a new ReceiptRepository
func NewReceiptRepository(db *mongo.Database) *ReceiptRepository {
	return &ReceiptRepository{
		collection: db.Collection("receipts"),
	}
}

// dayRange returns the [start, end) UTC window for a YYYY-MM-DD date
func dayRange(date string) (time.Time, time.Time, error) {
	start, err := time.Parse(models.DrawDateLayout, date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return start, start.AddDate(0, 0, 1), nil
}

// Create inserts a new receipt
func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID.IsZero() {
		receipt.ID = primitive.NewObjectID()
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now().UTC()
	}
	receipt.UpdatedAt = receipt.CreatedAt
	_, err := r.collection.InsertOne(ctx, receipt)
	return err
}

// Delete removes a receipt. Used only to compensate a failed ingestion.
func (r *ReceiptRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// FindByID finds a receipt by ID
func (r *ReceiptRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&receipt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// FindByCustomerPhone retrieves a customer's receipts, newest first
func (r *ReceiptRepository) FindByCustomerPhone(ctx context.Context, phone string, skip, limit int) ([]*models.Receipt, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"customerPhone": phone}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeReceipts(ctx, cursor)
}

// Find retrieves receipts matching the filter, newest first
func (r *ReceiptRepository) Find(ctx context.Context, filter repositories.ReceiptFilter, skip, limit int) ([]*models.Receipt, error) {
	query := bson.M{}
	if filter.Date != "" {
		start, end, err := dayRange(filter.Date)
		if err != nil {
			return nil, err
		}
		query["createdAt"] = bson.M{"$gte": start, "$lt": end}
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.FraudFlag != "" {
		query["fraudFlag"] = filter.FraudFlag
	}

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeReceipts(ctx, cursor)
}

// FindEligibleForDraw returns the draw pool for a calendar date: created
// that day, status processed, flag valid or review. Suspicious and flagged
// receipts never enter the pool.
func (r *ReceiptRepository) FindEligibleForDraw(ctx context.Context, date string) ([]*models.Receipt, error) {
	start, end, err := dayRange(date)
	if err != nil {
		return nil, err
	}
	query := bson.M{
		"createdAt": bson.M{"$gte": start, "$lt": end},
		"status":    models.ReceiptStatusProcessed,
		"fraudFlag": bson.M{"$in": []models.FraudFlag{models.FraudFlagValid, models.FraudFlagReview}},
	}
	cursor, err := r.collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeReceipts(ctx, cursor)
}

// FindNeedingReview returns review/suspicious/flagged receipts ordered by
// descending fraud score
func (r *ReceiptRepository) FindNeedingReview(ctx context.Context, skip, limit int) ([]*models.Receipt, error) {
	query := bson.M{
		"fraudFlag": bson.M{"$in": []models.FraudFlag{
			models.FraudFlagReview,
			models.FraudFlagSuspicious,
			models.FraudFlagFlagged,
		}},
	}
	opts := options.Find().
		SetSort(bson.M{"fraudScore": -1}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeReceipts(ctx, cursor)
}

// FraudStats aggregates receipt counts per fraud flag
func (r *ReceiptRepository) FraudStats(ctx context.Context) (*models.FraudStats, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$fraudFlag", "count": bson.M{"$sum": 1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Flag  models.FraudFlag `bson:"_id"`
		Count int              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	stats := &models.FraudStats{}
	for _, row := range rows {
		stats.TotalReceipts += row.Count
		switch row.Flag {
		case models.FraudFlagValid:
			stats.Valid = row.Count
		case models.FraudFlagReview:
			stats.Review = row.Count
		case models.FraudFlagSuspicious:
			stats.Suspicious = row.Count
		case models.FraudFlagFlagged:
			stats.Flagged = row.Count
		}
	}
	if stats.TotalReceipts > 0 {
		flaggedish := stats.Review + stats.Suspicious + stats.Flagged
		stats.FraudRate = float64(flaggedish) / float64(stats.TotalReceipts) * 100
	}
	return stats, nil
}

// MarkWon transitions a receipt from processed to won. The status guard in
// the filter means a receipt can win at most one draw.
func (r *ReceiptRepository) MarkWon(ctx context.Context, id primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": id, "status": models.ReceiptStatusProcessed}
	update := bson.M{"$set": bson.M{"status": models.ReceiptStatusWon, "updatedAt": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// ReleaseWon transitions a receipt from won back to processed. Used only
// when completing a draw fails after its winner was marked.
func (r *ReceiptRepository) ReleaseWon(ctx context.Context, id primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": id, "status": models.ReceiptStatusWon}
	update := bson.M{"$set": bson.M{"status": models.ReceiptStatusProcessed, "updatedAt": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// OverrideReview applies a manual-review decision
func (r *ReceiptRepository) OverrideReview(ctx context.Context, id primitive.ObjectID, status models.ReceiptStatus, flag models.FraudFlag, reason string) error {
	update := bson.M{
		"$set": bson.M{
			"status":      status,
			"fraudFlag":   flag,
			"fraudReason": reason,
			"updatedAt":   time.Now(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func decodeReceipts(ctx context.Context, cursor *mongo.Cursor) ([]*models.Receipt, error) {
	var receipts []*models.Receipt
	if err := cursor.All(ctx, &receipts); err != nil {
		return nil, err
	}
	if receipts == nil {
		receipts = []*models.Receipt{}
	}
	return receipts, nil
}
