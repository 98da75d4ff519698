package mongodb

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
)

// Compile-time check to ensure ShopRepository implements the interface
var _ repositories.ShopRepository = (*ShopRepository)(nil)

// ShopRepository handles MongoDB operations for Shop
type ShopRepository struct {
	collection *mongo.Collection
}

// NewShopRepository creates a new ShopRepository
func NewShopRepository(db *mongo.Database) *ShopRepository {
	return &ShopRepository{
		collection: db.Collection("shops"),
	}
}

// ShopNameKey normalizes a shop name for dedup: lower-cased, trimmed
func ShopNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindByID finds a shop by ID
func (r *ShopRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Shop, error) {
	var shop models.Shop
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&shop)
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindOrCreate resolves a shop by normalized name, creating it on first
// sight. Two racing creations converge on one document through the unique
// index on nameKey.
func (r *ShopRepository) FindOrCreate(ctx context.Context, name, address string, lat, lon *float64) (*models.Shop, error) {
	now := time.Now()
	onInsert := bson.M{
		"name":         strings.TrimSpace(name),
		"nameKey":      ShopNameKey(name),
		"receiptCount": 0,
		"totalSales":   0.0,
		"createdAt":    now,
		"updatedAt":    now,
	}
	if address != "" {
		onInsert["address"] = address
	}
	if lat != nil && lon != nil {
		onInsert["latitude"] = *lat
		onInsert["longitude"] = *lon
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var shop models.Shop
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"nameKey": ShopNameKey(name)}, bson.M{"$setOnInsert": onInsert}, opts).Decode(&shop)
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindAll retrieves shops ordered by receipt volume
func (r *ShopRepository) FindAll(ctx context.Context, skip, limit int) ([]*models.Shop, error) {
	opts := options.Find().
		SetSort(bson.M{"receiptCount": -1}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shops []*models.Shop
	if err := cursor.All(ctx, &shops); err != nil {
		return nil, err
	}
	if shops == nil {
		shops = []*models.Shop{}
	}
	return shops, nil
}

// Count returns the total number of shops
func (r *ShopRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// ApplyReceipt atomically adjusts the receipt aggregates
func (r *ShopRepository) ApplyReceipt(ctx context.Context, id primitive.ObjectID, delta int, amount float64) error {
	update := bson.M{
		"$inc": bson.M{"receiptCount": delta, "totalSales": amount},
		"$set": bson.M{"updatedAt": time.Now()},
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

// UpdateCoordinates backfills a geocoded location
func (r *ShopRepository) UpdateCoordinates(ctx context.Context, id primitive.ObjectID, lat, lon float64) error {
	update := bson.M{
		"$set": bson.M{
			"latitude":  lat,
			"longitude": lon,
			"updatedAt": time.Now(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
