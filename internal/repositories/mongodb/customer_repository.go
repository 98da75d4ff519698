package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
)

// Compile-time check to ensure CustomerRepository implements the interface
var _ repositories.CustomerRepository = (*CustomerRepository)(nil)

// CustomerRepository handles MongoDB operations for Customer
type CustomerRepository struct {
	collection *mongo.Collection
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{
		collection: db.Collection("customers"),
	}
}

// FindByPhone finds a customer by phone number (exact match)
func (r *CustomerRepository) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := r.collection.FindOne(ctx, bson.M{"phoneNumber": phone}).Decode(&customer)
	if err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &customer, nil
}

// FindOrCreate resolves a customer by phone, creating one on first sight.
// The upsert plus the unique index on phoneNumber make this safe when two
// ingestions race on the same new customer.
func (r *CustomerRepository) FindOrCreate(ctx context.Context, phone, name string) (*models.Customer, error) {
	now := time.Now()
	update := bson.M{
		"$setOnInsert": bson.M{
			"phoneNumber":   phone,
			"name":          name,
			"totalReceipts": 0,
			"totalSpent":    0.0,
			"totalWins":     0,
			"totalWinnings": 0.0,
			"createdAt":     now,
			"updatedAt":     now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var customer models.Customer
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"phoneNumber": phone}, update, opts).Decode(&customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindAll retrieves customers with pagination
func (r *CustomerRepository) FindAll(ctx context.Context, skip, limit int) ([]*models.Customer, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var customers []*models.Customer
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []*models.Customer{}
	}
	return customers, nil
}

// Count returns the total number of customers
func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// ApplyReceipt atomically adjusts the receipt aggregates
func (r *CustomerRepository) ApplyReceipt(ctx context.Context, id primitive.ObjectID, delta int, amount float64) error {
	update := bson.M{
		"$inc": bson.M{"totalReceipts": delta, "totalSpent": amount},
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

// ApplyWin atomically records a draw win
func (r *CustomerRepository) ApplyWin(ctx context.Context, id primitive.ObjectID, prize float64) error {
	update := bson.M{
		"$inc": bson.M{"totalWins": 1, "totalWinnings": prize},
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

// UpdateLastLocation stores the customer's last known upload location
func (r *CustomerRepository) UpdateLastLocation(ctx context.Context, phone string, lat, lon float64) error {
	update := bson.M{
		"$set": bson.M{
			"lastLatitude":  lat,
			"lastLongitude": lon,
			"updatedAt":     time.Now(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"phoneNumber": phone}, update)
	return err
}
