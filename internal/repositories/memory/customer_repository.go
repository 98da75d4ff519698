// Package memory provides in-memory repository implementations with the
// same concurrency semantics as the MongoDB ones. Service and scheduler
// tests run against these so the core stays testable without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
)

var _ repositories.CustomerRepository = (*CustomerRepository)(nil)

// CustomerRepository is an in-memory CustomerRepository
type CustomerRepository struct {
	mu        sync.Mutex
	byPhone   map[string]*models.Customer
	insertSeq []string
}

// NewCustomerRepository creates an empty in-memory customer store
func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{byPhone: map[string]*models.Customer{}}
}

func (r *CustomerRepository) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.byPhone[phone]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *customer
	return &copied, nil
}

func (r *CustomerRepository) FindOrCreate(ctx context.Context, phone, name string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if customer, ok := r.byPhone[phone]; ok {
		copied := *customer
		return &copied, nil
	}
	now := time.Now()
	customer := &models.Customer{
		ID:          primitive.NewObjectID(),
		PhoneNumber: phone,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.byPhone[phone] = customer
	r.insertSeq = append(r.insertSeq, phone)
	copied := *customer
	return &copied, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, skip, limit int) ([]*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customers := []*models.Customer{}
	for i := skip; i < len(r.insertSeq) && len(customers) < limit; i++ {
		copied := *r.byPhone[r.insertSeq[i]]
		customers = append(customers, &copied)
	}
	return customers, nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byPhone)), nil
}

func (r *CustomerRepository) ApplyReceipt(ctx context.Context, id primitive.ObjectID, delta int, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, customer := range r.byPhone {
		if customer.ID == id {
			customer.TotalReceipts += delta
			customer.TotalSpent += amount
			customer.UpdatedAt = time.Now()
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *CustomerRepository) ApplyWin(ctx context.Context, id primitive.ObjectID, prize float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, customer := range r.byPhone {
		if customer.ID == id {
			customer.TotalWins++
			customer.TotalWinnings += prize
			customer.UpdatedAt = time.Now()
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *CustomerRepository) UpdateLastLocation(ctx context.Context, phone string, lat, lon float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.byPhone[phone]
	if !ok {
		return mongo.ErrNoDocuments
	}
	customer.LastLatitude = &lat
	customer.LastLongitude = &lon
	customer.UpdatedAt = time.Now()
	return nil
}
