package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
)

var _ repositories.ShopRepository = (*ShopRepository)(nil)

// ShopRepository is an in-memory ShopRepository. The single mutex plays
// the role of the unique nameKey index: concurrent first-sight creations
// converge on one shop.
type ShopRepository struct {
	mu        sync.Mutex
	byNameKey map[string]*models.Shop
	insertSeq []string
}

// NewShopRepository creates an empty in-memory shop store
func NewShopRepository() *ShopRepository {
	return &ShopRepository{byNameKey: map[string]*models.Shop{}}
}

func (r *ShopRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, shop := range r.byNameKey {
		if shop.ID == id {
			copied := *shop
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *ShopRepository) FindOrCreate(ctx context.Context, name, address string, lat, lon *float64) (*models.Shop, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	if shop, ok := r.byNameKey[key]; ok {
		copied := *shop
		return &copied, nil
	}
	now := time.Now()
	shop := &models.Shop{
		ID:        primitive.NewObjectID(),
		Name:      strings.TrimSpace(name),
		NameKey:   key,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if lat != nil && lon != nil {
		la, lo := *lat, *lon
		shop.Latitude = &la
		shop.Longitude = &lo
	}
	r.byNameKey[key] = shop
	r.insertSeq = append(r.insertSeq, key)
	copied := *shop
	return &copied, nil
}

func (r *ShopRepository) FindAll(ctx context.Context, skip, limit int) ([]*models.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shops := []*models.Shop{}
	for i := skip; i < len(r.insertSeq) && len(shops) < limit; i++ {
		copied := *r.byNameKey[r.insertSeq[i]]
		shops = append(shops, &copied)
	}
	return shops, nil
}

func (r *ShopRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byNameKey)), nil
}

func (r *ShopRepository) ApplyReceipt(ctx context.Context, id primitive.ObjectID, delta int, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, shop := range r.byNameKey {
		if shop.ID == id {
			shop.ReceiptCount += delta
			shop.TotalSales += amount
			shop.UpdatedAt = time.Now()
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *ShopRepository) UpdateCoordinates(ctx context.Context, id primitive.ObjectID, lat, lon float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, shop := range r.byNameKey {
		if shop.ID == id {
			la, lo := lat, lon
			shop.Latitude = &la
			shop.Longitude = &lo
			shop.UpdatedAt = time.Now()
			return nil
		}
	}
	return mongo.ErrNoDocuments
}
