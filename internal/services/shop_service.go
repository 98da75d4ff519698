package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
)

var _ ShopService = (*ShopServiceImpl)(nil)

// ShopServiceImpl handles shop queries
type ShopServiceImpl struct {
	shopRepo repositories.ShopRepository
}

// NewShopService creates a new ShopServiceImpl
func NewShopService(shopRepo repositories.ShopRepository) *ShopServiceImpl {
	return &ShopServiceImpl{shopRepo: shopRepo}
}

// GetShopByID retrieves a shop by ID
func (s *ShopServiceImpl) GetShopByID(ctx context.Context, id primitive.ObjectID) (*models.Shop, error) {
	return s.shopRepo.FindByID(ctx, id)
}

// GetShops retrieves shops with pagination
func (s *ShopServiceImpl) GetShops(ctx context.Context, page, limit int) ([]*models.Shop, error) {
	skip, limit := pagination(page, limit)
	return s.shopRepo.FindAll(ctx, skip, limit)
}

// CountShops returns the total number of shops
func (s *ShopServiceImpl) CountShops(ctx context.Context) (int64, error) {
	return s.shopRepo.Count(ctx)
}
