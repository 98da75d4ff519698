package services

import (
	"context"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
)

var _ CustomerService = (*CustomerServiceImpl)(nil)

// CustomerServiceImpl handles customer queries
type CustomerServiceImpl struct {
	customerRepo repositories.CustomerRepository
}

// NewCustomerService creates a new CustomerServiceImpl
func NewCustomerService(customerRepo repositories.CustomerRepository) *CustomerServiceImpl {
	return &CustomerServiceImpl{customerRepo: customerRepo}
}

// GetCustomerByPhone retrieves a customer by phone number
func (s *CustomerServiceImpl) GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return s.customerRepo.FindByPhone(ctx, phone)
}

// GetCustomers retrieves customers with pagination
func (s *CustomerServiceImpl) GetCustomers(ctx context.Context, page, limit int) ([]*models.Customer, error) {
	skip, limit := pagination(page, limit)
	return s.customerRepo.FindAll(ctx, skip, limit)
}

// CountCustomers returns the total number of customers
func (s *CustomerServiceImpl) CountCustomers(ctx context.Context) (int64, error) {
	return s.customerRepo.Count(ctx)
}
