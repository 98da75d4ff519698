package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/retailrewards/rewards-backend/internal/services"
)

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// GetCustomers handles GET /customers
func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	page, limit := paginationParams(c)
	customers, err := h.customerService.GetCustomers(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve customers: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers, "page": page, "limit": limit})
}

// GetCustomerCount handles GET /customers/count
func (h *CustomerHandler) GetCustomerCount(c *gin.Context) {
	count, err := h.customerService.CountCustomers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count customers: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GetCustomerByPhone handles GET /customers/:phone
func (h *CustomerHandler) GetCustomerByPhone(c *gin.Context) {
	customer, err := h.customerService.GetCustomerByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve customer: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, customer)
}
