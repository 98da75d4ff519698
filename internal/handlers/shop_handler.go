package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/retailrewards/rewards-backend/internal/services"
)

// ShopHandler handles shop-related HTTP requests
type ShopHandler struct {
	shopService services.ShopService
}

// NewShopHandler creates a new ShopHandler
func NewShopHandler(shopService services.ShopService) *ShopHandler {
	return &ShopHandler{shopService: shopService}
}

// GetShops handles GET /shops
func (h *ShopHandler) GetShops(c *gin.Context) {
	page, limit := paginationParams(c)
	shops, err := h.shopService.GetShops(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve shops: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shops": shops, "page": page, "limit": limit})
}

// GetShopCount handles GET /shops/count
func (h *ShopHandler) GetShopCount(c *gin.Context) {
	count, err := h.shopService.CountShops(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count shops: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GetShopByID handles GET /shops/:id
func (h *ShopHandler) GetShopByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	shop, err := h.shopService.GetShopByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shop not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve shop: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, shop)
}
