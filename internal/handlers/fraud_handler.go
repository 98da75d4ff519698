package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/retailrewards/rewards-backend/internal/services"
)

// FraudHandler handles fraud-monitoring HTTP requests
type FraudHandler struct {
	receiptService services.ReceiptService
}

// NewFraudHandler creates a new FraudHandler
func NewFraudHandler(receiptService services.ReceiptService) *FraudHandler {
	return &FraudHandler{receiptService: receiptService}
}

// GetStats handles GET /fraud/stats
func (h *FraudHandler) GetStats(c *gin.Context) {
	stats, err := h.receiptService.GetFraudStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute fraud stats: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetReviewQueue handles GET /fraud/review-queue
func (h *FraudHandler) GetReviewQueue(c *gin.Context) {
	page, limit := paginationParams(c)
	receipts, err := h.receiptService.GetReceiptsNeedingReview(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve review queue: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts, "page": page, "limit": limit})
}

// GetThresholds handles GET /fraud/thresholds
func (h *FraudHandler) GetThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, h.receiptService.Thresholds())
}

// ReviewRequest is the body for POST /fraud/review/:id
type ReviewRequest struct {
	Approve *bool  `json:"approve" binding:"required"`
	Reason  string `json:"reason"`
}

// ReviewReceipt handles POST /fraud/review/:id
func (h *FraudHandler) ReviewReceipt(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var request ReviewRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.receiptService.ReviewReceipt(c.Request.Context(), id, *request.Approve, request.Reason)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Receipt not found"})
		} else {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, receipt)
}
