package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
	"github.com/retailrewards/rewards-backend/internal/services"
)

// ReceiptHandler handles receipt-related HTTP requests
type ReceiptHandler struct {
	ingestionService services.IngestionService
	receiptService   services.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(ingestionService services.IngestionService, receiptService services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{
		ingestionService: ingestionService,
		receiptService:   receiptService,
	}
}

// SubmitReceiptRequest is the body for POST /receipts
type SubmitReceiptRequest struct {
	CustomerPhone string               `json:"customer_phone" binding:"required"`
	CustomerName  string               `json:"customer_name"`
	ShopName      string               `json:"shop_name"`
	ShopAddress   string               `json:"shop_address"`
	Amount        float64              `json:"amount" binding:"required"`
	Currency      string               `json:"currency"`
	Items         []models.ReceiptItem `json:"items"`
	RawText       string               `json:"raw_text"`

	UploadLatitude  *float64 `json:"upload_latitude"`
	UploadLongitude *float64 `json:"upload_longitude"`
	UploadAddress   string   `json:"upload_address"`

	ShopLatitude  *float64 `json:"shop_latitude"`
	ShopLongitude *float64 `json:"shop_longitude"`
}

// SubmitReceipt handles POST /receipts
func (h *ReceiptHandler) SubmitReceipt(c *gin.Context) {
	var request SubmitReceiptRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.ingestionService.IngestReceipt(c.Request.Context(), services.IngestReceiptInput{
		CustomerPhone:   request.CustomerPhone,
		CustomerName:    request.CustomerName,
		ShopName:        request.ShopName,
		ShopAddress:     request.ShopAddress,
		Amount:          request.Amount,
		Currency:        request.Currency,
		Items:           request.Items,
		RawText:         request.RawText,
		UploadLatitude:  request.UploadLatitude,
		UploadLongitude: request.UploadLongitude,
		UploadAddress:   request.UploadAddress,
		ShopLatitude:    request.ShopLatitude,
		ShopLongitude:   request.ShopLongitude,
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidAmount) || errors.Is(err, models.ErrMissingCustomer) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest receipt: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

// GetReceipts handles GET /receipts with optional date/status/flag filters
func (h *ReceiptHandler) GetReceipts(c *gin.Context) {
	filter := repositories.ReceiptFilter{
		Date:      c.Query("date"),
		Status:    models.ReceiptStatus(c.Query("status")),
		FraudFlag: models.FraudFlag(c.Query("fraud_flag")),
	}
	page, limit := paginationParams(c)

	receipts, err := h.receiptService.GetReceipts(c.Request.Context(), filter, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve receipts: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts, "page": page, "limit": limit})
}

// GetReceiptByID handles GET /receipts/:id
func (h *ReceiptHandler) GetReceiptByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	receipt, err := h.receiptService.GetReceiptByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Receipt not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve receipt: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// GetReceiptsByCustomer handles GET /receipts/customer/:phone
func (h *ReceiptHandler) GetReceiptsByCustomer(c *gin.Context) {
	page, limit := paginationParams(c)
	receipts, err := h.receiptService.GetReceiptsByCustomer(c.Request.Context(), c.Param("phone"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve receipts: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts, "page": page, "limit": limit})
}

// paginationParams reads 1-based page and limit query parameters
func paginationParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	return page, limit
}
