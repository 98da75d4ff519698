package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/services"
)

// DrawHandler handles draw-related HTTP requests
type DrawHandler struct {
	drawService services.DrawService
}

// NewDrawHandler creates a new DrawHandler
func NewDrawHandler(drawService services.DrawService) *DrawHandler {
	return &DrawHandler{drawService: drawService}
}

// RunDrawRequest is the body for POST /draws/run. Date defaults to the
// day that most recently ended.
type RunDrawRequest struct {
	Date string `json:"date"`
}

// RunDraw handles POST /draws/run
func (h *DrawHandler) RunDraw(c *gin.Context) {
	var request RunDrawRequest
	// An empty body is fine; a malformed one is not
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	date := request.Date
	if date == "" {
		date = time.Now().UTC().AddDate(0, 0, -1).Format(models.DrawDateLayout)
	}
	if _, err := time.Parse(models.DrawDateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format (YYYY-MM-DD)"})
		return
	}

	draw, err := h.drawService.RunDrawForDate(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run draw: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, draw)
}

// GetDraws handles GET /draws
func (h *DrawHandler) GetDraws(c *gin.Context) {
	page, limit := paginationParams(c)
	draws, err := h.drawService.GetDraws(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve draws: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"draws": draws, "page": page, "limit": limit})
}

// GetDrawByDate handles GET /draws/date/:date
func (h *DrawHandler) GetDrawByDate(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse(models.DrawDateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format (YYYY-MM-DD)"})
		return
	}

	draw, err := h.drawService.GetDrawByDate(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No draw for this date"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve draw: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, draw)
}

// GetWinsByPhone handles GET /draws/winner/:phone
func (h *DrawHandler) GetWinsByPhone(c *gin.Context) {
	draws, err := h.drawService.GetWinsByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve wins: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"draws": draws})
}
