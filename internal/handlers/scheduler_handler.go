package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/scheduler"
)

// SchedulerHandler exposes the draw scheduler over HTTP
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
}

// NewSchedulerHandler creates a new SchedulerHandler
func NewSchedulerHandler(s *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

// GetStatus handles GET /scheduler/status
func (h *SchedulerHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}

// TriggerRequest is the body for POST /scheduler/trigger
type TriggerRequest struct {
	Date string `json:"date" binding:"required"`
}

// Trigger handles POST /scheduler/trigger
func (h *SchedulerHandler) Trigger(c *gin.Context) {
	var request TriggerRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := time.Parse(models.DrawDateLayout, request.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format (YYYY-MM-DD)"})
		return
	}

	draw, err := h.scheduler.TriggerDraw(c.Request.Context(), request.Date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger draw: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, draw)
}
