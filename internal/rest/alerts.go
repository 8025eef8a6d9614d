package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/bus"
)

// alertPublisher is the slice of the event publisher the controller needs.
type alertPublisher interface {
	PublishAlert(ctx context.Context, e bus.AlertEvent) error
}

// AlertController accepts user alerts and publishes them to the bus.
type AlertController struct {
	publisher alertPublisher
}

func NewAlertController(publisher alertPublisher) *AlertController {
	return &AlertController{publisher: publisher}
}

func (h *AlertController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.handleList)
	rg.POST("", h.handleCreate)
}

func (h *AlertController) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Alerts endpoint"})
}

func (h *AlertController) handleCreate(c *gin.Context) {
	var req struct {
		UserID  string `json:"userId"`
		Symbol  string `json:"symbol"`
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.UserID == "" || req.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and symbol are required"})
		return
	}

	evt := bus.AlertEvent{
		UserID:    req.UserID,
		AlertID:   uuid.NewString(),
		Symbol:    req.Symbol,
		Type:      req.Type,
		Message:   req.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := h.publisher.PublishAlert(ctx, evt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"alertId": evt.AlertID})
}
