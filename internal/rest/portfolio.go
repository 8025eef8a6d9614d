package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/bus"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/cache"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/pkg/numbers"
)

// portfolioPublisher is the slice of the event publisher the controller needs.
type portfolioPublisher interface {
	PublishPortfolio(ctx context.Context, e bus.PortfolioEvent) error
}

// PortfolioController reads and updates cached user portfolios, mirroring
// each update onto the bus.
type PortfolioController struct {
	cache     *cache.Cache
	publisher portfolioPublisher
}

func NewPortfolioController(c *cache.Cache, publisher portfolioPublisher) *PortfolioController {
	return &PortfolioController{cache: c, publisher: publisher}
}

func (h *PortfolioController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:userId", h.handleGet)
	rg.PUT("/:userId", h.handleUpdate)
}

type portfolio struct {
	Holdings   map[string]float64 `json:"holdings"`
	TotalValue float64            `json:"totalValue"`
	UpdatedAt  string             `json:"updatedAt"`
}

func (h *PortfolioController) handleGet(c *gin.Context) {
	userID := c.Param("userId")

	var p portfolio
	err := h.cache.Get(c.Request.Context(), cache.KeyUserPortfolio+userID, &p)
	if errors.Is(err, cache.ErrCacheMiss) {
		c.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PortfolioController) handleUpdate(c *gin.Context) {
	userID := c.Param("userId")

	// Amount and totalValue arrive as JSON numbers from the dashboard but
	// as strings from some API clients, so they stay loosely typed until
	// extraction.
	var req struct {
		Symbol     string `json:"symbol"`
		Amount     any    `json:"amount"`
		TotalValue any    `json:"totalValue"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	amount, err := numbers.ExtractFloat(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be numeric"})
		return
	}
	var totalValue float64
	if req.TotalValue != nil {
		totalValue, err = numbers.ExtractFloat(req.TotalValue)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "totalValue must be numeric"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var p portfolio
	if err := h.cache.Get(ctx, cache.KeyUserPortfolio+userID, &p); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if p.Holdings == nil {
		p.Holdings = make(map[string]float64)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	p.Holdings[req.Symbol] = amount
	p.TotalValue = totalValue
	p.UpdatedAt = now

	if err := h.cache.Set(ctx, cache.KeyUserPortfolio+userID, p, cache.Options{}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	evt := bus.PortfolioEvent{
		UserID:     userID,
		Symbol:     req.Symbol,
		Amount:     amount,
		TotalValue: totalValue,
		Timestamp:  now,
	}
	if err := h.publisher.PublishPortfolio(ctx, evt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, p)
}
