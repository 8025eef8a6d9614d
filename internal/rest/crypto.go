package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/ai"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/bus"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/cache"
)

const historyDepth = 100

// CryptoController serves cached prices, rolling history, and predictions.
type CryptoController struct {
	cache     *cache.Cache
	ai        *ai.Service
	publisher *bus.Publisher
	symbols   []string
	logger    *log.Logger
}

func NewCryptoController(c *cache.Cache, aiSvc *ai.Service, pub *bus.Publisher, symbols []string, logger *log.Logger) *CryptoController {
	return &CryptoController{cache: c, ai: aiSvc, publisher: pub, symbols: symbols, logger: logger}
}

func (h *CryptoController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/prices", h.handlePrices)
	rg.GET("/history/:symbol", h.handleHistory)
	rg.GET("/predict/:symbol", h.handlePredict)
}

func (h *CryptoController) handlePrices(c *gin.Context) {
	ctx := c.Request.Context()

	prices := make(map[string]bus.PriceEvent, len(h.symbols))
	for _, symbol := range h.symbols {
		var evt bus.PriceEvent
		err := h.cache.Price(ctx, symbol, &evt)
		if errors.Is(err, cache.ErrCacheMiss) {
			continue
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		prices[symbol] = evt
	}
	c.JSON(http.StatusOK, gin.H{"prices": prices})
}

func (h *CryptoController) handleHistory(c *gin.Context) {
	symbol := c.Param("symbol")

	history, err := h.cache.LRange(c.Request.Context(), cache.KeyCryptoHistory+symbol, 0, historyDepth-1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "history": history})
}

func (h *CryptoController) handlePredict(c *gin.Context) {
	ctx := c.Request.Context()
	symbol := c.Param("symbol")

	raws, err := h.cache.LRange(ctx, cache.KeyCryptoHistory+symbol, 0, historyDepth-1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// History is stored newest first; predictions want oldest first.
	points := make([]ai.PricePoint, 0, len(raws))
	for i := len(raws) - 1; i >= 0; i-- {
		var evt bus.PriceEvent
		if err := json.Unmarshal(raws[i], &evt); err != nil {
			continue
		}
		points = append(points, ai.PricePoint{Price: evt.Price, Timestamp: evt.Timestamp})
	}

	var market ai.MarketSnapshot
	if err := h.cache.Get(ctx, cache.KeyMarketData, &market); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	prediction, err := h.ai.PredictPrice(ctx, symbol, points, market, nil)
	if errors.Is(err, ai.ErrNoHistory) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no price history for " + symbol})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	evt := bus.PredictionEvent{
		Symbol:         prediction.Symbol,
		CurrentPrice:   prediction.CurrentPrice,
		PredictedPrice: prediction.PredictedPrice,
		Confidence:     prediction.Confidence,
		Timeframe:      prediction.Timeframe,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.publisher.PublishPrediction(ctx, evt); err != nil {
		h.logger.Printf("error publishing prediction for %s: %v", symbol, err)
	}

	c.JSON(http.StatusOK, prediction)
}
