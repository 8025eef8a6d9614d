package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/ai"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/cache"
)

const sentimentTTL = 5 * time.Minute

// SentimentController exposes on-demand sentiment analysis and cached
// per-symbol scores.
type SentimentController struct {
	ai    *ai.Service
	cache *cache.Cache
}

func NewSentimentController(aiSvc *ai.Service, c *cache.Cache) *SentimentController {
	return &SentimentController{ai: aiSvc, cache: c}
}

func (h *SentimentController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.handleAnalyze)
	rg.GET("/:symbol", h.handleSymbol)
}

func (h *SentimentController) handleAnalyze(c *gin.Context) {
	var req struct {
		Text    string `json:"text"`
		Context string `json:"context"`
		Symbol  string `json:"symbol"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	ctx := c.Request.Context()
	result := h.ai.AnalyzeSentiment(ctx, req.Text, req.Context)

	if req.Symbol != "" {
		if err := h.cache.Set(ctx, cache.KeySentiment+req.Symbol, result, cache.Options{TTL: sentimentTTL}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, result)
}

func (h *SentimentController) handleSymbol(c *gin.Context) {
	symbol := c.Param("symbol")

	var result ai.SentimentAnalysis
	err := h.cache.Get(c.Request.Context(), cache.KeySentiment+symbol, &result)
	if errors.Is(err, cache.ErrCacheMiss) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sentiment for " + symbol})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
