package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/ai"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/cache"
)

const newsDepth = 20

// NewsController serves the rolling news buffer and AI summaries.
type NewsController struct {
	ai    *ai.Service
	cache *cache.Cache
}

func NewNewsController(aiSvc *ai.Service, c *cache.Cache) *NewsController {
	return &NewsController{ai: aiSvc, cache: c}
}

func (h *NewsController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.handleList)
	rg.POST("/summary", h.handleSummary)
}

func (h *NewsController) handleList(c *gin.Context) {
	articles, err := h.cache.LRange(c.Request.Context(), cache.KeyNews+"latest", 0, newsDepth-1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

func (h *NewsController) handleSummary(c *gin.Context) {
	var req struct {
		Articles []ai.NewsArticle `json:"articles"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	summary := h.ai.SummarizeNews(c.Request.Context(), req.Articles)
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
