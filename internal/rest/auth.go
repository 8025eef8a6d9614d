package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/cache"
)

// AuthController manages demo login sessions backed by the session cache.
type AuthController struct {
	cache *cache.Cache
}

func NewAuthController(c *cache.Cache) *AuthController {
	return &AuthController{cache: c}
}

func (h *AuthController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.handleLogin)
	rg.POST("/register", h.handleRegister)
	rg.POST("/logout", h.handleLogout)
}

type session struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	LoggedInAt string `json:"loggedInAt"`
}

func (h *AuthController) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	userID := uuid.NewString()
	sess := session{
		UserID:     userID,
		Email:      req.Email,
		LoggedInAt: time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := h.cache.CacheSession(ctx, userID, sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userID, "session": sess})
}

func (h *AuthController) handleRegister(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Register endpoint"})
}

func (h *AuthController) handleLogout(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	if err := h.cache.InvalidateSession(c.Request.Context(), req.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
