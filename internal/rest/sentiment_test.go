package rest

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentimentRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := ai.New("", log.New(io.Discard, "", 0))
	NewSentimentController(svc, nil).RegisterRoutes(r.Group("/api/sentiment"))
	return r
}

func TestAnalyzeSentimentEndpoint(t *testing.T) {
	r := sentimentRouter()

	body := `{"text":"bullish growth ahead"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sentiment/analyze", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)

	var result ai.SentimentAnalysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Greater(t, result.Score, 0.0)
}

func TestAnalyzeSentimentRequiresText(t *testing.T) {
	r := sentimentRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sentiment/analyze", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
