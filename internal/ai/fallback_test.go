package ai

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fallbackService() *Service {
	return New("", log.New(io.Discard, "", 0))
}

func TestNewWithoutKeyIsNotConfigured(t *testing.T) {
	s := fallbackService()
	assert.False(t, s.Configured())
}

func TestFallbackSentimentPositive(t *testing.T) {
	s := fallbackService()

	// 3 positive words, 1 negative word: score (3-1)/4 = 0.5.
	result := s.AnalyzeSentiment(context.Background(), "bullish growth and profit despite a decline", "")
	assert.InDelta(t, 0.5, result.Score, 1e-9)
	assert.InDelta(t, 0.4, result.Confidence, 1e-9, "confidence scales with sentiment-word density")
	assert.Len(t, result.Keywords, 4)
	assert.Equal(t, "Basic sentiment analysis: Positive", result.Summary)
}

func TestFallbackSentimentNegative(t *testing.T) {
	s := fallbackService()

	result := s.AnalyzeSentiment(context.Background(), "crash and loss everywhere", "")
	assert.InDelta(t, -1, result.Score, 1e-9)
	assert.Equal(t, "Basic sentiment analysis: Negative", result.Summary)
}

func TestFallbackSentimentNoSentimentWords(t *testing.T) {
	s := fallbackService()

	result := s.AnalyzeSentiment(context.Background(), "the quick brown fox", "")
	assert.Zero(t, result.Score)
	assert.Zero(t, result.Confidence)
	assert.Equal(t, "Basic sentiment analysis: Neutral", result.Summary)
}

func TestFallbackSentimentConfidenceCap(t *testing.T) {
	s := fallbackService()

	// 12 sentiment words would give 1.2; the cap holds it at 0.6.
	text := "up up up up up up down down down down down down"
	result := s.AnalyzeSentiment(context.Background(), text, "")
	assert.InDelta(t, 0.6, result.Confidence, 1e-9)
}

func TestFallbackPredictionMidpoint(t *testing.T) {
	s := fallbackService()

	history := []PricePoint{
		{Price: 90}, {Price: 100}, {Price: 100}, {Price: 100}, {Price: 100}, {Price: 110},
	}
	// Last five prices: 100,100,100,100,110. Mean 102, current 110, midpoint 106.
	prediction, err := s.PredictPrice(context.Background(), "BTC", history, MarketSnapshot{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "BTC", prediction.Symbol)
	assert.InDelta(t, 110, prediction.CurrentPrice, 1e-9)
	assert.InDelta(t, 106, prediction.PredictedPrice, 1e-9)
	assert.InDelta(t, 0.3, prediction.Confidence, 1e-9)
	assert.Equal(t, "24h", prediction.Timeframe)
}

func TestPredictPriceWithoutHistory(t *testing.T) {
	s := fallbackService()

	_, err := s.PredictPrice(context.Background(), "BTC", nil, MarketSnapshot{}, nil)
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestFallbackInsightThresholds(t *testing.T) {
	s := fallbackService()

	cases := []struct {
		change float64
		want   InsightType
	}{
		{3.1, InsightBullish},
		{2.0, InsightNeutral},
		{0, InsightNeutral},
		{-2.0, InsightNeutral},
		{-2.5, InsightBearish},
	}
	for _, tc := range cases {
		insight := s.GenerateMarketInsight(context.Background(), MarketSnapshot{MarketCapChange: tc.change}, nil, nil)
		assert.Equal(t, tc.want, insight.Type, "change %v", tc.change)
		assert.InDelta(t, 0.4, insight.Confidence, 1e-9)
		assert.Equal(t, "24h", insight.Timeframe)
	}
}

func TestClipKeepsRunesIntact(t *testing.T) {
	short := strings.Repeat("é", 150) // 300 bytes but only 150 runes
	assert.Equal(t, short, clip(short, 200))

	long := strings.Repeat("é", 250)
	got := clip(long, 200)
	assert.Equal(t, 200, len([]rune(got)))
	assert.True(t, utf8.ValidString(got))
}

func TestSummarizeNewsUnconfigured(t *testing.T) {
	s := fallbackService()

	summary := s.SummarizeNews(context.Background(), []NewsArticle{{Title: "BTC rallies"}})
	assert.Equal(t, "No recent news available for analysis.", summary)
}
