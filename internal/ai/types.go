package ai

import "errors"

// SentimentAnalysis is the outcome of analyzing a piece of text.
type SentimentAnalysis struct {
	Score      float64  `json:"score"`      // -1 to 1
	Confidence float64  `json:"confidence"` // 0 to 1
	Keywords   []string `json:"keywords"`
	Summary    string   `json:"summary"`
}

// PricePrediction is a short-horizon price estimate for one symbol.
type PricePrediction struct {
	Symbol         string   `json:"symbol"`
	CurrentPrice   float64  `json:"currentPrice"`
	PredictedPrice float64  `json:"predictedPrice"`
	Confidence     float64  `json:"confidence"`
	Timeframe      string   `json:"timeframe"`
	Factors        []string `json:"factors"`
}

// InsightType labels the overall market direction.
type InsightType string

const (
	InsightBullish InsightType = "bullish"
	InsightBearish InsightType = "bearish"
	InsightNeutral InsightType = "neutral"
)

// MarketInsight is a qualitative read of the whole market.
type MarketInsight struct {
	Type       InsightType `json:"type"`
	Confidence float64     `json:"confidence"`
	Reasoning  string      `json:"reasoning"`
	Timeframe  string      `json:"timeframe"`
}

// PricePoint is one historical price observation.
type PricePoint struct {
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

// MarketSnapshot aggregates current market-wide numbers.
type MarketSnapshot struct {
	TotalMarketCap  float64 `json:"totalMarketCap"`
	Total24hVolume  float64 `json:"total24hVolume"`
	BTCDominance    float64 `json:"btcDominance"`
	MarketCapChange float64 `json:"marketCapChange"` // percent over 24h
}

// Mover is a symbol with its 24h performance, used for market insights.
type Mover struct {
	Symbol           string  `json:"symbol"`
	ChangePercent24h float64 `json:"changePercent24h"`
}

// NewsArticle is one news item fed into sentiment or summaries.
type NewsArticle struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Content string `json:"content,omitempty"`
}

// ErrNoHistory indicates a prediction was requested without any price
// history to base it on.
var ErrNoHistory = errors.New("ai: no price history")
