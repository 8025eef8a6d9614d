package ai

import (
	"fmt"
	"strings"

	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/pkg/numbers"
)

var (
	positiveWords = []string{"bullish", "positive", "growth", "increase", "profit", "gain", "up", "rise"}
	negativeWords = []string{"bearish", "negative", "decline", "decrease", "loss", "down", "fall", "crash"}
)

// fallbackSentiment counts positive and negative keyword hits and scores
// (pos-neg)/(pos+neg), 0 when no sentiment words are found. Confidence
// scales with sentiment-word density, capped at 0.6.
func (s *Service) fallbackSentiment(text string) SentimentAnalysis {
	words := strings.Fields(strings.ToLower(text))

	var positive, negative int
	var keywords []string
	for _, word := range words {
		matched := false
		for _, pw := range positiveWords {
			if strings.Contains(word, pw) {
				positive++
				matched = true
				break
			}
		}
		for _, nw := range negativeWords {
			if strings.Contains(word, nw) {
				negative++
				matched = true
				break
			}
		}
		if matched {
			keywords = append(keywords, word)
		}
	}

	total := positive + negative
	var score float64
	if total > 0 {
		score = float64(positive-negative) / float64(total)
	}

	label := "Neutral"
	if score > 0 {
		label = "Positive"
	} else if score < 0 {
		label = "Negative"
	}

	return SentimentAnalysis{
		Score:      numbers.Clamp(score, -1, 1),
		Confidence: min(0.6, float64(total)/10),
		Keywords:   keywords,
		Summary:    fmt.Sprintf("Basic sentiment analysis: %s", label),
	}
}

// fallbackPrediction returns the midpoint of the latest price and the mean
// of the last five prices.
func (s *Service) fallbackPrediction(symbol string, history []PricePoint) PricePrediction {
	recent := history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}

	current := recent[len(recent)-1].Price
	var sum float64
	for _, p := range recent {
		sum += p.Price
	}
	avg := sum / float64(len(recent))

	return PricePrediction{
		Symbol:         symbol,
		CurrentPrice:   current,
		PredictedPrice: (current + avg) / 2,
		Confidence:     0.3,
		Timeframe:      "24h",
		Factors:        []string{"Simple moving average", "Recent price trend"},
	}
}

// fallbackInsight thresholds the 24h market-cap change at ±2%.
func (s *Service) fallbackInsight(market MarketSnapshot) MarketInsight {
	change := market.MarketCapChange

	insight := InsightNeutral
	if change > 2 {
		insight = InsightBullish
	} else if change < -2 {
		insight = InsightBearish
	}

	return MarketInsight{
		Type:       insight,
		Confidence: 0.4,
		Reasoning:  fmt.Sprintf("Market cap change of %g%% indicates %s sentiment", change, insight),
		Timeframe:  "24h",
	}
}
