package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/pkg/numbers"
	openai "github.com/sashabaranov/go-openai"
)

// Service produces sentiment scores, price predictions, and market
// insights. With an API key it asks the hosted model and falls back to
// local heuristics on any failure; without a key it runs heuristics only.
// A missing key is a supported mode, not an error.
type Service struct {
	client *openai.Client
	logger *log.Logger
}

// New builds a Service. An empty apiKey disables remote calls.
func New(apiKey string, logger *log.Logger) *Service {
	s := &Service{logger: logger}
	if apiKey == "" {
		logger.Printf("OpenAI API key not provided - AI features limited to heuristics")
		return s
	}
	s.client = openai.NewClient(apiKey)
	logger.Printf("AI service initialized with OpenAI")
	return s
}

// Configured reports whether remote model calls are enabled.
func (s *Service) Configured() bool {
	return s.client != nil
}

// AnalyzeSentiment scores the sentiment of text in [-1,1]. topic gives the
// model extra context ("financial" when empty).
func (s *Service) AnalyzeSentiment(ctx context.Context, text, topic string) SentimentAnalysis {
	if !s.Configured() {
		return s.fallbackSentiment(text)
	}

	if topic == "" {
		topic = "financial"
	}
	prompt := fmt.Sprintf(`Analyze the sentiment of this %s text:

%q

Return a JSON object with:
- score: number between -1 (very negative) and 1 (very positive)
- confidence: number between 0 and 1
- keywords: array of important keywords
- summary: brief explanation of the sentiment

Focus on financial and market-related sentiment indicators.`, topic, text)

	const system = "You are a financial sentiment analysis expert. Analyze the given text and return a JSON response with sentiment score (-1 to 1), confidence (0 to 1), keywords array, and summary."

	var result SentimentAnalysis
	if err := s.complete(ctx, openai.GPT3Dot5Turbo, system, prompt, 0.3, 500, &result); err != nil {
		s.logger.Printf("sentiment analysis via OpenAI failed, using fallback: %v", err)
		return s.fallbackSentiment(text)
	}

	result.Score = numbers.Clamp(result.Score, -1, 1)
	result.Confidence = numbers.Clamp(result.Confidence, 0, 1)
	return result
}

// PredictPrice estimates the next-24h price of symbol from its history and
// the current market context.
func (s *Service) PredictPrice(ctx context.Context, symbol string, history []PricePoint, market MarketSnapshot, news []NewsArticle) (PricePrediction, error) {
	if len(history) == 0 {
		return PricePrediction{}, ErrNoHistory
	}

	if !s.Configured() {
		return s.fallbackPrediction(symbol, history), nil
	}

	recent := history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	prices := make([]string, 0, len(recent))
	for _, p := range recent {
		prices = append(prices, fmt.Sprintf("%g", p.Price))
	}
	headlines := make([]string, 0, 3)
	for _, n := range news {
		if len(headlines) == 3 {
			break
		}
		headlines = append(headlines, n.Title)
	}

	prompt := fmt.Sprintf(`Predict the price of %s based on this data:

Recent prices: %s
Current market cap: %g
24h volume: %g
Recent news: %s

Return a JSON object with:
- symbol: %q
- currentPrice: current price
- predictedPrice: predicted price for next 24 hours
- confidence: confidence level (0-1)
- timeframe: "24h"
- factors: array of key factors influencing the prediction

Consider technical indicators, market sentiment, and news impact.`,
		symbol, strings.Join(prices, ", "), market.TotalMarketCap, market.Total24hVolume, strings.Join(headlines, "; "), symbol)

	const system = "You are a cryptocurrency price prediction expert. Analyze the provided data and return a JSON response with price prediction, confidence level, and key factors."

	var result PricePrediction
	if err := s.complete(ctx, openai.GPT4, system, prompt, 0.2, 800, &result); err != nil {
		s.logger.Printf("price prediction via OpenAI failed, using fallback: %v", err)
		return s.fallbackPrediction(symbol, history), nil
	}

	result.Confidence = numbers.Clamp(result.Confidence, 0, 1)
	if result.PredictedPrice < 0 {
		result.PredictedPrice = 0
	}
	return result, nil
}

// GenerateMarketInsight labels the overall market as bullish, bearish, or
// neutral.
func (s *Service) GenerateMarketInsight(ctx context.Context, market MarketSnapshot, top []Mover, news []NewsArticle) MarketInsight {
	if !s.Configured() {
		return s.fallbackInsight(market)
	}

	performers := make([]string, 0, 5)
	for _, m := range top {
		if len(performers) == 5 {
			break
		}
		performers = append(performers, fmt.Sprintf("%s: %g%%", m.Symbol, m.ChangePercent24h))
	}
	headlines := make([]string, 0, 3)
	for _, n := range news {
		if len(headlines) == 3 {
			break
		}
		headlines = append(headlines, n.Title)
	}

	prompt := fmt.Sprintf(`Analyze the current cryptocurrency market:

Total market cap: %g
24h volume: %g
BTC dominance: %g%%
Top performers: %s
Recent news: %s

Return a JSON object with:
- type: "bullish", "bearish", or "neutral"
- confidence: confidence level (0-1)
- reasoning: explanation of the market outlook
- timeframe: relevant timeframe for the insight

Consider overall market trends, dominance patterns, and news sentiment.`,
		market.TotalMarketCap, market.Total24hVolume, market.BTCDominance, strings.Join(performers, ", "), strings.Join(headlines, "; "))

	const system = "You are a cryptocurrency market analyst. Provide market insights based on the data and return a JSON response with type (bullish/bearish/neutral), confidence, reasoning, and timeframe."

	var result MarketInsight
	if err := s.complete(ctx, openai.GPT3Dot5Turbo, system, prompt, 0.4, 600, &result); err != nil {
		s.logger.Printf("market insight via OpenAI failed, using fallback: %v", err)
		return s.fallbackInsight(market)
	}

	result.Confidence = numbers.Clamp(result.Confidence, 0, 1)
	return result
}

// SummarizeNews condenses up to five articles into one short summary.
func (s *Service) SummarizeNews(ctx context.Context, articles []NewsArticle) string {
	if !s.Configured() || len(articles) == 0 {
		return "No recent news available for analysis."
	}

	if len(articles) > 5 {
		articles = articles[:5]
	}
	lines := make([]string, 0, len(articles))
	for _, a := range articles {
		body := a.Summary
		if body == "" {
			body = clip(a.Content, 200)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", a.Title, body))
	}

	const system = "You are a financial news summarizer. Create a concise summary of the key market trends and events from the provided news articles."
	prompt := "Summarize these cryptocurrency news articles:\n\n" + strings.Join(lines, "\n\n")

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openai.GPT3Dot5Turbo,
		Temperature: 0.3,
		MaxTokens:   300,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		s.logger.Printf("news summary via OpenAI failed: %v", err)
		return "Error generating news summary."
	}
	return resp.Choices[0].Message.Content
}

// clip bounds s to at most n runes, never splitting a multi-byte sequence.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// complete runs one chat completion and decodes the JSON reply into dest.
func (s *Service) complete(ctx context.Context, model, system, prompt string, temperature float32, maxTokens int, dest any) error {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("no response from model")
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), dest); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}
