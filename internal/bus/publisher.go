package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrNotConnected indicates the publisher has not been opened, or was
// already closed.
var ErrNotConnected = errors.New("bus: publisher not connected")

// Event sources recorded in message headers.
const (
	sourceCryptoData = "crypto-data-service"
	sourceAI         = "ai-service"
	sourceAlerts     = "alert-service"
	sourcePortfolio  = "portfolio-service"
)

// messageWriter is the subset of kafka.Writer the publisher relies on.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher serializes platform events to JSON and appends them to their
// topic, keyed for partition affinity. It owns its writer exclusively and
// performs exactly one append per call; retries are delegated to the
// writer's own retry configuration.
type Publisher struct {
	writer    messageWriter
	logger    *log.Logger
	connected atomic.Bool
}

// NewPublisher builds a Publisher over a single writer shared by all
// topics. Open must be called before it accepts traffic.
func NewPublisher(brokers []string, clientID string, logger *log.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
		Transport:    &kafka.Transport{ClientID: clientID},
	}
	return &Publisher{writer: writer, logger: logger}
}

// Open marks the publisher ready. The caller is expected to have
// provisioned topics first.
func (p *Publisher) Open() {
	p.connected.Store(true)
}

// Close flushes and closes the underlying writer. The publisher must not
// be used afterwards.
func (p *Publisher) Close() error {
	p.connected.Store(false)
	return p.writer.Close()
}

// PublishPrice appends a price update to the crypto-prices topic.
func (p *Publisher) PublishPrice(ctx context.Context, e PriceEvent) error {
	if err := p.publish(ctx, TopicCryptoPrices, sourceCryptoData, e); err != nil {
		return err
	}
	p.logger.Printf("published price update for %s: $%.2f", e.Symbol, e.Price)
	return nil
}

// PublishSentiment appends a sentiment score to the news-sentiment topic.
func (p *Publisher) PublishSentiment(ctx context.Context, e SentimentEvent) error {
	if err := p.publish(ctx, TopicNewsSentiment, sourceAI, e); err != nil {
		return err
	}
	p.logger.Printf("published sentiment for %s: %.3f", e.Symbol, e.Score)
	return nil
}

// PublishAlert appends a user alert to the user-alerts topic.
func (p *Publisher) PublishAlert(ctx context.Context, e AlertEvent) error {
	if err := p.publish(ctx, TopicUserAlerts, sourceAlerts, e); err != nil {
		return err
	}
	p.logger.Printf("published alert for user %s: %s", e.UserID, e.Message)
	return nil
}

// PublishPortfolio appends a portfolio change to the portfolio-updates topic.
func (p *Publisher) PublishPortfolio(ctx context.Context, e PortfolioEvent) error {
	return p.publish(ctx, TopicPortfolioUpdates, sourcePortfolio, e)
}

// PublishPrediction appends a price prediction to the ai-predictions topic.
func (p *Publisher) PublishPrediction(ctx context.Context, e PredictionEvent) error {
	return p.publish(ctx, TopicAIPredictions, sourceAI, e)
}

func (p *Publisher) publish(ctx context.Context, topic, source string, e event) error {
	if !p.connected.Load() {
		return ErrNotConnected
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, e.timestamp())
	if err != nil {
		return fmt.Errorf("parse event timestamp %q: %w", e.timestamp(), err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(e.key()),
		Value: value,
		Time:  ts,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "source", Value: []byte(source)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}
