package bus

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Topic names for the platform event bus.
const (
	TopicCryptoPrices     = "crypto-prices"
	TopicNewsSentiment    = "news-sentiment"
	TopicUserAlerts       = "user-alerts"
	TopicPortfolioUpdates = "portfolio-updates"
	TopicMarketData       = "market-data"
	TopicAIPredictions    = "ai-predictions"
)

// Topics lists every topic the platform provisions at startup.
func Topics() []string {
	return []string{
		TopicCryptoPrices,
		TopicNewsSentiment,
		TopicUserAlerts,
		TopicPortfolioUpdates,
		TopicMarketData,
		TopicAIPredictions,
	}
}

const (
	topicPartitions        = 3
	topicReplicationFactor = 1
	topicRetention         = 7 * 24 * time.Hour
	topicSegmentRollover   = 24 * time.Hour
)

// adminClient is the subset of the kafka admin client used for provisioning
// and health checks.
type adminClient interface {
	CreateTopics(ctx context.Context, req *kafka.CreateTopicsRequest) (*kafka.CreateTopicsResponse, error)
	Metadata(ctx context.Context, req *kafka.MetadataRequest) (*kafka.MetadataResponse, error)
}

// Provisioner creates the platform topics idempotently.
type Provisioner struct {
	addr   net.Addr
	client adminClient
}

// NewProvisioner builds a Provisioner talking to the given brokers.
func NewProvisioner(brokers []string) *Provisioner {
	return &Provisioner{
		addr: kafka.TCP(brokers...),
		client: &kafka.Client{
			Addr:    kafka.TCP(brokers...),
			Timeout: 30 * time.Second,
		},
	}
}

// EnsureTopics creates every platform topic if absent. Topics that already
// exist are left untouched; calling this multiple times is safe. It must
// complete before the publisher accepts traffic.
func (p *Provisioner) EnsureTopics(ctx context.Context) error {
	configs := make([]kafka.TopicConfig, 0, len(Topics()))
	for _, topic := range Topics() {
		configs = append(configs, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     topicPartitions,
			ReplicationFactor: topicReplicationFactor,
			ConfigEntries: []kafka.ConfigEntry{
				{ConfigName: "cleanup.policy", ConfigValue: "delete"},
				{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(topicRetention.Milliseconds(), 10)},
				{ConfigName: "segment.ms", ConfigValue: strconv.FormatInt(topicSegmentRollover.Milliseconds(), 10)},
			},
		})
	}

	resp, err := p.client.CreateTopics(ctx, &kafka.CreateTopicsRequest{
		Addr:   p.addr,
		Topics: configs,
	})
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}

	for topic, topicErr := range resp.Errors {
		if topicErr == nil || errors.Is(topicErr, kafka.TopicAlreadyExists) {
			continue
		}
		return fmt.Errorf("create topic %s: %w", topic, topicErr)
	}
	return nil
}

// HealthCheck verifies the brokers respond to a metadata request.
func (p *Provisioner) HealthCheck(ctx context.Context) error {
	if _, err := p.client.Metadata(ctx, &kafka.MetadataRequest{Addr: p.addr}); err != nil {
		return fmt.Errorf("kafka metadata: %w", err)
	}
	return nil
}
