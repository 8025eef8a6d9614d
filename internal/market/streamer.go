package market

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/ai"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/bus"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/cache"
)

const (
	defaultTickInterval = 5 * time.Second
	historyDepth        = 100
)

// basePrices seed the demo random walk per symbol.
var basePrices = map[string]float64{
	"BTC": 67000,
	"ETH": 3500,
	"BNB": 580,
	"SOL": 150,
	"XRP": 0.52,
	"ADA": 0.45,
}

// Symbols lists the demo symbols the platform streams.
func Symbols() []string {
	return []string{"BTC", "ETH", "BNB", "SOL", "XRP", "ADA"}
}

// Streamer generates demo price ticks. Each tick caches the latest price,
// appends it to the bounded history buffer, publishes a PriceEvent to the
// bus, and mirrors it onto the price-updates pub/sub channel for the
// streaming hub.
type Streamer struct {
	cache     *cache.Cache
	publisher *bus.Publisher
	logger    *log.Logger

	interval time.Duration
	rng      *rand.Rand
	prices   map[string]float64
	opens    map[string]float64
}

// NewStreamer builds a Streamer over the given cache and publisher.
func NewStreamer(c *cache.Cache, publisher *bus.Publisher, logger *log.Logger) *Streamer {
	prices := make(map[string]float64, len(basePrices))
	opens := make(map[string]float64, len(basePrices))
	for symbol, price := range basePrices {
		prices[symbol] = price
		opens[symbol] = price
	}
	return &Streamer{
		cache:     c,
		publisher: publisher,
		logger:    logger,
		interval:  defaultTickInterval,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		prices:    prices,
		opens:     opens,
	}
}

// Run ticks until ctx is canceled. Per-symbol failures are logged and do
// not stop the stream.
func (s *Streamer) Run(ctx context.Context) error {
	s.logger.Printf("price streaming started, interval %s", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Printf("price streaming stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Streamer) tick(ctx context.Context) {
	now := time.Now().UTC().Format(time.RFC3339)

	for _, symbol := range Symbols() {
		evt := s.nextEvent(symbol, now)
		if err := s.emit(ctx, evt); err != nil {
			s.logger.Printf("error streaming %s: %v", symbol, err)
		}
	}

	if err := s.cacheSnapshot(ctx); err != nil {
		s.logger.Printf("error caching market snapshot: %v", err)
	}
}

// nextEvent advances the symbol's random walk by up to ±0.5% and derives
// the 24h fields against the session open.
func (s *Streamer) nextEvent(symbol, timestamp string) bus.PriceEvent {
	price := s.prices[symbol] * (1 + (s.rng.Float64()-0.5)/100)
	s.prices[symbol] = price

	open := s.opens[symbol]
	change := price - open

	return bus.PriceEvent{
		Symbol:           symbol,
		Price:            price,
		MarketCap:        price * 19_000_000,
		Volume24h:        price * 450_000,
		Change24h:        change,
		ChangePercent24h: change / open * 100,
		Timestamp:        timestamp,
	}
}

func (s *Streamer) emit(ctx context.Context, evt bus.PriceEvent) error {
	if err := s.cache.CachePrice(ctx, evt.Symbol, evt); err != nil {
		return err
	}

	historyKey := cache.KeyCryptoHistory + evt.Symbol
	if err := s.cache.LPush(ctx, historyKey, evt); err != nil {
		return err
	}
	if err := s.cache.LTrim(ctx, historyKey, 0, historyDepth-1); err != nil {
		return err
	}

	if err := s.publisher.PublishPrice(ctx, evt); err != nil {
		return fmt.Errorf("publish price: %w", err)
	}
	if err := s.cache.Publish(ctx, cache.ChannelPriceUpdates, evt); err != nil {
		return fmt.Errorf("publish price update: %w", err)
	}
	return nil
}

// cacheSnapshot aggregates the current walk into the market-wide record
// consumed by predictions and insights.
func (s *Streamer) cacheSnapshot(ctx context.Context) error {
	var totalCap, totalVolume, btcCap float64
	for symbol, price := range s.prices {
		mcap := price * 19_000_000
		totalCap += mcap
		totalVolume += price * 450_000
		if symbol == "BTC" {
			btcCap = mcap
		}
	}

	var capChange float64
	var openCap float64
	for _, open := range s.opens {
		openCap += open * 19_000_000
	}
	if openCap > 0 {
		capChange = (totalCap - openCap) / openCap * 100
	}

	snapshot := ai.MarketSnapshot{
		TotalMarketCap:  totalCap,
		Total24hVolume:  totalVolume,
		BTCDominance:    btcCap / totalCap * 100,
		MarketCapChange: capChange,
	}
	return s.cache.Set(ctx, cache.KeyMarketData, snapshot, cache.Options{TTL: cache.PriceTTL})
}
