package market

import (
	"io"
	"log"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolsHaveBasePrices(t *testing.T) {
	for _, symbol := range Symbols() {
		assert.Contains(t, basePrices, symbol)
	}
}

func TestNextEventRandomWalkBounds(t *testing.T) {
	s := NewStreamer(nil, nil, log.New(io.Discard, "", 0))
	now := time.Now().UTC().Format(time.RFC3339)

	prev := s.prices["BTC"]
	for i := 0; i < 50; i++ {
		evt := s.nextEvent("BTC", now)

		step := math.Abs(evt.Price-prev) / prev
		assert.LessOrEqual(t, step, 0.005+1e-9, "each tick moves at most 0.5%%")
		assert.Equal(t, "BTC", evt.Symbol)
		assert.Equal(t, now, evt.Timestamp)

		open := s.opens["BTC"]
		assert.InDelta(t, (evt.Price-open)/open*100, evt.ChangePercent24h, 1e-9)

		prev = evt.Price
	}
}

func TestNextEventAdvancesWalk(t *testing.T) {
	s := NewStreamer(nil, nil, log.New(io.Discard, "", 0))
	now := time.Now().UTC().Format(time.RFC3339)

	evt := s.nextEvent("ETH", now)
	require.Equal(t, evt.Price, s.prices["ETH"], "the walk state follows the emitted price")
}
