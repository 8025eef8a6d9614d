package bus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceEventRoundTrip(t *testing.T) {
	original := PriceEvent{
		Symbol:           "BTC",
		Price:            67420.50,
		MarketCap:        1_300_000_000_000,
		Volume24h:        28_000_000_000,
		Change24h:        1520.25,
		ChangePercent24h: 2.31,
		Timestamp:        "2026-08-28T12:00:00Z",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded PriceEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestPriceEventWireFieldNames(t *testing.T) {
	data, err := json.Marshal(PriceEvent{Symbol: "ETH", Price: 3500, Timestamp: "2026-08-28T12:00:00Z"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "symbol")
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "timestamp")
	assert.NotContains(t, fields, "marketCap", "zero optional fields should be omitted")
}

func TestAlertEventRoundTrip(t *testing.T) {
	original := AlertEvent{
		UserID:    "user-42",
		AlertID:   "alert-7",
		Symbol:    "SOL",
		Type:      "price-above",
		Message:   "SOL crossed $200",
		Timestamp: "2026-08-28T09:30:00Z",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded AlertEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestPartitionKeys(t *testing.T) {
	assert.Equal(t, "BTC", PriceEvent{Symbol: "BTC"}.key())
	assert.Equal(t, "ETH", SentimentEvent{Symbol: "ETH"}.key())
	assert.Equal(t, "user-1", AlertEvent{UserID: "user-1", Symbol: "BTC"}.key(), "alerts are keyed by user, not symbol")
	assert.Equal(t, "user-2", PortfolioEvent{UserID: "user-2", Symbol: "BTC"}.key())
	assert.Equal(t, "ADA", PredictionEvent{Symbol: "ADA"}.key())
}
