package cache

import (
	"context"
	"time"
)

// Fixed key prefixes per domain.
const (
	KeyCryptoPrice   = "crypto:price:"
	KeyCryptoHistory = "crypto:history:"
	KeyUserSession   = "user:session:"
	KeyUserPortfolio = "user:portfolio:"
	KeyMarketData    = "market:data"
	KeySentiment     = "sentiment:"
	KeyNews          = "news:"
	KeyRateLimit     = "rate_limit:"
	KeyWSRooms       = "ws:rooms:"
)

// Pub/sub channels, independent of the cache key space.
const (
	ChannelPriceUpdates = "price-updates"
)

// Default TTLs for the convenience wrappers.
const (
	PriceTTL   = 60 * time.Second
	SessionTTL = time.Hour
)

// CachePrice stores the last known price data for a symbol.
func (c *Cache) CachePrice(ctx context.Context, symbol string, priceData any) error {
	return c.Set(ctx, KeyCryptoPrice+symbol, priceData, Options{TTL: PriceTTL})
}

// Price loads the cached price data for a symbol into dest.
func (c *Cache) Price(ctx context.Context, symbol string, dest any) error {
	return c.Get(ctx, KeyCryptoPrice+symbol, dest)
}

// CacheSession stores a user session.
func (c *Cache) CacheSession(ctx context.Context, userID string, session any) error {
	return c.Set(ctx, KeyUserSession+userID, session, Options{TTL: SessionTTL})
}

// Session loads a user session into dest.
func (c *Cache) Session(ctx context.Context, userID string, dest any) error {
	return c.Get(ctx, KeyUserSession+userID, dest)
}

// InvalidateSession removes a user session.
func (c *Cache) InvalidateSession(ctx context.Context, userID string) error {
	return c.Del(ctx, KeyUserSession+userID)
}
