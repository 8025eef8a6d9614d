package cache

import (
	"context"
	"log"

	redis "github.com/redis/go-redis/v9"
)

// incrExpire increments a counter and, only when the counter was just
// created, sets its expiry in the same atomic step. Splitting the two
// commands would leak a key that never expires if the process dies
// between them.
var incrExpire = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Limiter is a fixed-window rate limiter over the cache's atomic
// increment-with-expiry primitive.
type Limiter struct {
	client *redis.Client
	logger *log.Logger
}

// Limiter returns a rate limiter sharing the cache's general connection.
func (c *Cache) Limiter() *Limiter {
	return &Limiter{client: c.client, logger: c.logger}
}

// Allow reports whether identifier is within limit for the current fixed
// window of windowSeconds. When the store is unreachable it fails open:
// the request is allowed rather than blocked.
func (l *Limiter) Allow(ctx context.Context, identifier string, limit, windowSeconds int) bool {
	key := KeyRateLimit + identifier

	current, err := incrExpire.Run(ctx, l.client, []string{key}, windowSeconds).Int64()
	if err != nil {
		l.logger.Printf("rate limit check failed for %s, allowing: %v", identifier, err)
		return true
	}
	return current <= int64(limit)
}
