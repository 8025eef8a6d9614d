package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates the key is absent or its stored value could not
// be decoded. Malformed payloads are logged and degrade to a miss rather
// than failing the read.
var ErrCacheMiss = errors.New("cache: miss")

// Options control a Set call.
type Options struct {
	// TTL expires the key after the given duration. Zero means no expiry.
	TTL time.Duration
	// OnlyIfAbsent makes the set a no-op when the key already exists.
	OnlyIfAbsent bool
}

// Cache is a JSON key-value layer over Redis with hash and list
// sub-structures and a separate pub/sub mechanism. It owns three
// independent connections: general operations, publishing, and
// subscribing. A subscribed connection cannot multiplex with command
// execution, so the three are never shared across responsibilities.
type Cache struct {
	client     *redis.Client
	publisher  *redis.Client
	subscriber *redis.Client
	logger     *log.Logger

	mu   sync.Mutex
	subs map[string]*redis.PubSub
}

// New builds a Cache from a Redis connection URL.
func New(url string, logger *log.Logger) (*Cache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	pubOpt := *opt
	subOpt := *opt

	return &Cache{
		client:     redis.NewClient(opt),
		publisher:  redis.NewClient(&pubOpt),
		subscriber: redis.NewClient(&subOpt),
		logger:     logger,
		subs:       make(map[string]*redis.PubSub),
	}, nil
}

// Open verifies the store is reachable.
func (c *Cache) Open(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close tears down all three connections. Each failure is logged in
// isolation; the first error is returned.
func (c *Cache) Close() error {
	c.mu.Lock()
	for channel, sub := range c.subs {
		if err := sub.Close(); err != nil {
			c.logger.Printf("error closing subscription %s: %v", channel, err)
		}
	}
	c.subs = make(map[string]*redis.PubSub)
	c.mu.Unlock()

	var firstErr error
	for name, client := range map[string]*redis.Client{
		"client": c.client, "publisher": c.publisher, "subscriber": c.subscriber,
	} {
		if err := client.Close(); err != nil {
			c.logger.Printf("error closing redis %s: %v", name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Set serializes value to JSON and stores it under key.
func (c *Cache) Set(ctx context.Context, key string, value any, opts Options) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", key, err)
	}

	if opts.OnlyIfAbsent {
		if err := c.client.SetNX(ctx, key, data, opts.TTL).Err(); err != nil {
			return fmt.Errorf("redis SETNX %s: %w", key, err)
		}
		return nil
	}
	if err := c.client.Set(ctx, key, data, opts.TTL).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Get loads the value stored under key into dest. Returns ErrCacheMiss
// when the key is absent or the payload does not decode.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis GET %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.logger.Printf("malformed cache value for %s: %v", key, err)
		return ErrCacheMiss
	}
	return nil
}

// Del removes a key.
func (c *Cache) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis DEL %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a key is present.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis EXISTS %s: %w", key, err)
	}
	return n == 1, nil
}

// Expire sets a fresh TTL on an existing key.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("redis EXPIRE %s: %w", key, err)
	}
	return nil
}

// HSet stores a single hash field, JSON-serialized independently of its
// siblings.
func (c *Cache) HSet(ctx context.Context, key, field string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal hash field %s of %s: %w", field, key, err)
	}
	if err := c.client.HSet(ctx, key, field, data).Err(); err != nil {
		return fmt.Errorf("redis HSET %s %s: %w", key, field, err)
	}
	return nil
}

// HGet loads one hash field into dest with the same miss semantics as Get.
func (c *Cache) HGet(ctx context.Context, key, field string, dest any) error {
	raw, err := c.client.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis HGET %s %s: %w", key, field, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.logger.Printf("malformed hash field %s of %s: %v", field, key, err)
		return ErrCacheMiss
	}
	return nil
}

// HDel removes fields from a hash.
func (c *Cache) HDel(ctx context.Context, key string, fields ...string) error {
	if err := c.client.HDel(ctx, key, fields...).Err(); err != nil {
		return fmt.Errorf("redis HDEL %s: %w", key, err)
	}
	return nil
}

// HGetAll loads every field of a hash. Fields whose payload does not
// decode are skipped and logged; one bad field never fails the whole read.
func (c *Cache) HGetAll(ctx context.Context, key string) (map[string]json.RawMessage, error) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", key, err)
	}

	out := make(map[string]json.RawMessage, len(fields))
	for field, raw := range fields {
		if !json.Valid([]byte(raw)) {
			c.logger.Printf("skipping malformed hash field %s of %s", field, key)
			continue
		}
		out[field] = json.RawMessage(raw)
	}
	return out, nil
}

// LPush prepends JSON-serialized values to a list. Together with LTrim it
// serves as a bounded ring buffer for rolling history.
func (c *Cache) LPush(ctx context.Context, key string, values ...any) error {
	serialized := make([]any, 0, len(values))
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal list value for %s: %w", key, err)
		}
		serialized = append(serialized, data)
	}
	if err := c.client.LPush(ctx, key, serialized...).Err(); err != nil {
		return fmt.Errorf("redis LPUSH %s: %w", key, err)
	}
	return nil
}

// LRange returns the list entries in [start, stop]. Entries that do not
// decode are skipped and logged.
func (c *Cache) LRange(ctx context.Context, key string, start, stop int64) ([]json.RawMessage, error) {
	raws, err := c.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis LRANGE %s: %w", key, err)
	}

	out := make([]json.RawMessage, 0, len(raws))
	for i, raw := range raws {
		if !json.Valid([]byte(raw)) {
			c.logger.Printf("skipping malformed list entry %d of %s", i, key)
			continue
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, nil
}

// LTrim bounds a list to [start, stop].
func (c *Cache) LTrim(ctx context.Context, key string, start, stop int64) error {
	if err := c.client.LTrim(ctx, key, start, stop).Err(); err != nil {
		return fmt.Errorf("redis LTRIM %s: %w", key, err)
	}
	return nil
}

// HealthCheck pings the general connection.
func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
