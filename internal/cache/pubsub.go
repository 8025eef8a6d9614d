package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publish serializes message to JSON and publishes it on a channel. The
// channel namespace is independent of the cache key space and uses the
// dedicated publisher connection.
func (c *Cache) Publish(ctx context.Context, channel string, message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message for channel %s: %w", channel, err)
	}
	if err := c.publisher.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH %s: %w", channel, err)
	}
	return nil
}

// Subscribe attaches callback to a channel on the dedicated subscriber
// connection. Messages that fail to decode are logged and dropped. The
// subscription runs until Unsubscribe or Close.
func (c *Cache) Subscribe(ctx context.Context, channel string, callback func(json.RawMessage)) error {
	c.mu.Lock()
	if _, exists := c.subs[channel]; exists {
		c.mu.Unlock()
		return fmt.Errorf("cache: already subscribed to channel %s", channel)
	}

	sub := c.subscriber.Subscribe(ctx, channel)
	c.subs[channel] = sub
	c.mu.Unlock()

	// Force the subscription to be established before returning.
	if _, err := sub.Receive(ctx); err != nil {
		c.dropSubscription(channel)
		sub.Close()
		return fmt.Errorf("redis SUBSCRIBE %s: %w", channel, err)
	}

	go func() {
		for msg := range sub.Channel() {
			if !json.Valid([]byte(msg.Payload)) {
				c.logger.Printf("malformed message on channel %s, dropped", channel)
				continue
			}
			callback(json.RawMessage(msg.Payload))
		}
	}()

	c.logger.Printf("subscribed to channel %s", channel)
	return nil
}

// Unsubscribe detaches from a channel and closes its subscription.
func (c *Cache) Unsubscribe(ctx context.Context, channel string) error {
	c.mu.Lock()
	sub, ok := c.subs[channel]
	delete(c.subs, channel)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("cache: not subscribed to channel %s", channel)
	}

	if err := sub.Unsubscribe(ctx, channel); err != nil {
		return fmt.Errorf("redis UNSUBSCRIBE %s: %w", channel, err)
	}
	if err := sub.Close(); err != nil {
		return fmt.Errorf("close subscription %s: %w", channel, err)
	}
	c.logger.Printf("unsubscribed from channel %s", channel)
	return nil
}

func (c *Cache) dropSubscription(channel string) {
	c.mu.Lock()
	delete(c.subs, channel)
	c.mu.Unlock()
}
