package cache

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveCache backs a Cache with an in-process Redis so the real command
// paths, TTLs, and the limiter script are exercised.
func liveCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c, err := New("redis://"+srv.Addr(), log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, srv
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := liveCache(t)
	ctx := context.Background()

	type holding struct {
		Symbol string  `json:"symbol"`
		Amount float64 `json:"amount"`
	}
	in := holding{Symbol: "BTC", Amount: 0.5}
	require.NoError(t, c.Set(ctx, "k", in, Options{}))

	var out holding
	require.NoError(t, c.Get(ctx, "k", &out))
	assert.Equal(t, in, out)
}

func TestGetMissingKey(t *testing.T) {
	c, _ := liveCache(t)

	var out string
	err := c.Get(context.Background(), "missing", &out)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestTTLExpiry(t *testing.T) {
	c, srv := liveCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", Options{TTL: time.Minute}))

	var out string
	require.NoError(t, c.Get(ctx, "k", &out))
	assert.Equal(t, "v", out)

	srv.FastForward(time.Minute + time.Second)

	err := c.Get(ctx, "k", &out)
	assert.ErrorIs(t, err, ErrCacheMiss, "an expired key must read as a miss")
}

func TestOnlyIfAbsentDoesNotOverwrite(t *testing.T) {
	c, _ := liveCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "first", Options{}))
	require.NoError(t, c.Set(ctx, "k", "second", Options{OnlyIfAbsent: true}))

	var out string
	require.NoError(t, c.Get(ctx, "k", &out))
	assert.Equal(t, "first", out)
}

func TestMalformedValueReadsAsMiss(t *testing.T) {
	c, srv := liveCache(t)

	require.NoError(t, srv.Set("k", "{not json"))

	var out string
	err := c.Get(context.Background(), "k", &out)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestHGetAllSkipsMalformedField(t *testing.T) {
	c, srv := liveCache(t)
	ctx := context.Background()

	require.NoError(t, c.HSet(ctx, "h", "good", "value"))
	srv.HSet("h", "broken", "{oops")

	fields, err := c.HGetAll(ctx, "h")
	require.NoError(t, err, "one bad field must not fail the whole read")
	assert.Contains(t, fields, "good")
	assert.NotContains(t, fields, "broken")
}

func TestListRingBuffer(t *testing.T) {
	c, _ := liveCache(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, c.LPush(ctx, "hist", i))
	}
	require.NoError(t, c.LTrim(ctx, "hist", 0, 2))

	entries, err := c.LRange(ctx, "hist", 0, -1)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "5", string(entries[0]), "newest entry first")
}

func TestRateLimiterWindow(t *testing.T) {
	c, srv := liveCache(t)
	limiter := c.Limiter()
	ctx := context.Background()

	var results []bool
	for i := 0; i < 4; i++ {
		results = append(results, limiter.Allow(ctx, "ip:1.2.3.4", 3, 60))
	}
	assert.Equal(t, []bool{true, true, true, false}, results)

	ttl := srv.TTL(KeyRateLimit + "ip:1.2.3.4")
	assert.Equal(t, 60*time.Second, ttl, "the window expiry is set with the first increment")

	srv.FastForward(61 * time.Second)
	assert.True(t, limiter.Allow(ctx, "ip:1.2.3.4", 3, 60), "allowance resumes after the window elapses")
}

func TestRateLimiterIsolatesIdentifiers(t *testing.T) {
	c, _ := liveCache(t)
	limiter := c.Limiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow(ctx, "ip:1.1.1.1", 3, 60))
	}
	assert.False(t, limiter.Allow(ctx, "ip:1.1.1.1", 3, 60))
	assert.True(t, limiter.Allow(ctx, "ip:2.2.2.2", 3, 60), "another identifier has its own counter")
}

func TestSessionWrappers(t *testing.T) {
	c, srv := liveCache(t)
	ctx := context.Background()

	require.NoError(t, c.CacheSession(ctx, "user-1", map[string]string{"email": "a@b.c"}))

	ttl := srv.TTL(KeyUserSession + "user-1")
	assert.Equal(t, SessionTTL, ttl)

	var sess map[string]string
	require.NoError(t, c.Session(ctx, "user-1", &sess))
	assert.Equal(t, "a@b.c", sess["email"])

	require.NoError(t, c.InvalidateSession(ctx, "user-1"))
	assert.ErrorIs(t, c.Session(ctx, "user-1", &sess), ErrCacheMiss)
}
