package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	rateLimitPrefix   = "gamehub:ratelimit:"
	limiterCleanupTTL = 30 * time.Minute
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisRateLimiter is a fixed-window counter shared by every replica.
type RedisRateLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
}

func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, requests: requests, window: window}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := time.Now().UnixNano() / int64(l.window)
	redisKey := rateLimitPrefix + key + ":" + time.Unix(0, bucket*int64(l.window)).UTC().Format(time.RFC3339)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.requests), nil
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// MemoryRateLimiter keeps one token bucket per key in process memory.
// The bucket refills requests tokens per window with a burst of requests.
type MemoryRateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

func NewMemoryRateLimiter(requests int, window time.Duration) *MemoryRateLimiter {
	if requests < 1 {
		requests = 1
	}
	return &MemoryRateLimiter{
		entries:   make(map[string]*limiterEntry),
		limit:     rate.Every(window / time.Duration(requests)),
		burst:     requests,
		lastSweep: time.Now(),
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > limiterCleanupTTL {
		for k, e := range l.entries {
			if now.Sub(e.lastUse) > limiterCleanupTTL {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastUse = now
	return e.limiter.AllowN(now, 1), nil
}
