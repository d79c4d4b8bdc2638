package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "gamehub:revoked:"

// RedisDenylist stores revoked token ids as keys that expire with the token.
type RedisDenylist struct {
	client *redis.Client
}

func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistPrefix+tokenID, 1, ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryDenylist is the single-process denylist used when Redis is not
// configured. Expired entries are dropped lazily.
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{entries: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDenylist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for id, exp := range d.entries {
		if !exp.After(now) {
			delete(d.entries, id)
		}
	}
	if until.After(now) {
		d.entries[tokenID] = until
	}
	return nil
}

func (d *MemoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	exp, ok := d.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !exp.After(d.now()) {
		delete(d.entries, tokenID)
		return false, nil
	}
	return true, nil
}
