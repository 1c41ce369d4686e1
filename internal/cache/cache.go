// Package cache provides a thin, nil-safe Redis wrapper used to cache
// public balance views. The ledger remains the source of truth; entries
// carry a short TTL and are invalidated on every write to the owning card.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const keyPrefix = "giftcard:view:"

// Cache wraps a Redis client. A nil *Cache is valid and disables caching.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis. Returns nil (caching disabled) when addr is empty.
func New(addr, password string, db int, ttl time.Duration) *Cache {
	if addr == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get returns the cached payload for a card code, if present.
func (c *Cache) Get(ctx context.Context, code string) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	payload, err := c.rdb.Get(ctx, keyPrefix+code).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).Debug("cache: get failed")
		}
		return nil, false
	}
	return payload, true
}

// Set stores a payload for a card code with the configured TTL.
// Failures are logged and ignored; the cache is best effort.
func (c *Cache) Set(ctx context.Context, code string, payload []byte) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+code, payload, c.ttl).Err(); err != nil {
		log.WithError(err).Debug("cache: set failed")
	}
}

// Del drops the cached view for a card code. Called after any write that
// changes the card's balance or status.
func (c *Cache) Del(ctx context.Context, code string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, keyPrefix+code).Err(); err != nil {
		log.WithError(err).Debug("cache: del failed")
	}
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
