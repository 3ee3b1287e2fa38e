package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ledger "github.com/lidne/stockexchange/internal/domain/entity/ledger"
	interfaces "github.com/lidne/stockexchange/internal/domain/interfaces"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// KeyPattern matches every cached GET response.
	KeyPattern = "cache:GET:*"
	scanBatch  = 100
)

// ResponseCache keeps rendered GET responses in Redis and drops them whenever the
// ledger changes.
//
// Every invalidation bumps a generation counter. A response computed while the
// generation moved may reflect the ledger before the change and is not stored.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry

	mu         sync.RWMutex
	generation uint64
}

var (
	_ interfaces.TradeEventPublisher = (*ResponseCache)(nil)
	_ interfaces.ValuationCache      = (*ResponseCache)(nil)
)

func NewResponseCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *ResponseCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ResponseCache{
		client: client,
		ttl:    ttl,
		logger: logger.WithField("component", "response_cache"),
	}
}

// Get returns the cached body for key. A miss is reported with ok == false and no error.
func (c *ResponseCache) Get(ctx context.Context, key string) (string, bool, error) {
	body, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return body, true, nil
}

// Generation identifies the current cache epoch. Take it before reading the ledger.
func (c *ResponseCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Set stores body under key unless an invalidation happened after generation was taken.
// It reports whether the body was stored.
func (c *ResponseCache) Set(ctx context.Context, key, body string, generation uint64) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.generation != generation {
		return false, nil
	}
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		return false, fmt.Errorf("write %s: %w", key, err)
	}
	return true, nil
}

// Invalidate drops every cached GET response. Writes in flight either finish before the
// generation moves, and are deleted here, or observe the new generation and skip.
func (c *ResponseCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, KeyPattern, scanBatch).Result()
		if err != nil {
			c.logger.WithError(err).Warn("cache scan failed")
			return fmt.Errorf("scan cached responses: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.WithError(err).Warn("cache invalidation failed")
				return fmt.Errorf("delete cached responses: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// PublishTradeRecorded invalidates cached valuations once a trade is committed, whatever
// path the notification took.
func (c *ResponseCache) PublishTradeRecorded(ctx context.Context, _ ledger.TradeRecorded) error {
	return c.Invalidate(ctx)
}

// Close is a no-op; the Redis client belongs to the caller.
func (c *ResponseCache) Close() error {
	return nil
}
