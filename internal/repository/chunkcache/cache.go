// Package chunkcache memoizes decoded chunk files in process, with an optional shared KV tier.
package chunkcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/civiccompass/internal/codec"
	"github.com/kailas-cloud/civiccompass/internal/db"
	"github.com/kailas-cloud/civiccompass/internal/domain"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
)

const chunkKeySegment = "chunk:"

// source is the consumer interface for raw chunk documents (ISP).
type source interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// store is the consumer interface for the shared cache tier (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
}

// Cache returns decoded chunks. Each path is fetched at most once at a time; successful
// decodes are kept for the life of the cache.
type Cache struct {
	inner      source
	store      store
	ttl        time.Duration
	keyPrefix  string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger

	mu    sync.RWMutex
	memo  map[string]corpus.Chunk
	group singleflight.Group
}

// New creates a caching decorator. s may be nil to disable the shared tier.
// cacheTotal is a counter vec with labels "tier" and "result", passed explicitly.
func New(
	inner source,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		keyPrefix:  domain.KeyPrefix + chunkKeySegment,
		cacheTotal: cacheTotal,
		logger:     logger,
		memo:       make(map[string]corpus.Chunk),
	}
}

// WithKeyPrefix namespaces shared-tier keys under prefix instead of the default.
func (c *Cache) WithKeyPrefix(prefix string) *Cache {
	if prefix != "" {
		c.keyPrefix = prefix + chunkKeySegment
	}
	return c
}

// Chunk returns the decoded chunk at a normalized chunk path.
func (c *Cache) Chunk(ctx context.Context, path string) (corpus.Chunk, error) {
	c.mu.RLock()
	chunk, ok := c.memo[path]
	c.mu.RUnlock()
	if ok {
		c.inc("memory", "hit")
		return chunk, nil
	}
	c.inc("memory", "miss")

	// The shared load outlives any single caller; each caller only stops waiting on its own ctx.
	ch := c.group.DoChan(path, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), path)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(corpus.Chunk), nil
	}
}

func (c *Cache) load(ctx context.Context, path string) (corpus.Chunk, error) {
	if chunk, ok := c.getFromStore(ctx, path); ok {
		c.remember(path, chunk)
		return chunk, nil
	}

	data, err := c.inner.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch chunk: %w", err)
	}
	chunk, err := corpus.DecodeChunk(data)
	if err != nil {
		return nil, domain.NewChunkError(path, err)
	}

	c.putToStore(ctx, path, data)
	c.remember(path, chunk)
	return chunk, nil
}

func (c *Cache) remember(path string, chunk corpus.Chunk) {
	c.mu.Lock()
	c.memo[path] = chunk
	c.mu.Unlock()
}

// Len returns the number of memoized chunks.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memo)
}

// Purge drops every memoized chunk and the shared-tier copies.
func (c *Cache) Purge(ctx context.Context) error {
	c.mu.Lock()
	c.memo = make(map[string]corpus.Chunk)
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	keys, err := c.store.Scan(ctx, c.keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan cached chunks: %w", err)
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete cached chunks: %w", err)
	}
	return nil
}

func (c *Cache) inc(tier, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(tier, result).Inc()
	}
}

func (c *Cache) cacheKey(path string) string {
	return c.keyPrefix + path
}

func (c *Cache) getFromStore(ctx context.Context, path string) (corpus.Chunk, bool) {
	if c.store == nil {
		return nil, false
	}
	key := c.cacheKey(path)
	packed, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached chunk", zap.String("key", key), zap.Error(err))
		}
		c.inc("kv", "miss")
		return nil, false
	}

	data, err := codec.Decompress(packed)
	if err != nil {
		c.logger.Warn("Failed to decompress cached chunk", zap.String("key", key), zap.Error(err))
		c.inc("kv", "miss")
		return nil, false
	}
	chunk, err := corpus.DecodeChunk(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached chunk", zap.String("key", key), zap.Error(err))
		c.inc("kv", "miss")
		return nil, false
	}

	c.inc("kv", "hit")
	return chunk, true
}

func (c *Cache) putToStore(ctx context.Context, path string, data []byte) {
	if c.store == nil {
		return
	}
	key := c.cacheKey(path)
	if err := c.store.SetWithTTL(ctx, key, codec.Compress(data), c.ttl); err != nil {
		c.logger.Warn("Failed to cache chunk", zap.String("key", key), zap.Error(err))
	}
}
