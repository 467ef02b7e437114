package infrastructure

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// Cache is a byte store keyed by string with per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache never stores anything.
type NullCache struct{}

func NewNullCache() Cache { return &NullCache{} }

func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

func (c *NullCache) Delete(ctx context.Context, key string) error { return nil }

func (c *NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)

// RedisCache stores entries in Redis under a fixed key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects using a redis:// URL and pings the server once.
func NewRedisCache(ctx context.Context, url, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client, prefix: prefix}, nil
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *RedisCache) Close() error { return c.client.Close() }

var _ Cache = (*RedisCache)(nil)

// HashKey returns the full SHA-256 hex digest of data.
func HashKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// pdfRenderer matches usecase.Renderer without importing it.
type pdfRenderer interface {
	RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

// CachedRenderer memoizes PDF output by the hash of the input HTML.
// Cache failures are logged and never fail a render.
type CachedRenderer struct {
	next   pdfRenderer
	cache  Cache
	ttl    time.Duration
	logger *log.Logger
}

func NewCachedRenderer(next pdfRenderer, cache Cache, ttl time.Duration, logger *log.Logger) *CachedRenderer {
	if cache == nil {
		cache = NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CachedRenderer{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (r *CachedRenderer) RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error) {
	key := "pdf:" + HashKey([]byte(html))
	if b, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn("pdf cache read failed", "err", err)
	} else if ok {
		r.logger.Debug("pdf cache hit", "key", key[:16])
		return b, nil
	}

	b, err := r.next.RenderHTMLToPDF(ctx, html)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, b, r.ttl); err != nil {
		r.logger.Warn("pdf cache write failed", "err", err)
	}
	return b, nil
}
