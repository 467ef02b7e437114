package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("connection refused")
	}
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *mapCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mapCache) Close() error { return nil }

type countingRenderer struct {
	calls int
	err   error
}

func (r *countingRenderer) RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-" + html), nil
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Delete(context.Background(), "k"))
	assert.NoError(t, c.Close())
}

func TestHashKey(t *testing.T) {
	assert.Len(t, HashKey([]byte("x")), 64)
	assert.Equal(t, HashKey([]byte("x")), HashKey([]byte("x")))
	assert.NotEqual(t, HashKey([]byte("x")), HashKey([]byte("y")))
}

func TestCachedRenderer_Hit(t *testing.T) {
	next := &countingRenderer{}
	r := NewCachedRenderer(next, &mapCache{data: map[string][]byte{}}, time.Hour, log.New(&bytes.Buffer{}))

	a, err := r.RenderHTMLToPDF(context.Background(), "<p>a</p>")
	require.NoError(t, err)
	b, err := r.RenderHTMLToPDF(context.Background(), "<p>a</p>")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, next.calls)

	_, err = r.RenderHTMLToPDF(context.Background(), "<p>b</p>")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedRenderer_CacheErrorFallsThrough(t *testing.T) {
	var logs bytes.Buffer
	next := &countingRenderer{}
	r := NewCachedRenderer(next, &mapCache{data: map[string][]byte{}, failGet: true}, time.Hour, log.New(&logs))

	_, err := r.RenderHTMLToPDF(context.Background(), "<p>a</p>")
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.Contains(t, logs.String(), "pdf cache read failed")
}

func TestCachedRenderer_ErrorNotCached(t *testing.T) {
	c := &mapCache{data: map[string][]byte{}}
	next := &countingRenderer{err: errors.New("boom")}
	r := NewCachedRenderer(next, c, time.Hour, nil)

	_, err := r.RenderHTMLToPDF(context.Background(), "<p>a</p>")
	assert.Error(t, err)
	assert.Empty(t, c.data)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-redis-url", "cv:")
	assert.Error(t, err)
}
