package cache

import (
	"context"
	"time"
)

// NullCache forgets everything it is given, so every chip width is re-read
// from disk and every module is re-rendered. It backs --no-cache, the
// "none" backend and runners built without a cache.
type NullCache struct{}

// NewNullCache returns a [NullCache].
func NewNullCache() *NullCache {
	return &NullCache{}
}

// Get always misses.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
