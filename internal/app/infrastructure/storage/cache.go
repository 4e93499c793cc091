package storage

import (
	"time"

	"github.com/maypok86/otter/v2"
)

// Cache is a TTL-bounded in-memory cache. The entry lifetime is refreshed
// on access, so hot keys stay resident.
type Cache[T any] struct {
	outer *otter.Cache[string, T]
}

func NewCache[T any](capacity int, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		outer: otter.Must(&otter.Options[string, T]{
			InitialCapacity:  capacity,
			ExpiryCalculator: otter.ExpiryAccessing[string, T](ttl),
		}),
	}
}

func (c *Cache[T]) Set(key string, val T) {
	c.outer.Set(key, val)
}

func (c *Cache[T]) Get(key string) (T, bool) {
	return c.outer.GetIfPresent(key)
}

func (c *Cache[T]) Invalidate(key string) {
	c.outer.Invalidate(key)
}

func (c *Cache[T]) Clear() {
	c.outer.InvalidateAll()
}

func (c *Cache[T]) Len() int {
	return c.outer.EstimatedSize()
}
