package catalog

import (
	"context"
	"fmt"
	"log"
	"time"
)

// SearchCache is the slice of the redis store the cached searcher needs.
type SearchCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// CachedSearcher memoizes search results for a short TTL. Cache failures are
// logged and treated as misses; the inner searcher stays authoritative.
type CachedSearcher struct {
	inner Searcher
	cache SearchCache
	ttl   time.Duration
}

func NewCachedSearcher(inner Searcher, cache SearchCache, ttl time.Duration) *CachedSearcher {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSearcher{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachedSearcher) Search(ctx context.Context, query string, limit int) ([]ProductRef, error) {
	key := fmt.Sprintf("catalog:search:%d:%s", limit, query)

	var cached []ProductRef
	hit, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		log.Printf("[CachedSearcher] cache get failed key=%q err=%v", key, err)
	} else if hit {
		return cached, nil
	}

	out, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetJSON(ctx, key, out, c.ttl); err != nil {
		log.Printf("[CachedSearcher] cache set failed key=%q err=%v", key, err)
	}
	return out, nil
}
