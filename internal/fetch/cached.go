package fetch

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/fortuna/puckline/internal/cache"
)

const cacheKeyPrefix = "puckline:doc:"

// CachedFetcher serves documents from a cache before falling through to
// the wrapped fetcher. Only use it for pages that no longer change, i.e.
// reports of completed games.
type CachedFetcher struct {
	next  Fetcher
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedFetcher wraps next with c. A zero ttl keeps entries forever.
func NewCachedFetcher(next Fetcher, c cache.Cache, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, cache: c, ttl: ttl}
}

func (f *CachedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	key := cacheKeyPrefix + url
	if v, err := f.cache.Get(ctx, key); err == nil {
		return []byte(v), nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("[fetch] ⚠️  cache read failed for %s: %v", url, err)
	}

	body, err := f.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Set(ctx, key, string(body), f.ttl); err != nil {
		log.Printf("[fetch] ⚠️  cache write failed for %s: %v", url, err)
	}
	return body, nil
}
