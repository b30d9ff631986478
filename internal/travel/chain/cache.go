package chain

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"
)

const visitedCacheSize = 10_000

// visitedCache memoizes per-address country lists. Expired entries are
// treated as absent; concurrent misses for one address share a single fetch.
// Each address has a generation bumped by invalidate; a load that started in
// an older generation is returned to its callers but never stored.
type visitedCache struct {
	entries gcache.Cache
	group   singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

func newVisitedCache(ttl time.Duration, clock gcache.Clock) *visitedCache {
	builder := gcache.New(visitedCacheSize).LRU().Expiration(ttl)
	if clock != nil {
		builder = builder.Clock(clock)
	}
	return &visitedCache{entries: builder.Build(), generations: make(map[string]uint64)}
}

func cacheKey(address string) string {
	return strings.ToLower(address)
}

// get returns a copy of the cached list, or loads and stores it.
func (c *visitedCache) get(ctx context.Context, address string, load func(context.Context) ([]string, error)) ([]string, error) {
	key := cacheKey(address)
	if v, err := c.entries.Get(key); err == nil {
		visitedCacheLookups.WithLabelValues("hit").Inc()
		return clone(v.([]string)), nil
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		return nil, err
	}
	visitedCacheLookups.WithLabelValues("miss").Inc()

	gen := c.generation(key)
	v, err, _ := c.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		countries, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.generations[key] == gen {
			_ = c.entries.Set(key, countries)
		}
		c.mu.Unlock()
		return countries, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]string)), nil
}

func (c *visitedCache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key]
}

func (c *visitedCache) invalidate(address string) {
	key := cacheKey(address)
	c.mu.Lock()
	c.generations[key]++
	c.entries.Remove(key)
	c.mu.Unlock()
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
