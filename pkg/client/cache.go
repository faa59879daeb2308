package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

const (
	catalogKey          = "catalog"
	defaultFetchTimeout = 30 * time.Second
)

// CatalogCache memoizes the catalog for a TTL and collapses concurrent fetches
// into one request. A zero TTL still de-duplicates in-flight fetches.
//
// The shared fetch is detached from the caller that started it, so one caller
// giving up does not fail the others. Each caller still returns as soon as its
// own context is done.
type CatalogCache struct {
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	group        singleflight.Group
	mu           sync.RWMutex
	types        []dashboard.WidgetTypeMeta
	expires      time.Time
	cached       bool
	generation   uint64
}

// NewCatalogCache builds a cache with the provided TTL.
func NewCatalogCache(ttl time.Duration) *CatalogCache {
	return &CatalogCache{ttl: ttl, fetchTimeout: defaultFetchTimeout, now: time.Now}
}

// GetOrFetch returns the cached catalog or runs fetch once for all waiting callers.
func (c *CatalogCache) GetOrFetch(ctx context.Context, fetch func(context.Context) ([]dashboard.WidgetTypeMeta, error)) ([]dashboard.WidgetTypeMeta, error) {
	if types, ok := c.get(); ok {
		return types, nil
	}
	results := c.group.DoChan(catalogKey, func() (any, error) {
		gen := c.currentGeneration()
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		types, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.set(types, gen)
		return types, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneTypes(res.Val.([]dashboard.WidgetTypeMeta)), nil
	}
}

// Invalidate drops the cached catalog. A fetch already in flight still answers
// its waiting callers but no longer refills the cache, and the next call starts
// a fresh request.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.cached = false
	c.types = nil
	c.mu.Unlock()
	c.group.Forget(catalogKey)
}

func (c *CatalogCache) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *CatalogCache) get() ([]dashboard.WidgetTypeMeta, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.cached || c.now().After(c.expires) {
		return nil, false
	}
	return cloneTypes(c.types), true
}

func (c *CatalogCache) set(types []dashboard.WidgetTypeMeta, gen uint64) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.types = cloneTypes(types)
	c.expires = c.now().Add(c.ttl)
	c.cached = true
}

func cloneTypes(types []dashboard.WidgetTypeMeta) []dashboard.WidgetTypeMeta {
	if types == nil {
		return nil
	}
	return append([]dashboard.WidgetTypeMeta(nil), types...)
}
