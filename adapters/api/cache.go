package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"phenosum/domain/table"
)

// DefaultLoadTimeout bounds a shared load once it no longer follows any
// request's cancellation.
const DefaultLoadTimeout = 5 * time.Minute

// LoadFunc produces one dataset
type LoadFunc func(ctx context.Context) (*table.Table, error)

// Cache keeps loaded datasets in memory. Concurrent requests for a dataset
// that is still loading share the same load.
type Cache struct {
	group   singleflight.Group
	mu      sync.RWMutex
	tables  map[string]*table.Table
	timeout time.Duration
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{tables: make(map[string]*table.Table), timeout: DefaultLoadTimeout}
}

// Get returns the cached dataset or loads it. Failed loads are not cached.
// The load is shared by every waiting caller, so it runs detached from the
// caller that started it; each caller still stops waiting when its own
// context is done.
func (c *Cache) Get(ctx context.Context, key string, load LoadFunc) (*table.Table, error) {
	c.mu.RLock()
	t, ok := c.tables[key]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		t, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tables[key] = t
		c.mu.Unlock()
		return t, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*table.Table), nil
	}
}

// Reset drops every cached dataset
func (c *Cache) Reset() {
	c.mu.Lock()
	c.tables = make(map[string]*table.Table)
	c.mu.Unlock()
}
