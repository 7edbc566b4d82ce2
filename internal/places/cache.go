// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultLookupTimeout bounds a shared upstream lookup
const DefaultLookupTimeout = time.Second * 30

type cacheKey struct {
	Provider string
	Query    string
}

type cacheEntry struct {
	Places []Place
	Expiry time.Time
}

// CachedAutocompleter caches the suggestions of another Autocompleter. Empty results are kept
// for ttlMiss, all others for ttlHit. Errors are never cached. Concurrent lookups of the same
// query share a single upstream request.
type CachedAutocompleter struct {
	coder   Autocompleter
	ttlHit  time.Duration
	ttlMiss time.Duration
	timeout time.Duration
	group   singleflight.Group
	hits    atomic.Uint64

	mu    sync.RWMutex
	cache map[cacheKey]cacheEntry
}

func NewCachedAutocompleter(coder Autocompleter, ttlHit, ttlMiss time.Duration) *CachedAutocompleter {
	return &CachedAutocompleter{
		coder:   coder,
		ttlHit:  ttlHit,
		ttlMiss: ttlMiss,
		timeout: DefaultLookupTimeout,
		cache:   make(map[cacheKey]cacheEntry),
	}
}

func (c *CachedAutocompleter) Name() string {
	return "autocomplete cache using " + c.coder.Name()
}

// Hits returns the number of lookups that were served from the cache
func (c *CachedAutocompleter) Hits() uint64 {
	return c.hits.Load()
}

func (c *CachedAutocompleter) Autocomplete(ctx context.Context, q Query) ([]Place, error) {
	key := cacheKey{Provider: c.coder.Name(), Query: q.Key()}

	c.mu.RLock()
	entry, ok := c.cache[key]
	if ok && time.Now().Before(entry.Expiry) {
		found := slices.Clone(entry.Places)
		c.mu.RUnlock()
		c.hits.Add(1)
		return found, nil
	}
	c.mu.RUnlock()

	// The shared lookup outlives the caller that started it, other callers may have joined.
	resultChan := c.group.DoChan(key.Provider+"\x00"+key.Query, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		found, err := c.coder.Autocomplete(lookupCtx, q)
		if err != nil {
			return nil, err
		}
		c.store(key, found)
		return found, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-resultChan:
		if result.Err != nil {
			return nil, result.Err
		}
		found, _ := result.Val.([]Place)
		return slices.Clone(found), nil
	}
}

// Purge removes all expired entries from the cache
func (c *CachedAutocompleter) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked(time.Now())
}

// Len returns the number of cached queries, including expired ones that were not purged yet
func (c *CachedAutocompleter) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *CachedAutocompleter) store(key cacheKey, found []Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.purgeLocked(now)

	ttl := c.ttlHit
	if len(found) == 0 {
		ttl = c.ttlMiss
	}
	if ttl <= 0 {
		return
	}
	c.cache[key] = cacheEntry{
		Places: slices.Clone(found),
		Expiry: now.Add(ttl),
	}
}

func (c *CachedAutocompleter) purgeLocked(now time.Time) {
	for key, entry := range c.cache {
		if !now.Before(entry.Expiry) {
			delete(c.cache, key)
		}
	}
}
