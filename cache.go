package searchset

import (
	"sync"
	"time"
)

// lookupCache remembers which node resolved a member name, and which names
// resolved nowhere. The SearchSet clears it on every change to its nodes.
type lookupCache struct {
	hits       map[string]*hitEntry
	misses     map[string]time.Time
	mu         sync.RWMutex
	hitTTL     time.Duration
	missTTL    time.Duration
	maxEntries int
	enabled    bool
	hitCount   uint64
	missCount  uint64
}

type hitEntry struct {
	node    *node
	expires time.Time
}

func newLookupCache(enabled bool, hitTTL, missTTL time.Duration, maxEntries int) *lookupCache {
	if !enabled {
		return &lookupCache{enabled: false}
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &lookupCache{
		hits:       make(map[string]*hitEntry),
		misses:     make(map[string]time.Time),
		hitTTL:     hitTTL,
		missTTL:    missTTL,
		maxEntries: maxEntries,
		enabled:    true,
	}
}

// get returns the cached resolution of name. found is false for a cached
// miss; ok is false when nothing usable is cached.
func (c *lookupCache) get(name string) (n *node, found, ok bool) {
	if !c.enabled {
		return nil, false, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, hit := c.hits[name]; hit && now.Before(e.expires) {
		c.hitCount++
		return e.node, true, true
	}
	if exp, miss := c.misses[name]; miss && now.Before(exp) {
		c.hitCount++
		return nil, false, true
	}
	c.missCount++
	return nil, false, false
}

func (c *lookupCache) putHit(name string, n *node) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.hits) >= c.maxEntries {
		c.evictOldestHit()
	}
	c.hits[name] = &hitEntry{node: n, expires: time.Now().Add(c.hitTTL)}
	delete(c.misses, name)
}

func (c *lookupCache) putMiss(name string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.misses) >= c.maxEntries {
		c.evictOldestMiss()
	}
	c.misses[name] = time.Now().Add(c.missTTL)
	delete(c.hits, name)
}

func (c *lookupCache) invalidate(name string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.hits, name)
	delete(c.misses, name)
}

func (c *lookupCache) clear() {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.hits = make(map[string]*hitEntry)
	c.misses = make(map[string]time.Time)
}

func (c *lookupCache) evictOldestHit() {
	var oldest string
	var oldestTime time.Time
	for name, e := range c.hits {
		if oldest == "" || e.expires.Before(oldestTime) {
			oldest = name
			oldestTime = e.expires
		}
	}
	if oldest != "" {
		delete(c.hits, oldest)
	}
}

func (c *lookupCache) evictOldestMiss() {
	var oldest string
	var oldestTime time.Time
	for name, exp := range c.misses {
		if oldest == "" || exp.Before(oldestTime) {
			oldest = name
			oldestTime = exp
		}
	}
	if oldest != "" {
		delete(c.misses, oldest)
	}
}

func (c *lookupCache) stats() CacheStats {
	if !c.enabled {
		return CacheStats{Enabled: false}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Enabled:     true,
		HitEntries:  len(c.hits),
		MissEntries: len(c.misses),
		MaxEntries:  c.maxEntries,
		HitTTL:      c.hitTTL,
		MissTTL:     c.missTTL,
		Hits:        c.hitCount,
		Misses:      c.missCount,
	}
}

// CacheStats describes the lookup cache of a SearchSet
type CacheStats struct {
	Enabled     bool
	HitEntries  int // names cached as resolved
	MissEntries int // names cached as absent
	MaxEntries  int
	HitTTL      time.Duration
	MissTTL     time.Duration
	Hits        uint64 // lookups answered from the cache
	Misses      uint64
}
