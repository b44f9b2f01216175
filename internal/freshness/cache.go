// Package freshness tracks which article URLs were published recently
// enough that fetching them again is pointless.
package freshness

import (
	"sync"
	"time"
)

// Cache maps article URL to publication time under a sliding window.
// Entries expire by age only; there is no size bound. Safe for concurrent
// use.
type Cache struct {
	mu      sync.RWMutex
	window  time.Duration
	entries map[string]time.Time
}

// New returns an empty cache for the given window.
func New(window time.Duration) *Cache {
	return &Cache{
		window:  window,
		entries: make(map[string]time.Time),
	}
}

// Window returns the configured window.
func (c *Cache) Window() time.Duration {
	return c.window
}

// IsFresh reports whether url is cached and now - published < window.
func (c *Cache) IsFresh(url string, now time.Time) bool {
	c.mu.RLock()
	published, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	return now.UTC().Sub(published) < c.window
}

// Put records url with its publication time.
func (c *Cache) Put(url string, published time.Time) {
	c.mu.Lock()
	c.entries[url] = published.UTC()
	c.mu.Unlock()
}

// Get returns the cached publication time of url.
func (c *Cache) Get(url string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[url]
	return t, ok
}

// Remove drops url from the cache.
func (c *Cache) Remove(url string) {
	c.mu.Lock()
	delete(c.entries, url)
	c.mu.Unlock()
}

// Prune removes every entry whose age is at least the window and returns
// how many were removed.
func (c *Cache) Prune(now time.Time) int {
	now = now.UTC()

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for url, published := range c.entries {
		if now.Sub(published) >= c.window {
			delete(c.entries, url)
			removed++
		}
	}
	return removed
}

// Load replaces the cache contents, typically with the store's fresh
// records at startup.
func (c *Cache) Load(entries map[string]time.Time) {
	fresh := make(map[string]time.Time, len(entries))
	for url, published := range entries {
		fresh[url] = published.UTC()
	}

	c.mu.Lock()
	c.entries = fresh
	c.mu.Unlock()
}

// Clear empties the cache and returns how many entries it held.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]time.Time)
	return n
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
