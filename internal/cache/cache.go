// Package cache provides a small in-memory LRU cache for fetched markup,
// keyed by URL. It saves repeated network round trips within one run; the
// durable copy of an entity's markup lives in the store.
package cache

import (
	"container/list"
	"sync"
)

// Cache is the markup cache the fetcher consults before the network.
type Cache interface {
	Get(url string) (string, bool)
	Set(url, markup string)
}

type entry struct {
	url    string
	markup string
}

// LRU is a fixed-capacity least-recently-used markup cache.
type LRU struct {
	mu      sync.Mutex
	store   map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
}

// NewLRU creates a cache holding at most maxEntries pages.
func NewLRU(maxEntries int) *LRU {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &LRU{
		store:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxEntries,
	}
}

// Get returns the cached markup for url, marking it most recently used.
func (c *LRU) Get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.store[url]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).markup, true
}

// Set stores markup under url, evicting the least recently used page when
// the cache is full.
func (c *LRU) Set(url, markup string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.store[url]; ok {
		el.Value.(*entry).markup = markup
		c.order.MoveToFront(el)
		return
	}

	for c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.store, oldest.Value.(*entry).url)
	}

	c.store[url] = c.order.PushFront(&entry{url: url, markup: markup})
}

// Len returns the number of cached pages.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
