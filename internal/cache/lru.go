package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a thread-safe, capacity-bounded in-process store of envelopes.
// Entries are stored and returned as clones so callers never share metadata maps.
type LRU struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type lruEntry struct {
	key string
	env *Envelope
}

// NewLRU creates an LRU holding at most capacity entries. A non-positive
// capacity yields a cache that stores nothing.
func NewLRU(capacity int) *LRU {
	return &LRU{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the envelope under key and marks it most recently used.
func (c *LRU) Get(key string) (*Envelope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	c.order.MoveToFront(elem)
	return elem.Value.(*lruEntry).env.Clone(), true
}

// Put stores env under key, evicting the least recently used entry when full.
func (c *LRU) Put(key string, env *Envelope) {
	if c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*lruEntry).env = env.Clone()
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			delete(c.entries, oldest.Value.(*lruEntry).key)
			c.order.Remove(oldest)
		}
	}

	c.entries[key] = c.order.PushFront(&lruEntry{key: key, env: env.Clone()})
}

// Invalidate removes key from the cache.
func (c *LRU) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.order.Remove(elem)
	}
}

// Clear removes all entries.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// PurgeExpired drops every entry expired at now and returns how many went.
func (c *LRU) PurgeExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	purged := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		entry := elem.Value.(*lruEntry)
		if entry.env.Expired(now) {
			delete(c.entries, entry.key)
			c.order.Remove(elem)
			purged++
		}
		elem = prev
	}
	return purged
}

// Len returns the current number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
