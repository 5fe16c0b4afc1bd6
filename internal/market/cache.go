package market

import (
	"container/list"
	"sync"
	"time"
)

const (
	defaultCacheTTL  = time.Minute
	defaultCacheSize = 32
)

// cacheEntry is one cached value.
type cacheEntry[V any] struct {
	expiry time.Time
	value  V
	key    string
}

// ttlCache is a size-bounded LRU with a TTL. Values are cloned on the way in
// and out so callers never share backing arrays with the cache.
type ttlCache[V any] struct {
	items   map[string]*list.Element
	order   *list.List
	now     func() time.Time
	ttl     time.Duration
	clone   func(V) V
	maxSize int
	mu      sync.Mutex
}

// newCache creates a cache. A zero ttl or size selects the default.
func newCache[V any](ttl time.Duration, maxSize int, clone func(V) V) *ttlCache[V] {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	return &ttlCache[V]{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
		clone:   clone,
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// get returns a copy of the cached value if present and not expired.
func (c *ttlCache[V]) get(key string) (V, bool) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}

	entry := elem.Value.(*cacheEntry[V])
	if c.now().After(entry.expiry) {
		c.removeElement(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return c.clone(entry.value), true
}

// set stores a copy of value, evicting the least recently used entry when full.
func (c *ttlCache[V]) set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry[V]{
		key:    key,
		value:  c.clone(value),
		expiry: c.now().Add(c.ttl),
	}

	if elem, ok := c.items[key]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(entry)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// clear removes all entries.
func (c *ttlCache[V]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// size returns the number of entries, expired ones included.
func (c *ttlCache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *ttlCache[V]) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry[V])
	delete(c.items, entry.key)
	c.order.Remove(elem)
}

func cloneSlice[T any](s []T) []T {
	return append([]T(nil), s...)
}
