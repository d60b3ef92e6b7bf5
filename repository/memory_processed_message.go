package repository

import (
	"container/list"
	"sync"
	"time"
)

const (
	DefaultMemoryCapacity = 10000
	DefaultMemoryTTL      = 24 * time.Hour
)

type memoryEntry struct {
	id       string
	expireAt time.Time
}

// MemoryProcessedMessageCache is a bounded LRU of message ids with per-entry TTL.
// When full the least recently touched id is evicted.
type MemoryProcessedMessageCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	items    map[string]*list.Element
	now      func() time.Time
}

func NewMemoryProcessedMessageCache(capacity int, ttl time.Duration) *MemoryProcessedMessageCache {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	return &MemoryProcessedMessageCache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
		now:      time.Now,
	}
}

// Contains reports a live entry. Expired entries are purged on the way.
func (c *MemoryProcessedMessageCache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[id]
	if !ok {
		return false
	}
	if c.now().After(el.Value.(*memoryEntry).expireAt) {
		c.removeElement(el)
		return false
	}
	c.order.MoveToFront(el)
	return true
}

// AddIfAbsent stores id and reports whether it was already present (and live).
func (c *MemoryProcessedMessageCache) AddIfAbsent(id string) (existed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.items[id]; ok {
		entry := el.Value.(*memoryEntry)
		live := !now.After(entry.expireAt)
		entry.expireAt = now.Add(c.ttl)
		c.order.MoveToFront(el)
		return live
	}

	el := c.order.PushFront(&memoryEntry{id: id, expireAt: now.Add(c.ttl)})
	c.items[id] = el
	for c.order.Len() > c.capacity {
		c.removeElement(c.order.Back())
	}
	return false
}

// Sweep drops every expired entry and returns how many were removed.
func (c *MemoryProcessedMessageCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*memoryEntry).expireAt) {
			c.removeElement(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *MemoryProcessedMessageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *MemoryProcessedMessageCache) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*memoryEntry).id)
}
