package rules

import (
	"container/list"
	"sync"

	"github.com/dlclark/regexp2"
)

// patternCache is a thread-safe LRU of compiled patterns
type patternCache struct {
	size      int
	evictList *list.List
	items     map[string]*list.Element
	mu        sync.Mutex
}

type cacheEntry struct {
	key string
	re  *regexp2.Regexp
}

func newPatternCache(size int) *patternCache {
	if size <= 0 {
		size = 1
	}
	return &patternCache{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}
}

// Get retrieves a compiled pattern and marks it most recently used
func (c *patternCache) Get(key string) (*regexp2.Regexp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, exists := c.items[key]
	if !exists {
		return nil, false
	}
	c.evictList.MoveToFront(node)
	return node.Value.(*cacheEntry).re, true
}

// Put adds or replaces a compiled pattern
func (c *patternCache) Put(key string, re *regexp2.Regexp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, exists := c.items[key]; exists {
		c.evictList.MoveToFront(node)
		node.Value.(*cacheEntry).re = re
		return
	}

	node := c.evictList.PushFront(&cacheEntry{key: key, re: re})
	c.items[key] = node

	if c.evictList.Len() > c.size {
		c.removeOldest()
	}
}

func (c *patternCache) removeOldest() {
	node := c.evictList.Back()
	if node != nil {
		c.evictList.Remove(node)
		delete(c.items, node.Value.(*cacheEntry).key)
	}
}

// Len returns the number of cached patterns
func (c *patternCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}
