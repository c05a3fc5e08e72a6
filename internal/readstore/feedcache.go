package readstore

import (
	"container/list"
	"sync"

	"github.com/timelinecore/microfeed/internal/core/ids"
)

// FeedCache is a thread-safe LRU cache of assembled feeds, keyed by
// viewer id. The projector invalidates a viewer's entry whenever a
// projection step could change what their feed would assemble to.
type FeedCache struct {
	mu       sync.RWMutex
	capacity int
	cache    map[ids.UserId]*list.Element
	order    *list.List
}

type feedCacheEntry struct {
	key   ids.UserId
	posts []Post
}

// NewFeedCache creates an empty cache holding up to capacity feeds.
func NewFeedCache(capacity int) *FeedCache {
	return &FeedCache{
		capacity: capacity,
		cache:    make(map[ids.UserId]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached feed for viewerId, or nil if absent.
func (c *FeedCache) Get(viewerId ids.UserId) ([]Post, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.cache[viewerId]
	if !exists {
		return nil, false
	}
	c.order.MoveToFront(elem)
	entry := elem.Value.(*feedCacheEntry)

	out := make([]Post, len(entry.posts))
	copy(out, entry.posts)
	return out, true
}

// Put stores the assembled feed for viewerId, evicting the least
// recently used entry if the cache is at capacity.
func (c *FeedCache) Put(viewerId ids.UserId, posts []Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]Post, len(posts))
	copy(stored, posts)

	if elem, exists := c.cache[viewerId]; exists {
		c.order.MoveToFront(elem)
		elem.Value.(*feedCacheEntry).posts = stored
		return
	}

	if c.capacity > 0 && c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			entry := oldest.Value.(*feedCacheEntry)
			delete(c.cache, entry.key)
			c.order.Remove(oldest)
		}
	}

	entry := &feedCacheEntry{key: viewerId, posts: stored}
	elem := c.order.PushFront(entry)
	c.cache[viewerId] = elem
}

// Invalidate drops viewerId's cached feed, if any.
func (c *FeedCache) Invalidate(viewerId ids.UserId) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.cache[viewerId]
	if !exists {
		return
	}
	delete(c.cache, viewerId)
	c.order.Remove(elem)
}

// InvalidateAll clears the entire cache. Used after a full replay.
func (c *FeedCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[ids.UserId]*list.Element)
	c.order = list.New()
}
