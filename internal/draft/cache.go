// ABOUTME: Thread-safe TTL cache holding one Draft per admin and plugin.
// ABOUTME: Idle drafts expire and the least recently used draft is evicted at capacity.

package draft

import (
	"container/list"
	"log/slog"
	"sync"
	"time"
)

// cacheEntry stores the last access time and list element for a cached draft.
type cacheEntry struct {
	draft     *Draft
	timestamp time.Time
	element   *list.Element
}

// Cache provides a thread-safe, TTL-based, size-limited store of drafts.
// Uses a doubly-linked list ordered by last access for O(1) eviction.
type Cache struct {
	mu      sync.Mutex
	drafts  map[string]*cacheEntry
	order   *list.List // keys by last access (oldest at front)
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	logger  *slog.Logger
	done    chan struct{}
	closed  bool
}

// NewCache creates a draft cache with the specified TTL and maximum size.
// A background goroutine periodically removes expired drafts.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	c := newCache(ttl, maxSize, time.Now)
	go c.cleanup()
	return c
}

func newCache(ttl time.Duration, maxSize int, now func() time.Time) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		drafts:  make(map[string]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
		logger:  slog.Default().With("component", "drafts"),
		done:    make(chan struct{}),
	}
}

// Key returns the cache key of a subject's draft for a plugin.
func Key(subject, pluginID string) string {
	return subject + "/" + pluginID
}

// Get returns the live draft for subject and plugin, refreshing its TTL.
func (c *Cache) Get(subject, pluginID string) (*Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(subject, pluginID)
	entry, ok := c.drafts[key]
	if !ok {
		return nil, false
	}
	if c.expiredLocked(entry) {
		c.removeLocked(key, entry)
		return nil, false
	}
	c.touchLocked(entry)
	return entry.draft, true
}

// GetOrCreate returns the live draft for subject and plugin, creating it
// with create when missing or expired. created reports which happened.
func (c *Cache) GetOrCreate(subject, pluginID string, create func() *Draft) (d *Draft, created bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(subject, pluginID)
	if entry, ok := c.drafts[key]; ok {
		if !c.expiredLocked(entry) {
			c.touchLocked(entry)
			return entry.draft, false
		}
		c.removeLocked(key, entry)
	}

	// Evict oldest if at capacity
	if len(c.drafts) >= c.maxSize {
		c.evictOldest()
	}

	d = create()
	elem := c.order.PushBack(key)
	c.drafts[key] = &cacheEntry{
		draft:     d,
		timestamp: c.now(),
		element:   elem,
	}
	return d, true
}

// Remove drops the draft for subject and plugin, if any.
func (c *Cache) Remove(subject, pluginID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(subject, pluginID)
	if entry, ok := c.drafts[key]; ok {
		c.removeLocked(key, entry)
	}
}

// Len returns the number of cached drafts, expired ones included until the
// next sweep.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.drafts)
}

func (c *Cache) expiredLocked(entry *cacheEntry) bool {
	return c.now().Sub(entry.timestamp) >= c.ttl
}

func (c *Cache) touchLocked(entry *cacheEntry) {
	entry.timestamp = c.now()
	c.order.MoveToBack(entry.element)
}

func (c *Cache) removeLocked(key string, entry *cacheEntry) {
	c.order.Remove(entry.element)
	delete(c.drafts, key)
}

// evictOldest removes the least recently used draft.
// Must be called with mu held. O(1) operation using linked list.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	key, _ := front.Value.(string)
	if entry, ok := c.drafts[key]; ok && entry.draft.SaveNeeded() {
		c.logger.Warn("evicting draft with unsaved changes", "draft", key)
	}
	c.order.Remove(front)
	delete(c.drafts, key)
}

// cleanup runs in a background goroutine, periodically removing expired drafts.
func (c *Cache) cleanup() {
	interval := time.Minute
	if c.ttl > 0 && c.ttl < interval {
		interval = c.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all expired drafts from the cache.
func (c *Cache) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.drafts {
		if c.expiredLocked(entry) {
			c.removeLocked(key, entry)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("expired drafts removed", "count", removed)
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
