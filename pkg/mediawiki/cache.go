package mediawiki

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
)

// DefaultCacheEntries is the default maximum number of cached articles.
const DefaultCacheEntries = 64

// DefaultCacheTTL is how long a cached revision set stays fresh by default.
const DefaultCacheTTL = 10 * time.Minute

// ResponseCache is an in-memory LRU cache of decoded revision sets keyed by
// normalized title. Entries expire after a fixed TTL and the least recently
// used entry is evicted once the entry cap is reached.
type ResponseCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	head       *cacheEntry // Most recently used.
	tail       *cacheEntry // Least recently used.
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	key     string
	set     revision.ArticleRevisionSet
	expires time.Time
	prev    *cacheEntry
	next    *cacheEntry
}

// NewResponseCache creates a cache holding at most maxEntries sets for ttl.
// Non-positive arguments select the defaults.
func NewResponseCache(maxEntries int, ttl time.Duration) *ResponseCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}

	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &ResponseCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *ResponseCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
}

// Get returns the cached set for key. Expired entries count as misses and
// are dropped.
func (c *ResponseCache) Get(key string) (revision.ArticleRevisionSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)

		return revision.ArticleRevisionSet{}, false
	}

	if !c.now().Before(entry.expires) {
		c.remove(entry)
		c.misses.Add(1)

		return revision.ArticleRevisionSet{}, false
	}

	c.hits.Add(1)
	c.moveToFront(entry)

	return cloneSet(entry.set), true
}

// Put stores set under key, replacing any previous entry.
func (c *ResponseCache) Put(key string, set revision.ArticleRevisionSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)

	if entry, ok := c.entries[key]; ok {
		entry.set = cloneSet(set)
		entry.expires = expires
		c.moveToFront(entry)

		return
	}

	for len(c.entries) >= c.maxEntries && c.tail != nil {
		c.remove(c.tail)
	}

	entry := &cacheEntry{key: key, set: cloneSet(set), expires: expires}
	c.entries[key] = entry
	c.addToFront(entry)
}

// Clear removes all entries. Counters are kept.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.head = nil
	c.tail = nil
}

// CacheStats holds cache performance counters.
type CacheStats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Entries    int   `json:"entries"`
	MaxEntries int   `json:"max_entries"`
}

// HitRate returns the cache hit rate (0.0 to 1.0).
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}

	return float64(s.Hits) / float64(total)
}

// Stats returns a snapshot of the counters.
func (c *ResponseCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Entries:    len(c.entries),
		MaxEntries: c.maxEntries,
	}
}

func (c *ResponseCache) remove(entry *cacheEntry) {
	c.unlink(entry)
	delete(c.entries, entry.key)
}

func (c *ResponseCache) moveToFront(entry *cacheEntry) {
	if entry == c.head {
		return
	}

	c.unlink(entry)
	c.addToFront(entry)
}

func (c *ResponseCache) addToFront(entry *cacheEntry) {
	entry.prev = nil
	entry.next = c.head

	if c.head != nil {
		c.head.prev = entry
	}

	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

func (c *ResponseCache) unlink(entry *cacheEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}

	entry.prev = nil
	entry.next = nil
}

// cloneSet detaches the revision slice so callers cannot alias cached data.
func cloneSet(set revision.ArticleRevisionSet) revision.ArticleRevisionSet {
	set.Revisions = slices.Clone(set.Revisions)
	if set.Revisions == nil {
		set.Revisions = []revision.Record{}
	}

	return set
}
