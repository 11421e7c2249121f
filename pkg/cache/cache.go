package cache

import (
	"container/list"
	"sync"
	"time"
)

// Entry is a single cached validation result.
type Entry struct {
	// Key is the structural cache key (see Key).
	Key string

	// Result is the cached outcome: a *validation.Result for validators
	// or a *validation.RuleResult for rules. The cache never inspects it.
	Result any

	// CreatedAt is when the entry was inserted.
	CreatedAt time.Time

	// ExpiresAt is when the entry stops being served.
	ExpiresAt time.Time

	// HitCount counts how often the entry was served.
	HitCount int64
}

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// HitRate returns hits / (hits + misses), or zero before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Config configures a Cache.
type Config struct {
	// TTL is how long entries are served after insertion.
	// Default: 5 minutes.
	TTL time.Duration

	// MaxEntries bounds the table size; the least-recently-used entry is
	// evicted when an insertion would exceed it.
	// Default: 1000.
	MaxEntries int
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		TTL:        5 * time.Minute,
		MaxEntries: 1000,
	}
}

// Cache is a TTL and size bounded result cache with LRU eviction.
//
// Cache is safe for concurrent use. The clock is injectable so TTL
// behavior can be tested deterministically.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front = most recently used

	ttl        time.Duration
	maxEntries int

	hits      int64
	misses    int64
	evictions int64

	now func() time.Time
}

// New creates a cache with the given configuration. Zero fields take the
// defaults from DefaultConfig.
func New(cfg Config) *Cache {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	return &Cache{
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached result for key if present and not expired.
// An expired entry is evicted and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	entry := elem.Value.(*Entry)
	if !c.now().Before(entry.ExpiresAt) {
		c.removeLocked(elem)
		c.evictions++
		c.misses++
		return nil, false
	}

	entry.HitCount++
	c.hits++
	c.lru.MoveToFront(elem)
	return entry.Result, true
}

// Set inserts a result under key, replacing any existing entry. When the
// table would exceed its size bound, the least-recently-used entry is
// evicted first.
func (c *Cache) Set(key string, result any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		// Replacement is not an eviction.
		c.removeLocked(elem)
	}

	for len(c.entries) >= c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
		c.evictions++
	}

	now := c.now()
	entry := &Entry{
		Key:       key,
		Result:    result,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.entries[key] = c.lru.PushFront(entry)
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if !now.Before(elem.Value.(*Entry).ExpiresAt) {
			c.removeLocked(elem)
			c.evictions++
			removed++
		}
		elem = prev
	}
	return removed
}

// Clear drops every entry. Counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.entries),
	}
}

func (c *Cache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*Entry)
	delete(c.entries, entry.Key)
	c.lru.Remove(elem)
}
