package cache

import (
	"sync"
	"time"

	"study/internal/clock"
	"study/internal/remote"
)

// Key identifies one cached aggregate: which window, anchored at which local
// date boundary, for which user.
type Key struct {
	Window clock.Window
	Date   clock.Date
	User   string
}

type entry struct {
	aggregate remote.Aggregate
	fetchedAt time.Time
}

// Cache holds statistics aggregates between reads. Entries live until a
// write for the same user invalidates them; there is no TTL and no eviction.
type Cache struct {
	mu       sync.Mutex
	resolver *clock.Resolver
	entries  map[Key]entry
}

// New creates an empty cache. The resolver must be the same instance the
// read path uses, otherwise invalidation computes different keys than reads.
func New(resolver *clock.Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		entries:  make(map[Key]entry),
	}
}

// Get returns the cached aggregate for the key, if present.
func (c *Cache) Get(w clock.Window, d clock.Date, user string) (remote.Aggregate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[Key{Window: w, Date: d, User: user}]
	return e.aggregate, ok
}

// Put stores or overwrites the aggregate for the key.
func (c *Cache) Put(w clock.Window, d clock.Date, user string, agg remote.Aggregate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key{Window: w, Date: d, User: user}] = entry{
		aggregate: agg,
		fetchedAt: time.Now(),
	}
}

// Invalidate evicts the daily, weekly and monthly entries for the user at
// the boundaries the resolver reports right now. The boundaries come from
// the same resolver the read path uses; computing them any other way here
// would evict keys nobody reads and leave the live ones serving stale data.
func (c *Cache) Invalidate(user string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range clock.Windows {
		delete(c.entries, Key{Window: w, Date: c.resolver.Boundary(w), User: user})
	}
}
