package storage

import "sync"

// RecordCache is a bounded LRU cache of resolved latest post-images, keyed
// by a base record's RID. Table.SelectLatest consults it before walking a
// base's indirection chain, and invalidates the entry whenever that base
// is updated; this keeps repeated point lookups O(1) instead of O(chain
// length) without weakening any durability or versioning guarantee, since
// the cache never serves select_version (which must walk the real chain)
// and is never itself persisted — it is purely rebuilt on demand after a
// Database.Open.
//
// Recency is tracked with a monotonic tick stamped on every Get/Put rather
// than a doubly-linked MRU/LRU list: a RID's cells already live at a fixed
// slot in its PageRange, so there is no pointer-chasing structure elsewhere
// in the table that this cache needs to mirror. Eviction scans for the
// minimum tick, trading O(1) eviction for a simpler, allocation-free
// entry shape — acceptable at the cache sizes a single table's working set
// needs.
type RecordCache struct {
	mu       sync.Mutex
	capacity int
	items    map[int64]*cacheEntry
	tick     uint64

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	values []int64
	tick   uint64
}

// NewRecordCache returns a cache holding up to capacity resolved records;
// capacity <= 0 defaults to 1024.
func NewRecordCache(capacity int) *RecordCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &RecordCache{
		capacity: capacity,
		items:    make(map[int64]*cacheEntry, capacity),
	}
}

// Get returns the cached post-image for rid, if present.
func (c *RecordCache) Get(rid int64) ([]int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[rid]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	entry.tick = c.nextTick()
	return entry.values, true
}

// Put inserts or refreshes rid's cached post-image.
func (c *RecordCache) Put(rid int64, values []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.items[rid]; ok {
		entry.values = values
		entry.tick = c.nextTick()
		return
	}
	c.items[rid] = &cacheEntry{values: values, tick: c.nextTick()}
	if len(c.items) > c.capacity {
		c.evictLRU()
	}
}

// Invalidate drops rid's cached entry, called whenever a base record
// gains a new tail.
func (c *RecordCache) Invalidate(rid int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, rid)
}

// Stats returns hit/miss counters plus current size and capacity.
func (c *RecordCache) Stats() (hits, misses uint64, size, capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.items), c.capacity
}

func (c *RecordCache) nextTick() uint64 {
	c.tick++
	return c.tick
}

func (c *RecordCache) evictLRU() {
	var victim int64
	var oldest uint64
	first := true
	for rid, entry := range c.items {
		if first || entry.tick < oldest {
			victim, oldest, first = rid, entry.tick, false
		}
	}
	if !first {
		delete(c.items, victim)
	}
}
