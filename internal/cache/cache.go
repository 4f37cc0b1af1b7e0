// Package cache holds the resource list that front-ends render from.
//
// The cache has a single writer (the sync core) and any number of readers.
// Writes always replace the whole sequence; there is no incremental patching.
// Listeners are called synchronously after each committed replace, outside the
// lock, so a listener may read the cache without deadlocking.
package cache

import (
	"slices"
	"sync"

	"github.com/roach88/rconsole/internal/model"
)

// Snapshot is an immutable view of the cache at one point in time.
type Snapshot struct {
	Section model.Section
	Seq     int64
	Records []model.ResourceRecord
}

// Listener is called after every committed replace.
type Listener func(Snapshot)

// Cache is the reactive resource list.
type Cache struct {
	mu      sync.RWMutex
	section model.Section
	seq     int64
	records []model.ResourceRecord

	listenersMu sync.Mutex
	listeners   []subscription
	nextID      int
}

type subscription struct {
	id int
	fn Listener
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{records: []model.ResourceRecord{}}
}

// Replace atomically swaps the entire record sequence.
// The slice is copied so later mutation by the caller cannot leak in.
func (c *Cache) Replace(section model.Section, seq int64, records []model.ResourceRecord) {
	cp := make([]model.ResourceRecord, len(records))
	copy(cp, records)

	c.mu.Lock()
	c.section = section
	c.seq = seq
	c.records = cp
	c.mu.Unlock()

	c.publish(Snapshot{Section: section, Seq: seq, Records: cp})
}

// Read returns a copy of the current records.
func (c *Cache) Read() []model.ResourceRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := make([]model.ResourceRecord, len(c.records))
	copy(cp, c.records)
	return cp
}

// Snapshot returns the current records together with their section and seq.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := make([]model.ResourceRecord, len(c.records))
	copy(cp, c.records)
	return Snapshot{Section: c.section, Seq: c.seq, Records: cp}
}

// Len returns the number of records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Subscribe registers fn and returns a function that removes it.
func (c *Cache) Subscribe(fn Listener) (cancel func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, subscription{id: id, fn: fn})
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		for i, sub := range c.listeners {
			if sub.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Cache) publish(s Snapshot) {
	c.listenersMu.Lock()
	subs := make([]subscription, len(c.listeners))
	copy(subs, c.listeners)
	c.listenersMu.Unlock()

	// Each listener gets its own records slice; the cache's copy is never shared.
	for _, sub := range subs {
		sub.fn(Snapshot{Section: s.Section, Seq: s.Seq, Records: slices.Clone(s.Records)})
	}
}
