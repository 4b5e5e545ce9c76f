package viewer

import (
	"container/list"
	"sync"
	"time"

	"github.com/lueurxax/linking-dashboard/internal/core/results"
)

// State is the load state of a cache entry.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}

	return "unknown"
}

// ExperimentData is everything needed to render articles of one experiment.
type ExperimentData struct {
	Experiment results.Experiment
	Articles   []results.Article
	Cases      [][]results.Case
	// Linked holds raw linker output by article id.
	Linked map[string]*results.LinkedArticle
	// LoadedAt is when reading the files started.
	LoadedAt time.Time
}

// Entry is a cache slot.
type Entry struct {
	State State
	Data  *ExperimentData
	Err   error
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

type cacheEntry struct {
	key   string
	entry Entry
	// gen identifies the load that owns a loading entry.
	gen uint64
}

// Cache is a bounded LRU of experiment data. Entries pinned by a selected
// experiment and entries still loading are never evicted; the cache may
// temporarily exceed its size when nothing else can go.
type Cache struct {
	mu        sync.Mutex
	maxSize   int
	entries   map[string]*list.Element
	evictList *list.List
	pins      map[string]int
	stats     CacheStats
	gen       uint64
}

// NewCache creates a cache holding at most maxSize experiments (0 = unlimited).
func NewCache(maxSize int) *Cache {
	if maxSize < 0 {
		maxSize = 0
	}

	return &Cache{
		maxSize:   maxSize,
		entries:   make(map[string]*list.Element),
		evictList: list.New(),
		pins:      make(map[string]int),
	}
}

// Get returns the entry for key and marks it as most recently used.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		cacheLookups.WithLabelValues(ResultMiss).Inc()

		return Entry{}, false
	}

	c.evictList.MoveToFront(el)
	c.stats.Hits++
	cacheLookups.WithLabelValues(ResultHit).Inc()

	return el.Value.(*cacheEntry).entry, true
}

// Ready returns the data of every ready entry without touching recency.
func (c *Cache) Ready() []*ExperimentData {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*ExperimentData

	for el := c.evictList.Front(); el != nil; el = el.Next() {
		if e := el.Value.(*cacheEntry).entry; e.State == StateReady && e.Data != nil {
			out = append(out, e.Data)
		}
	}

	return out
}

// Reserve inserts a loading entry for key unless one exists. It reports
// whether the caller now owns the load and returns the load generation to
// pass to Resolve.
func (c *Cache) Reserve(key string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(el)

		return 0, false
	}

	c.gen++
	c.put(key, Entry{State: StateLoading})
	c.entries[key].Value.(*cacheEntry).gen = c.gen

	return c.gen, true
}

// Resolve completes the load gen of key with data or err. It is a no-op and
// returns false when the entry was removed or reserved again since.
func (c *Cache) Resolve(key string, gen uint64, data *ExperimentData, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}

	ce := el.Value.(*cacheEntry)
	if ce.entry.State != StateLoading || ce.gen != gen {
		return false
	}

	ce.entry = Entry{State: StateReady, Data: data}
	if err != nil {
		ce.entry = Entry{State: StateFailed, Err: err}
	}

	c.evictList.MoveToFront(el)
	c.evictExcess()

	return true
}

// Set stores loaded data for key.
func (c *Cache) Set(key string, data *ExperimentData) {
	c.store(key, Entry{State: StateReady, Data: data})
}

// Fail records a failed load for key.
func (c *Cache) Fail(key string, err error) {
	c.store(key, Entry{State: StateFailed, Err: err})
}

func (c *Cache) store(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).entry = e
		c.evictList.MoveToFront(el)
		c.evictExcess()

		return
	}

	c.put(key, e)
}

func (c *Cache) put(key string, e Entry) {
	el := c.evictList.PushFront(&cacheEntry{key: key, entry: e})
	c.entries[key] = el
	c.evictExcess()
	cacheEntries.Set(float64(c.evictList.Len()))
}

// evictExcess drops least recently used entries that are neither pinned nor
// loading until the cache fits.
func (c *Cache) evictExcess() {
	if c.maxSize == 0 {
		return
	}

	for el := c.evictList.Back(); el != nil && c.evictList.Len() > c.maxSize; {
		prev := el.Prev()
		ce := el.Value.(*cacheEntry)

		if c.pins[ce.key] == 0 && ce.entry.State != StateLoading {
			c.removeElement(el)
			c.stats.Evictions++
			cacheEvictions.Inc()
		}

		el = prev
	}
}

// Remove drops key from the cache.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.removeElement(el)
	}
}

func (c *Cache) removeElement(el *list.Element) {
	c.evictList.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
	cacheEntries.Set(float64(c.evictList.Len()))
}

// Pin protects keys from eviction. Pins are counted, every Pin needs an Unpin.
func (c *Cache) Pin(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		c.pins[k]++
	}
}

// Unpin releases keys pinned earlier and evicts entries that no longer fit.
func (c *Cache) Unpin(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		if c.pins[k] <= 1 {
			delete(c.pins, k)

			continue
		}

		c.pins[k]--
	}

	c.evictExcess()
}

// Len returns the number of entries in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.maxSize

	return s
}
