package report

import (
	"container/list"
	"sync"
	"time"

	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
)

// DefaultCacheSize bounds the number of memoized reports.
const DefaultCacheSize = 64

// cacheKey identifies a report. Snapshots are immutable, so the pointer is a
// sufficient identity for the data.
type cacheKey struct {
	snapshot    *ledger.Snapshot
	start       time.Time
	end         time.Time
	granularity model.Granularity
	topN        int
}

type cacheItem struct {
	report *Report
	key    cacheKey
}

// Reporter memoizes reports per (snapshot, filters) with LRU eviction.
type Reporter struct {
	items   map[cacheKey]*list.Element
	lru     *list.List
	maxSize int
	topN    int
	hits    int
	misses  int
	mu      sync.Mutex
}

// NewReporter creates a reporter caching up to size reports. Summaries list
// topN categories.
func NewReporter(size, topN int) *Reporter {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if topN <= 0 {
		topN = DefaultTopCategories
	}
	return &Reporter{
		items:   make(map[cacheKey]*list.Element),
		lru:     list.New(),
		maxSize: size,
		topN:    topN,
	}
}

// Report returns the report of s for f, building it on first use.
func (r *Reporter) Report(s *ledger.Snapshot, f model.ReportFilters) *Report {
	f = f.Normalized()
	key := cacheKey{
		snapshot:    s,
		start:       startOfDay(f.StartDate),
		end:         startOfDay(f.EndDate),
		granularity: f.Granularity,
		topN:        r.topN,
	}

	r.mu.Lock()
	if elem, ok := r.items[key]; ok {
		r.lru.MoveToFront(elem)
		r.hits++
		rep := elem.Value.(*cacheItem).report
		r.mu.Unlock()
		return rep
	}
	r.misses++
	r.mu.Unlock()

	rep := Build(s, f, r.topN)

	r.mu.Lock()
	defer r.mu.Unlock()
	if elem, ok := r.items[key]; ok {
		r.lru.MoveToFront(elem)
		return elem.Value.(*cacheItem).report
	}
	r.items[key] = r.lru.PushFront(&cacheItem{key: key, report: rep})
	if r.lru.Len() > r.maxSize {
		oldest := r.lru.Back()
		r.lru.Remove(oldest)
		delete(r.items, oldest.Value.(*cacheItem).key)
	}
	return rep
}

// Stats returns cache hits and misses.
func (r *Reporter) Stats() (hits, misses int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits, r.misses
}

// Size returns the number of cached reports.
func (r *Reporter) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
