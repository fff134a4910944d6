// Package analysis memoizes parse and semantic analysis results per source
// unit.
//
// The cache keeps one table per generation. Invalidate replaces the whole
// table, so a result computed before an invalidation is never observable
// after it. Concurrent requests for the same unit share one computation.
package analysis

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/yaklabco/tethls/internal/logging"
	"github.com/yaklabco/tethls/pkg/source"
)

// ComputeFunc produces the entry of a unit. It runs at most once per unit
// and generation at a time; its context is not cancelled when the caller
// that started it gives up.
type ComputeFunc func(ctx context.Context, unit *source.Unit) (*Entry, error)

// ErrNilEntry is returned when a ComputeFunc returns neither an entry nor an error.
var ErrNilEntry = errors.New("compute returned no entry")

// Cache memoizes analysis entries by unit identity. It is safe for
// concurrent use.
type Cache struct {
	current    atomic.Pointer[generation]
	nextGen    atomic.Uint64
	maxEntries int
	metrics    *metrics
	logger     *log.Logger

	hits, misses, computations, failures, invalidations, evictions, reaped atomic.Int64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits          int64  `json:"hits"`
	Misses        int64  `json:"misses"`
	Computations  int64  `json:"computations"`
	Failures      int64  `json:"failures"`
	Invalidations int64  `json:"invalidations"`
	Evictions     int64  `json:"evictions"`
	Reaped        int64  `json:"reaped"`
	Entries       int    `json:"entries"`
	Generation    uint64 `json:"generation"`
}

// generation is one table of entries together with its in-flight work.
type generation struct {
	id     uint64
	table  sync.Map // source.ID -> *record
	flight singleflight.Group

	// lru orders records by use when a bound is set.
	mu  sync.Mutex
	lru *list.List
}

type record struct {
	entry *Entry
	elem  *list.Element

	// cleanup reaps the record when its unit is collected. It is stopped
	// when the record leaves the table another way.
	cleanup runtime.Cleanup
}

// cleanupArg is handed to the unit's cleanup. It must not reference the
// unit, and it holds the generation and record weakly so that a pending
// cleanup never keeps an invalidated table alive.
type cleanupArg struct {
	gen weak.Pointer[generation]
	rec weak.Pointer[record]
	id  source.ID
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	c.current.Store(c.newGeneration())
	return c
}

func (c *Cache) newGeneration() *generation {
	return &generation{id: c.nextGen.Add(1), lru: list.New()}
}

// Resolve returns the entry of unit, running compute if no entry is cached
// in the current generation. Concurrent callers for the same unit share the
// computation and observe the same entry.
//
// A caller whose context is done returns ctx.Err() at once; the computation
// continues for the remaining callers. Failed computations are not cached.
func (c *Cache) Resolve(ctx context.Context, unit *source.Unit, compute ComputeFunc) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := unit.ID()
	gen := c.current.Load()

	if entry, ok := c.lookup(gen, id); ok {
		c.hits.Add(1)
		c.metrics.hits.Inc()
		return entry, nil
	}
	c.misses.Add(1)
	c.metrics.misses.Inc()

	ch := gen.flight.DoChan(string(id), func() (any, error) {
		// A flight for the same key may have finished between the lookup
		// and this call.
		if entry, ok := c.lookup(gen, id); ok {
			return entry, nil
		}
		return c.compute(context.WithoutCancel(ctx), gen, unit, compute)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		entry, _ := res.Val.(*Entry)
		return entry, nil
	}
}

func (c *Cache) compute(ctx context.Context, gen *generation, unit *source.Unit, compute ComputeFunc) (*Entry, error) {
	c.computations.Add(1)
	c.metrics.computations.Inc()

	entry, err := compute(ctx, unit)
	if err == nil && entry == nil {
		err = ErrNilEntry
	}
	if err != nil {
		c.failures.Add(1)
		c.metrics.failures.Inc()
		if c.logger != nil {
			c.logger.Warn("analysis failed", logging.FieldPath, unit.ID(), logging.FieldError, err)
		}
		return nil, fmt.Errorf("resolve %s: %w", unit.ID(), err)
	}

	entry.Generation = gen.id
	c.store(gen, unit, entry)
	return entry, nil
}

// GetIfPresent returns the cached entry of id in the current generation
// without computing anything.
func (c *Cache) GetIfPresent(id source.ID) (*Entry, bool) {
	return c.lookup(c.current.Load(), id)
}

// Invalidate drops every cached entry. The id of the mutated unit is
// recorded for logging; any entry may depend on it through imports.
func (c *Cache) Invalidate(id source.ID) {
	old := c.current.Swap(c.newGeneration())
	old.table.Range(func(_, v any) bool {
		v.(*record).cleanup.Stop()
		return true
	})
	c.invalidations.Add(1)
	c.metrics.invalidations.Inc()
	if c.logger != nil {
		c.logger.Debug("analysis cache invalidated", logging.FieldPath, id, logging.FieldGeneration, old.id)
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	gen := c.current.Load()
	entries := 0
	gen.table.Range(func(_, _ any) bool {
		entries++
		return true
	})

	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Computations:  c.computations.Load(),
		Failures:      c.failures.Load(),
		Invalidations: c.invalidations.Load(),
		Evictions:     c.evictions.Load(),
		Reaped:        c.reaped.Load(),
		Entries:       entries,
		Generation:    gen.id,
	}
}

func (c *Cache) lookup(gen *generation, id source.ID) (*Entry, bool) {
	v, ok := gen.table.Load(id)
	if !ok {
		return nil, false
	}
	rec := v.(*record)
	if c.maxEntries > 0 {
		gen.mu.Lock()
		if rec.elem != nil {
			gen.lru.MoveToFront(rec.elem)
		}
		gen.mu.Unlock()
	}
	return rec.entry, true
}

func (c *Cache) store(gen *generation, unit *source.Unit, entry *Entry) {
	rec := &record{entry: entry}
	id := unit.ID()
	rec.cleanup = runtime.AddCleanup(unit, c.reap, cleanupArg{gen: weak.Make(gen), rec: weak.Make(rec), id: id})

	prev, loaded := gen.table.Swap(id, rec)
	if loaded {
		prev.(*record).cleanup.Stop()
	}
	if c.maxEntries > 0 {
		gen.mu.Lock()
		if loaded && prev.(*record).elem != nil {
			gen.lru.Remove(prev.(*record).elem)
			prev.(*record).elem = nil
		}
		rec.elem = gen.lru.PushFront(id)
		for gen.lru.Len() > c.maxEntries {
			oldest := gen.lru.Back()
			gen.lru.Remove(oldest)
			evicted := oldest.Value.(source.ID)
			if v, ok := gen.table.LoadAndDelete(evicted); ok {
				v.(*record).elem = nil
				v.(*record).cleanup.Stop()
				c.evictions.Add(1)
				c.metrics.evictions.Inc()
			}
		}
		gen.mu.Unlock()
	}
}

// reap drops the record of a unit that is no longer reachable. Records of
// collected generations are already gone.
func (c *Cache) reap(arg cleanupArg) {
	gen, rec := arg.gen.Value(), arg.rec.Value()
	if gen == nil || rec == nil {
		return
	}
	if !gen.table.CompareAndDelete(arg.id, rec) {
		return
	}
	gen.mu.Lock()
	if rec.elem != nil {
		gen.lru.Remove(rec.elem)
		rec.elem = nil
	}
	gen.mu.Unlock()

	c.reaped.Add(1)
	c.metrics.reaped.Inc()
}
