// Package cache provides a generic read-through cache for remote queries
// with TTL, bounded size and a selectable eviction strategy, plus latency
// telemetry and a rule-based performance report. Concurrent misses for the
// same key are collapsed into a single loader call.
package cache

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/strongholdapp/docsync/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Strategy selects which entry is discarded when the cache is full.
type Strategy string

const (
	StrategyLRU  Strategy = "lru"  // oldest lastAccess
	StrategyFIFO Strategy = "fifo" // oldest insertion
	StrategyLFU  Strategy = "lfu"  // fewest hits
)

const (
	defaultTTL                = 5 * time.Minute
	defaultMaxSize            = 100
	defaultSlowQueryThreshold = time.Second
)

// Config tunes a cache instance. Zero values fall back to defaults.
type Config struct {
	TTL                time.Duration
	MaxSize            int
	Strategy           Strategy
	SlowQueryThreshold time.Duration
	Diagnostics        DiagnosticsSink // default logs through the cache logger
}

// Loader performs the actual remote read on a cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

// Clock lets tests control time.
type Clock func() time.Time

type entry[V any] struct {
	value      V
	expiry     time.Time
	hits       int64
	lastAccess time.Time
	seq        int64 // insertion order, used for deterministic tie-breaks
}

// Cache is a bounded read-through cache. Safe for concurrent use.
type Cache[V any] struct {
	cfg  Config
	log  logging.Logger
	now  Clock
	diag DiagnosticsSink

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry[V]
	seq     int64
	metrics map[string]*keyMetrics
	hits    int64
	misses  int64
}

// New builds a cache. now may be nil (wall clock).
func New[V any](cfg Config, log logging.Logger, now Clock) *Cache[V] {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMaxSize
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyLRU
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryThreshold
	}
	if now == nil {
		now = time.Now
	}
	c := &Cache[V]{
		cfg:     cfg,
		log:     log,
		now:     now,
		entries: map[string]*entry[V]{},
		metrics: map[string]*keyMetrics{},
	}
	c.diag = cfg.Diagnostics
	if c.diag == nil {
		c.diag = &logSink{log: log}
	}
	return c
}

type getOptions struct {
	forceRefresh bool
}

// GetOption modifies a single Get call.
type GetOption func(*getOptions)

// ForceRefresh bypasses the cached value but still repopulates the cache.
func ForceRefresh() GetOption {
	return func(o *getOptions) { o.forceRefresh = true }
}

// Get returns the cached value for key, or invokes loader and caches the
// result. A loader failure is returned as-is and nothing is cached.
// Concurrent misses for the same key share one loader invocation.
func (c *Cache[V]) Get(ctx context.Context, key string, loader Loader[V], opts ...GetOption) (V, error) {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !o.forceRefresh {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.load(ctx, key, loader)
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// lookup records a hit and returns the value if present and fresh.
func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiry) {
		var zero V
		return zero, false
	}
	e.hits++
	e.lastAccess = c.now()
	c.hits++
	c.metricsFor(key).hits++
	return e.value, true
}

func (c *Cache[V]) load(ctx context.Context, key string, loader Loader[V]) (V, error) {
	start := c.now()
	v, err := loader(ctx)
	elapsed := c.now().Sub(start)

	c.mu.Lock()
	c.misses++
	m := c.metricsFor(key)
	m.misses++
	c.mu.Unlock()

	if err != nil {
		var zero V
		return zero, fmt.Errorf("loader failed for %q: %w", key, err)
	}

	rows := rowCount(v)

	c.mu.Lock()
	m.loads++
	m.totalLoad += elapsed
	m.totalRows += int64(rows)
	slow := elapsed > c.cfg.SlowQueryThreshold
	if slow {
		m.slow++
	}
	c.store(key, v)
	c.mu.Unlock()

	if slow {
		c.reportSlow(key, elapsed, rows)
	}
	return v, nil
}

// store inserts under the lock, evicting one entry first if at capacity.
func (c *Cache[V]) store(key string, v V) {
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.cfg.MaxSize {
		c.evict()
	}
	c.seq++
	now := c.now()
	c.entries[key] = &entry[V]{
		value:      v,
		expiry:     now.Add(c.cfg.TTL),
		lastAccess: now,
		seq:        c.seq,
	}
}

// evict removes one entry according to the configured strategy. Ties are
// broken by insertion order so eviction is deterministic.
func (c *Cache[V]) evict() {
	var victimKey string
	var victim *entry[V]

	better := func(cand, cur *entry[V]) bool {
		if cur == nil {
			return true
		}
		switch c.cfg.Strategy {
		case StrategyFIFO:
			return cand.seq < cur.seq
		case StrategyLFU:
			if cand.hits != cur.hits {
				return cand.hits < cur.hits
			}
			return cand.seq < cur.seq
		default: // lru
			if !cand.lastAccess.Equal(cur.lastAccess) {
				return cand.lastAccess.Before(cur.lastAccess)
			}
			return cand.seq < cur.seq
		}
	}

	for k, e := range c.entries {
		if better(e, victim) {
			victimKey, victim = k, e
		}
	}
	if victim != nil {
		delete(c.entries, victimKey)
	}
}

// Invalidate drops a single key.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every cached entry. Accumulated metrics are kept so the
// performance report survives a flush.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*entry[V]{}
}

// Len reports the number of cached entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// metricsFor must be called under c.mu.
func (c *Cache[V]) metricsFor(key string) *keyMetrics {
	m, ok := c.metrics[key]
	if !ok {
		m = &keyMetrics{}
		c.metrics[key] = m
	}
	return m
}

// rowCount approximates the result size for telemetry.
func rowCount(v any) int {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	case reflect.Invalid:
		return 0
	}
	return 1
}
