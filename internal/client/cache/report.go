package cache

import (
	"sort"
	"time"
)

const topKeyCount = 5

type keyMetrics struct {
	hits      int64
	misses    int64
	loads     int64
	slow      int64
	totalLoad time.Duration
	totalRows int64
}

// KeyStats is the per-key slice of the performance report.
type KeyStats struct {
	Key         string
	Hits        int64
	Misses      int64
	SlowQueries int64
	AvgLoadTime time.Duration
	AvgRows     float64
}

// Report summarizes cache effectiveness and remote-read latency, with
// heuristic suggestions. Suggestions are advisory, not authoritative.
type Report struct {
	Entries     int
	Hits        int64
	Misses      int64
	HitRate     float64
	SlowQueries int64
	AvgLoadTime time.Duration
	TopKeys     []KeyStats
	Suggestions []string
}

// minimum lookups before the hit-rate heuristics kick in
const reportMinLookups = 20

// Report computes the current performance report.
func (c *Cache[V]) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := Report{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}

	var loads, slow int64
	var totalLoad time.Duration
	var totalRows int64
	for key, m := range c.metrics {
		loads += m.loads
		slow += m.slow
		totalLoad += m.totalLoad
		totalRows += m.totalRows

		ks := KeyStats{Key: key, Hits: m.hits, Misses: m.misses, SlowQueries: m.slow}
		if m.loads > 0 {
			ks.AvgLoadTime = m.totalLoad / time.Duration(m.loads)
			ks.AvgRows = float64(m.totalRows) / float64(m.loads)
		}
		r.TopKeys = append(r.TopKeys, ks)
	}

	sort.Slice(r.TopKeys, func(i, j int) bool {
		if r.TopKeys[i].Hits != r.TopKeys[j].Hits {
			return r.TopKeys[i].Hits > r.TopKeys[j].Hits
		}
		return r.TopKeys[i].Key < r.TopKeys[j].Key
	})
	if len(r.TopKeys) > topKeyCount {
		r.TopKeys = r.TopKeys[:topKeyCount]
	}

	lookups := c.hits + c.misses
	if lookups > 0 {
		r.HitRate = float64(c.hits) / float64(lookups)
	}
	r.SlowQueries = slow
	if loads > 0 {
		r.AvgLoadTime = totalLoad / time.Duration(loads)
	}

	r.Suggestions = c.suggestions(r, loads, totalRows)
	return r
}

// suggestions applies simple rules to the aggregated numbers.
func (c *Cache[V]) suggestions(r Report, loads, totalRows int64) []string {
	var out []string

	if lookups := r.Hits + r.Misses; lookups >= reportMinLookups && r.HitRate < 0.5 {
		out = append(out, "cache hit rate is below 50%; consider a longer TTL or pre-warming hot queries")
	}
	if loads > 0 && float64(r.SlowQueries)/float64(loads) > 0.1 {
		out = append(out, "more than 10% of remote reads exceeded the slow-query threshold; review remote indexes")
	}
	if loads > 0 && float64(totalRows)/float64(loads) > 100 {
		out = append(out, "remote reads return large result sets on average; use cursor-based pagination")
	}
	if r.Entries >= c.cfg.MaxSize {
		out = append(out, "cache is at capacity and evicting; consider increasing max size")
	}
	return out
}
