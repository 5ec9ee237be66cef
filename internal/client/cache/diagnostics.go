package cache

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/strongholdapp/docsync/internal/logging"
)

// SlowQuery describes a single read that exceeded the configured threshold.
type SlowQuery struct {
	Key      string
	Duration time.Duration
	Rows     int
	Stack    []byte
	At       time.Time
}

// DiagnosticsSink receives slow-query records. Fire-and-forget: a sink must
// not block, and a panicking sink never fails the read that triggered it.
type DiagnosticsSink interface {
	ReportSlowQuery(SlowQuery)
}

// logSink is the default sink; it writes slow queries to the cache logger.
type logSink struct {
	log logging.Logger
}

func (s *logSink) ReportSlowQuery(q SlowQuery) {
	s.log.Warn(context.Background(), "slow query",
		"key", q.Key, "duration", q.Duration.String(), "rows", q.Rows)
}

func (c *Cache[V]) reportSlow(key string, elapsed time.Duration, rows int) {
	rec := SlowQuery{
		Key:      key,
		Duration: elapsed,
		Rows:     rows,
		Stack:    debug.Stack(),
		At:       c.now(),
	}
	defer func() { _ = recover() }()
	c.diag.ReportSlowQuery(rec)
}
