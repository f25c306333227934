// Package monitoring counts classification outcomes and raises alerts when the
// service degrades.
package monitoring

import (
	"sync/atomic"
	"time"

	"github.com/sells-group/hts-classify/internal/reference"
)

// MetricsSnapshot holds a point-in-time view of service health.
type MetricsSnapshot struct {
	Classifications int64   `json:"classifications"`
	Matched         int64   `json:"matched"`
	Fallbacks       int64   `json:"fallbacks"`
	Rejections      int64   `json:"rejections"`
	Failures        int64   `json:"failures"`
	FallbackRate    float64 `json:"fallback_rate"`

	ReferenceSource string `json:"reference_source"`
	ReferenceRows   int    `json:"reference_rows"`
	ReferenceError  string `json:"reference_error,omitempty"`

	UptimeSecs  int64     `json:"uptime_secs"`
	CollectedAt time.Time `json:"collected_at"`
}

// StatusReporter reports reference table health. *reference.Loader satisfies it.
type StatusReporter interface {
	Status(sourceID string) reference.Status
}

// Collector accumulates classification counters. It is safe for concurrent use.
type Collector struct {
	classifications atomic.Int64
	matched         atomic.Int64
	fallbacks       atomic.Int64
	rejections      atomic.Int64
	failures        atomic.Int64

	ref     StatusReporter
	source  string
	started time.Time
}

// NewCollector creates a collector. ref may be nil.
func NewCollector(ref StatusReporter, sourceID string) *Collector {
	return &Collector{ref: ref, source: sourceID, started: time.Now()}
}

// RecordClassification counts a completed classification; matched is false
// when the fallback candidate was served.
func (c *Collector) RecordClassification(matched bool) {
	c.classifications.Add(1)
	if matched {
		c.matched.Add(1)
	} else {
		c.fallbacks.Add(1)
	}
}

// RecordRejection counts a request refused for invalid input.
func (c *Collector) RecordRejection() {
	c.rejections.Add(1)
}

// RecordFailure counts a request that failed for any other reason.
func (c *Collector) RecordFailure() {
	c.failures.Add(1)
}

// Snapshot returns the current counters.
func (c *Collector) Snapshot() *MetricsSnapshot {
	now := time.Now()
	snap := &MetricsSnapshot{
		Classifications: c.classifications.Load(),
		Matched:         c.matched.Load(),
		Fallbacks:       c.fallbacks.Load(),
		Rejections:      c.rejections.Load(),
		Failures:        c.failures.Load(),
		ReferenceSource: c.source,
		UptimeSecs:      int64(now.Sub(c.started).Seconds()),
		CollectedAt:     now.UTC(),
	}
	if snap.Classifications > 0 {
		snap.FallbackRate = float64(snap.Fallbacks) / float64(snap.Classifications)
	}

	if c.ref != nil {
		st := c.ref.Status(c.source)
		snap.ReferenceRows = st.Rows
		snap.ReferenceError = st.LastError
	}
	return snap
}
