package metrics

import (
	"sort"
	"sync"
	"time"

	"photopipe-server-go/internal/platform/errors"
)

// bucket boundaries for stage durations
var durationBuckets = []time.Duration{
	50 * time.Millisecond,
	250 * time.Millisecond,
	1 * time.Second,
	5 * time.Second,
	30 * time.Second,
}

// Key identifies a telemetry series: one stage executed by one
// backend. Post-processing stages run in process and carry the empty
// backend.
type Key struct {
	Stage   string
	Backend string
}

type series struct {
	mu            sync.Mutex
	invocations   int64
	successes     int64
	failures      map[errors.Kind]int64
	totalDuration time.Duration
	histogram     []int64
}

// Collector accumulates per-stage, per-backend counters and duration
// histograms. It is safe for concurrent use; each series carries its
// own lock so unrelated stages and backends never contend.
type Collector struct {
	mu     sync.RWMutex
	series map[Key]*series
}

func NewCollector() *Collector {
	return &Collector{series: make(map[Key]*series)}
}

// RecordSuccess records a successful stage execution.
func (c *Collector) RecordSuccess(key Key, d time.Duration) {
	s := c.get(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invocations++
	s.successes++
	s.observe(d)
}

// RecordFailure records a failed stage execution keyed by error kind.
func (c *Collector) RecordFailure(key Key, kind errors.Kind, d time.Duration) {
	s := c.get(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invocations++
	s.failures[kind]++
	s.observe(d)
}

func (c *Collector) get(key Key) *series {
	c.mu.RLock()
	s, ok := c.series[key]
	c.mu.RUnlock()
	if ok {
		return s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.series[key]; ok {
		return s
	}
	s = &series{
		failures:  make(map[errors.Kind]int64),
		histogram: make([]int64, len(durationBuckets)+1),
	}
	c.series[key] = s
	return s
}

func (s *series) observe(d time.Duration) {
	s.totalDuration += d
	for i, bound := range durationBuckets {
		if d <= bound {
			s.histogram[i]++
			return
		}
	}
	s.histogram[len(durationBuckets)]++
}

// SeriesSnapshot is a read-only copy of one telemetry series.
type SeriesSnapshot struct {
	Stage       string                `json:"stage"`
	Backend     string                `json:"backend,omitempty"`
	Invocations int64                 `json:"invocations"`
	Successes   int64                 `json:"successes"`
	Failures    map[errors.Kind]int64 `json:"failures,omitempty"`
	AvgDuration time.Duration         `json:"avg_duration"`
	Histogram   []int64               `json:"histogram"`
}

// Snapshot returns a stable-ordered copy of all series.
func (c *Collector) Snapshot() []SeriesSnapshot {
	c.mu.RLock()
	entries := make(map[Key]*series, len(c.series))
	for key, s := range c.series {
		entries[key] = s
	}
	c.mu.RUnlock()

	out := make([]SeriesSnapshot, 0, len(entries))
	for key, s := range entries {
		s.mu.Lock()
		snap := SeriesSnapshot{
			Stage:       key.Stage,
			Backend:     key.Backend,
			Invocations: s.invocations,
			Successes:   s.successes,
			Histogram:   append([]int64(nil), s.histogram...),
		}
		if len(s.failures) > 0 {
			snap.Failures = make(map[errors.Kind]int64, len(s.failures))
			for kind, n := range s.failures {
				snap.Failures[kind] = n
			}
		}
		if s.invocations > 0 {
			snap.AvgDuration = s.totalDuration / time.Duration(s.invocations)
		}
		s.mu.Unlock()
		out = append(out, snap)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Stage != out[j].Stage {
			return out[i].Stage < out[j].Stage
		}
		return out[i].Backend < out[j].Backend
	})
	return out
}
