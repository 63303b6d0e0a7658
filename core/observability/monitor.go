package observability

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Monitor keeps per-route request counters. Recording is lock free once a
// route has been seen.
type Monitor struct {
	routes sync.Map // route -> *RouteMetrics
	total  atomic.Uint64
}

// RouteMetrics stores the counters of one route
type RouteMetrics struct {
	Route         string
	Count         atomic.Uint64
	Errors        atomic.Uint64
	TotalDuration atomic.Uint64
	MinDuration   atomic.Uint64
	MaxDuration   atomic.Uint64

	latencyBuckets [len(bucketBounds) + 1]atomic.Uint64
}

// bucket upper bounds, the last bucket is unbounded
var bucketBounds = [...]time.Duration{
	time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
}

// RouteStats is a point-in-time copy of RouteMetrics
type RouteStats struct {
	Route   string
	Count   uint64
	Errors  uint64
	Average time.Duration
	Min     time.Duration
	Max     time.Duration
	Buckets []uint64
}

// ErrorRate returns the failed share of requests
func (s RouteStats) ErrorRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.Count)
}

// Finding flags a route whose latency or error rate crossed a threshold
type Finding struct {
	Type    string
	Route   string
	Details string
}

// NewMonitor creates an empty monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Record adds one handled request for route
func (m *Monitor) Record(route string, d time.Duration, failed bool) {
	val, _ := m.routes.LoadOrStore(route, &RouteMetrics{Route: route})
	rm := val.(*RouteMetrics)

	rm.Count.Add(1)
	if failed {
		rm.Errors.Add(1)
	}

	ns := uint64(max(d, 0))
	rm.TotalDuration.Add(ns)
	rm.updateMinMax(ns)
	rm.latencyBuckets[bucketOf(d)].Add(1)

	m.total.Add(1)
}

// Total returns the number of recorded requests over all routes
func (m *Monitor) Total() uint64 {
	return m.total.Load()
}

// Route returns the stats of route
func (m *Monitor) Route(route string) (RouteStats, bool) {
	val, ok := m.routes.Load(route)
	if !ok {
		return RouteStats{}, false
	}
	return val.(*RouteMetrics).snapshot(), true
}

// Snapshot returns the stats of every route, sorted by route
func (m *Monitor) Snapshot() []RouteStats {
	var out []RouteStats
	m.routes.Range(func(_, value any) bool {
		out = append(out, value.(*RouteMetrics).snapshot())
		return true
	})
	slices.SortFunc(out, func(a, b RouteStats) int {
		if a.Route < b.Route {
			return -1
		}
		if a.Route > b.Route {
			return 1
		}
		return 0
	})
	return out
}

// Findings reports routes averaging above slow or failing more often than
// errorRate.
func (m *Monitor) Findings(slow time.Duration, errorRate float64) []Finding {
	var findings []Finding
	for _, s := range m.Snapshot() {
		if s.Count == 0 {
			continue
		}
		if s.Average > slow {
			findings = append(findings, Finding{
				Type:    "latency",
				Route:   s.Route,
				Details: fmt.Sprintf("high latency (%v avg)", s.Average),
			})
		}
		if rate := s.ErrorRate(); s.Errors > 0 && rate > errorRate {
			findings = append(findings, Finding{
				Type:    "errors",
				Route:   s.Route,
				Details: fmt.Sprintf("%.1f%% error rate", rate*100),
			})
		}
	}
	return findings
}

func (rm *RouteMetrics) snapshot() RouteStats {
	s := RouteStats{
		Route:   rm.Route,
		Count:   rm.Count.Load(),
		Errors:  rm.Errors.Load(),
		Min:     time.Duration(rm.MinDuration.Load()),
		Max:     time.Duration(rm.MaxDuration.Load()),
		Buckets: make([]uint64, len(rm.latencyBuckets)),
	}
	if s.Count > 0 {
		s.Average = time.Duration(rm.TotalDuration.Load() / s.Count)
	}
	for i := range rm.latencyBuckets {
		s.Buckets[i] = rm.latencyBuckets[i].Load()
	}
	return s
}

func (rm *RouteMetrics) updateMinMax(d uint64) {
	for {
		cur := rm.MinDuration.Load()
		if cur != 0 && d >= cur {
			break
		}
		if rm.MinDuration.CompareAndSwap(cur, d) {
			break
		}
	}
	for {
		cur := rm.MaxDuration.Load()
		if d <= cur {
			break
		}
		if rm.MaxDuration.CompareAndSwap(cur, d) {
			break
		}
	}
}

func bucketOf(d time.Duration) int {
	for i, bound := range bucketBounds {
		if d < bound {
			return i
		}
	}
	return len(bucketBounds)
}
