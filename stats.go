package segcache

import (
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats holds the cache's live Prometheus collectors. Each Cache owns its
// own prometheus.Registry rather than registering into the global default
// registerer, so constructing more than one Cache in a process (or in a
// test binary) never panics on a duplicate-registration collision.
type Stats struct {
	registry *prometheus.Registry

	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	expiries  prometheus.Counter
	grows     prometheus.Counter
	shrinks   prometheus.Counter
	entries   prometheus.Gauge
	segments  prometheus.Gauge
}

func newStats() *Stats {
	reg := prometheus.NewRegistry()
	s := &Stats{
		registry: reg,
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segcache_hits_total",
			Help: "Number of Get calls that found a live, unexpired entry.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segcache_misses_total",
			Help: "Number of Get calls that found no entry, or found one expired.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segcache_evictions_total",
			Help: "Reserved for a future bounded-entries eviction policy; the LRU+TTL cache never evicts a live entry, so this stays zero.",
		}),
		expiries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segcache_expiries_total",
			Help: "Number of entries removed because their TTL had elapsed.",
		}),
		grows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segcache_segment_grows_total",
			Help: "Number of segments appended to the backing store.",
		}),
		shrinks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segcache_segment_shrinks_total",
			Help: "Number of now-empty segments reclaimed during an evict sweep.",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "segcache_entries",
			Help: "Current number of live entries in the cache.",
		}),
		segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "segcache_segments",
			Help: "Current number of live segments in the backing store.",
		}),
	}
	reg.MustRegister(s.hits, s.misses, s.evictions, s.expiries, s.grows, s.shrinks, s.entries, s.segments)
	return s
}

// Registry exposes the per-instance Prometheus registry so callers can
// serve it from their own /metrics handler.
func (s *Stats) Registry() *prometheus.Registry { return s.registry }

// StatsSnapshot is a point-in-time read of Stats' counters and gauges,
// useful for tests and for logging without pulling in a Prometheus scrape.
type StatsSnapshot struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Expiries  uint64
	Grows     uint64
	Shrinks   uint64
	Entries   int
	Segments  int
}

// HitRate returns Hits / (Hits + Misses), or 0 if there have been no Gets.
func (s StatsSnapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func counterValue(c prometheus.Counter) uint64 {
	var m dto.Metric
	_ = c.Write(&m)
	return uint64(m.GetCounter().GetValue())
}

func gaugeValue(g prometheus.Gauge) int {
	var m dto.Metric
	_ = g.Write(&m)
	return int(m.GetGauge().GetValue())
}

// Snapshot reads the current values of every collector.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:      counterValue(s.hits),
		Misses:    counterValue(s.misses),
		Evictions: counterValue(s.evictions),
		Expiries:  counterValue(s.expiries),
		Grows:     counterValue(s.grows),
		Shrinks:   counterValue(s.shrinks),
		Entries:   gaugeValue(s.entries),
		Segments:  gaugeValue(s.segments),
	}
}
