// Package prom exports gcache's ghost-cache miss-ratio curve and LRU/
// shared-cache counters as Prometheus metrics, for long-running
// benchmark or trace-replay processes that want their MRC scraped
// rather than printed.
package prom

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// MRCExporter publishes one gauge per candidate cache size, labeled by
// size, tracking the ghost cache's current hit ratio at that size. It
// is safe for concurrent use; Prometheus metric types are goroutine-safe.
type MRCExporter struct {
	hitRatio *prometheus.GaugeVec
}

// NewMRCExporter registers a gcache_mrc_hit_ratio gauge vector with reg
// (nil => prometheus.DefaultRegisterer), labeled "variant" (e.g. "full"
// or "sampled") and "size".
func NewMRCExporter(reg prometheus.Registerer, ns string) *MRCExporter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	e := &MRCExporter{
		hitRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "gcache_mrc_hit_ratio",
			Help:      "Ghost cache hit ratio at a candidate cache size",
		}, []string{"variant", "size"}),
	}
	reg.MustRegister(e.hitRatio)
	return e
}

// Set records the current hit ratio at size for variant. A NaN
// hitRatio (no accesses observed yet at this size) is skipped rather
// than published, since Prometheus gauges cannot represent NaN
// meaningfully across scrapes.
func (e *MRCExporter) Set(variant string, size uint32, hitRatio float64) {
	if hitRatio != hitRatio { // NaN
		return
	}
	e.hitRatio.WithLabelValues(variant, sizeLabel(size)).Set(hitRatio)
}

// CacheCounters publishes hit/miss/eviction counters and resident-size
// gauges for an LRU or shared cache instance driving live traffic
// (as opposed to the ghost cache, which is summarized by MRCExporter).
type CacheCounters struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	evicts  prometheus.Counter
	size    prometheus.Gauge
	capacty prometheus.Gauge
}

// NewCacheCounters registers the counters under ns/sub.
func NewCacheCounters(reg prometheus.Registerer, ns, sub string) *CacheCounters {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &CacheCounters{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "hits_total", Help: "Cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "misses_total", Help: "Cache misses",
		}),
		evicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "evictions_total", Help: "LRU evictions",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: "size_entries", Help: "Resident entries",
		}),
		capacty: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: "capacity_entries", Help: "Capacity in entries",
		}),
	}
	reg.MustRegister(c.hits, c.misses, c.evicts, c.size, c.capacty)
	return c
}

func (c *CacheCounters) Hit()    { c.hits.Inc() }
func (c *CacheCounters) Miss()   { c.misses.Inc() }
func (c *CacheCounters) Evict()  { c.evicts.Inc() }
func (c *CacheCounters) SetSize(size, capacity int) {
	c.size.Set(float64(size))
	c.capacty.Set(float64(capacity))
}

func sizeLabel(size uint32) string {
	return strconv.FormatUint(uint64(size), 10)
}
