// Package metrics is a small Prometheus-text metrics registry built on
// the standard library. It covers counters, gauges, and histograms with
// label series, rendered through an HTTP handler in the text exposition
// format.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuckets are latency buckets in seconds.
var DefaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Counter only goes up.
type Counter struct{ v atomic.Int64 }

func (c *Counter) Inc() { c.v.Add(1) }

func (c *Counter) Add(n int64) { c.v.Add(n) }

func (c *Counter) Value() int64 { return c.v.Load() }

// Gauge goes up and down.
type Gauge struct{ v atomic.Int64 }

func (g *Gauge) Set(n int64) { g.v.Store(n) }

func (g *Gauge) Inc() { g.v.Add(1) }

func (g *Gauge) Dec() { g.v.Add(-1) }

func (g *Gauge) Value() int64 { return g.v.Load() }

// Histogram records a distribution over fixed buckets.
type Histogram struct {
	mu     sync.Mutex
	bounds []float64
	perBkt []uint64
	sum    float64
	total  uint64
}

// Observe records one value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	h.sum += v
	h.total++
	for i, b := range h.bounds {
		if v <= b {
			h.perBkt[i]++
			break
		}
	}
	h.mu.Unlock()
}

// Since observes the seconds elapsed since t.
func (h *Histogram) Since(t time.Time) { h.Observe(time.Since(t).Seconds()) }

// family is one metric name with its series, keyed by serialized labels.
type family struct {
	kind string
	help string

	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

// Registry holds metric families in registration order.
type Registry struct {
	mu       sync.Mutex
	families map[string]*family
	order    []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{families: make(map[string]*family)}
}

func (r *Registry) family(name, kind, help string) *family {
	f, ok := r.families[name]
	if !ok {
		f = &family{
			kind:       kind,
			help:       help,
			counters:   make(map[string]*Counter),
			gauges:     make(map[string]*Gauge),
			histograms: make(map[string]*Histogram),
		}
		r.families[name] = f
		r.order = append(r.order, name)
	}
	return f
}

// Counter returns the counter series for name and label pairs, creating
// it on first use.
func (r *Registry) Counter(name, help string, labels ...string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.family(name, "counter", help)
	key := labelSet(labels)
	c, ok := f.counters[key]
	if !ok {
		c = &Counter{}
		f.counters[key] = c
	}
	return c
}

// Gauge returns the gauge series for name and label pairs.
func (r *Registry) Gauge(name, help string, labels ...string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.family(name, "gauge", help)
	key := labelSet(labels)
	g, ok := f.gauges[key]
	if !ok {
		g = &Gauge{}
		f.gauges[key] = g
	}
	return g
}

// Histogram returns the histogram series for name and label pairs. A nil
// buckets slice uses DefaultBuckets.
func (r *Registry) Histogram(name, help string, buckets []float64, labels ...string) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.family(name, "histogram", help)
	key := labelSet(labels)
	h, ok := f.histograms[key]
	if !ok {
		bs := make([]float64, len(buckets))
		copy(bs, buckets)
		sort.Float64s(bs)
		h = &Histogram{bounds: bs, perBkt: make([]uint64, len(bs))}
		f.histograms[key] = h
	}
	return h
}

// labelSet serializes k/v pairs as `k="v",k2="v2"`. Odd-length input
// drops the trailing key.
func labelSet(kvs []string) string {
	if len(kvs) < 2 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(kvs); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", kvs[i], kvs[i+1])
	}
	return b.String()
}

func seriesName(base, labels string) string {
	if labels == "" {
		return base
	}
	return base + "{" + labels + "}"
}

// Render produces the text exposition format for every registered family.
func (r *Registry) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for _, name := range r.order {
		f := r.families[name]
		if f.help != "" {
			fmt.Fprintf(&b, "# HELP %s %s\n", name, f.help)
		}
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, f.kind)

		switch f.kind {
		case "counter":
			for _, key := range sortedKeys(f.counters) {
				fmt.Fprintf(&b, "%s %d\n", seriesName(name, key), f.counters[key].Value())
			}
		case "gauge":
			for _, key := range sortedKeys(f.gauges) {
				fmt.Fprintf(&b, "%s %d\n", seriesName(name, key), f.gauges[key].Value())
			}
		case "histogram":
			for _, key := range sortedKeys(f.histograms) {
				h := f.histograms[key]
				h.mu.Lock()
				extra := ""
				if key != "" {
					extra = "," + key
				}
				cum := uint64(0)
				for i, bound := range h.bounds {
					cum += h.perBkt[i]
					fmt.Fprintf(&b, "%s_bucket{le=\"%g\"%s} %d\n", name, bound, extra, cum)
				}
				fmt.Fprintf(&b, "%s_bucket{le=\"+Inf\"%s} %d\n", name, extra, h.total)
				fmt.Fprintf(&b, "%s_sum%s %g\n", name, seriesSuffix(key), h.sum)
				fmt.Fprintf(&b, "%s_count%s %d\n", name, seriesSuffix(key), h.total)
				h.mu.Unlock()
			}
		}
	}
	return b.String()
}

func seriesSuffix(key string) string {
	if key == "" {
		return ""
	}
	return "{" + key + "}"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Handler serves the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.Write([]byte(r.Render()))
	})
}
