// Package telemetry records HTTP and parse metrics in memory and serves them
// in the Prometheus text exposition format.
package telemetry

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

var (
	durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	warningBuckets  = []float64{0, 1, 2, 5, 10, 25}
)

// histogram keeps non-cumulative bucket counts; cumulative counts are
// computed on export.
type histogram struct {
	mu         sync.Mutex
	boundaries []float64
	buckets    []int64
	count      int64
	sum        float64
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{boundaries: boundaries, buckets: make([]int64, len(boundaries))}
}

func (h *histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	for i, b := range h.boundaries {
		if v <= b {
			h.buckets[i]++
			return
		}
	}
}

func (h *histogram) snapshot() (cum []int64, count int64, sum float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cum = make([]int64, len(h.buckets))
	var running int64
	for i, c := range h.buckets {
		running += c
		cum[i] = running
	}
	return cum, h.count, h.sum
}

// labeled maps a rendered label set to a histogram.
type labeled struct {
	mu         sync.RWMutex
	boundaries []float64
	items      map[string]*histogram
}

func newLabeled(boundaries []float64) *labeled {
	return &labeled{boundaries: boundaries, items: make(map[string]*histogram)}
}

func (l *labeled) get(labels string) *histogram {
	l.mu.RLock()
	h, ok := l.items[labels]
	l.mu.RUnlock()
	if ok {
		return h
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok = l.items[labels]; !ok {
		h = newHistogram(l.boundaries)
		l.items[labels] = h
	}
	return h
}

func (l *labeled) keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.items))
	for k := range l.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type counters struct {
	mu    sync.RWMutex
	items map[string]*int64
}

func (c *counters) add(labels string, n int64) {
	c.mu.RLock()
	p, ok := c.items[labels]
	c.mu.RUnlock()
	if !ok {
		c.mu.Lock()
		if p, ok = c.items[labels]; !ok {
			p = new(int64)
			c.items[labels] = p
		}
		c.mu.Unlock()
	}
	atomic.AddInt64(p, n)
}

func (c *counters) snapshot() ([]string, map[string]int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vals := make(map[string]int64, len(c.items))
	keys := make([]string, 0, len(c.items))
	for k, p := range c.items {
		keys = append(keys, k)
		vals[k] = atomic.LoadInt64(p)
	}
	sort.Strings(keys)
	return keys, vals
}

// Metrics is safe for concurrent use. The zero value is not usable; call New.
type Metrics struct {
	service string

	active        int64
	httpDuration  *labeled
	parseDuration *histogram
	parseWarnings *histogram
	parses        counters
}

func New(service string) *Metrics {
	return &Metrics{
		service:       service,
		httpDuration:  newLabeled(durationBuckets),
		parseDuration: newHistogram(durationBuckets),
		parseWarnings: newHistogram(warningBuckets),
		parses:        counters{items: make(map[string]*int64)},
	}
}

// Middleware records request duration by method, route pattern and status,
// plus the number of requests in flight.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt64(&m.active, 1)
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			atomic.AddInt64(&m.active, -1)
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			labels := fmt.Sprintf("method=%q,route=%q,status_code=%q",
				c.Request().Method, route, strconv.Itoa(c.Response().Status))
			m.httpDuration.get(labels).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// ObserveParse records one sheet extraction. outcome is a short class such
// as "ok" or "structural".
func (m *Metrics) ObserveParse(outcome string, warnings int, elapsed time.Duration) {
	m.parses.add(fmt.Sprintf("outcome=%q", outcome), 1)
	m.parseDuration.Observe(elapsed.Seconds())
	if outcome == "ok" {
		m.parseWarnings.Observe(float64(warnings))
	}
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder

		fmt.Fprintf(&b, "# HELP build_info Service identity.\n# TYPE build_info gauge\nbuild_info{service=%q} 1\n\n", m.service)

		b.WriteString("# HELP http_server_active_requests Number of active HTTP requests.\n")
		b.WriteString("# TYPE http_server_active_requests gauge\n")
		fmt.Fprintf(&b, "http_server_active_requests %d\n\n", atomic.LoadInt64(&m.active))

		writeHeader(&b, "http_server_request_duration_seconds", "Duration of HTTP requests in seconds.", "histogram")
		for _, labels := range m.httpDuration.keys() {
			writeHistogram(&b, "http_server_request_duration_seconds", labels, m.httpDuration.get(labels))
		}
		b.WriteByte('\n')

		writeHeader(&b, "scenario_parse_total", "Sheet extractions by outcome.", "counter")
		keys, vals := m.parses.snapshot()
		for _, k := range keys {
			fmt.Fprintf(&b, "scenario_parse_total{%s} %d\n", k, vals[k])
		}
		b.WriteByte('\n')

		writeHeader(&b, "scenario_parse_duration_seconds", "Duration of sheet extractions in seconds.", "histogram")
		writeHistogram(&b, "scenario_parse_duration_seconds", "", m.parseDuration)
		b.WriteByte('\n')

		writeHeader(&b, "scenario_parse_warnings", "Warnings reported per successful extraction.", "histogram")
		writeHistogram(&b, "scenario_parse_warnings", "", m.parseWarnings)

		return c.Blob(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
	}
}

func writeHeader(b *strings.Builder, name, help, typ string) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, typ)
}

func writeHistogram(b *strings.Builder, name, labels string, h *histogram) {
	cum, count, sum := h.snapshot()
	prefix, suffix := "", ""
	if labels != "" {
		prefix = labels + ","
		suffix = "{" + labels + "}"
	}
	for i, bound := range h.boundaries {
		fmt.Fprintf(b, "%s_bucket{%sle=%q} %d\n", name, prefix, formatBound(bound), cum[i])
	}
	fmt.Fprintf(b, "%s_bucket{%sle=\"+Inf\"} %d\n", name, prefix, count)
	fmt.Fprintf(b, "%s_sum%s %g\n", name, suffix, sum)
	fmt.Fprintf(b, "%s_count%s %d\n", name, suffix, count)
}

func formatBound(v float64) string {
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
