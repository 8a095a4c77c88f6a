// Package telemetry records HTTP and meal workflow metrics and serves them in
// the Prometheus text exposition format.
package telemetry

import (
	"context"
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

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/db"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/middleware"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/streams"
)

var defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// histogram stores non-cumulative bucket counts; cumulative counts are
// computed at export time.
type histogram struct {
	boundaries   []float64
	bucketCounts []int64
	count        int64
	sum          uint64 // math.Float64bits
	mu           sync.Mutex
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{
		boundaries:   boundaries,
		bucketCounts: make([]int64, len(boundaries)),
	}
}

func (h *histogram) Observe(v float64) {
	atomic.AddInt64(&h.count, 1)
	atomicAddFloat64(&h.sum, v)

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range h.boundaries {
		if v <= b {
			h.bucketCounts[i]++
			return
		}
	}
}

func (h *histogram) Count() int64 {
	return atomic.LoadInt64(&h.count)
}

func (h *histogram) Sum() float64 {
	return math.Float64frombits(atomic.LoadUint64(&h.sum))
}

func (h *histogram) cumulativeBuckets() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	cum := make([]int64, len(h.bucketCounts))
	var running int64
	for i, c := range h.bucketCounts {
		running += c
		cum[i] = running
	}
	return cum
}

func atomicAddFloat64(addr *uint64, delta float64) {
	for {
		old := atomic.LoadUint64(addr)
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if atomic.CompareAndSwapUint64(addr, old, next) {
			return
		}
	}
}

// labelSet is the (method, route, status) key of an HTTP series.
type labelSet struct {
	method string
	route  string
	status string
}

func (l labelSet) String() string {
	return fmt.Sprintf("method=%q,route=%q,status_code=%q", l.method, l.route, l.status)
}

// Metrics is the process-wide metric registry.
type Metrics struct {
	mu         sync.RWMutex
	durations  map[labelSet]*histogram
	requests   map[labelSet]int64
	mealEvents map[string]int64
	active     int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		durations:  make(map[labelSet]*histogram),
		requests:   make(map[labelSet]int64),
		mealEvents: make(map[string]int64),
	}
}

// Middleware records request counts, latency and in-flight requests. Routes
// are recorded by their registered pattern so path ids do not explode the
// series count.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt64(&m.active, 1)
			start := time.Now()

			err := next(c)

			atomic.AddInt64(&m.active, -1)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := middleware.StatusOf(c, err)
			m.observeRequest(labelSet{
				method: c.Request().Method,
				route:  route,
				status: strconv.Itoa(status),
			}, time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) observeRequest(l labelSet, seconds float64) {
	m.mu.Lock()
	h, ok := m.durations[l]
	if !ok {
		h = newHistogram(defaultDurationBuckets)
		m.durations[l] = h
	}
	m.requests[l]++
	m.mu.Unlock()
	h.Observe(seconds)
}

func (m *Metrics) countMealEvent(kind string) {
	m.mu.Lock()
	m.mealEvents[kind]++
	m.mu.Unlock()
}

// RequestCount returns the number of requests recorded for the series.
func (m *Metrics) RequestCount(method, route string, status int) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[labelSet{method: method, route: route, status: strconv.Itoa(status)}]
}

// MealEventCount returns how many meal events of the given type were emitted.
func (m *Metrics) MealEventCount(kind string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mealEvents[kind]
}

// MealEventPublisher is the downstream sink for meal events.
type MealEventPublisher interface {
	PublishMealEvent(ctx context.Context, ev streams.MealEvent) (string, error)
}

// CountingPublisher counts meal events and forwards them to Next when set.
type CountingPublisher struct {
	Metrics *Metrics
	Next    MealEventPublisher
}

func (p *CountingPublisher) PublishMealEvent(ctx context.Context, ev streams.MealEvent) (string, error) {
	p.Metrics.countMealEvent(ev.Type)
	if p.Next == nil {
		return "", nil
	}
	return p.Next.PublishMealEvent(ctx, ev)
}

// Handler serves the registry in Prometheus text format. stats may be nil.
func (m *Metrics) Handler(stats func() *db.PoolStats) echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder
		m.write(&b)
		if stats != nil {
			writePoolStats(&b, stats())
		}
		return c.Blob(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
	}
}

func (m *Metrics) write(b *strings.Builder) {
	m.mu.RLock()
	series := make([]labelSet, 0, len(m.requests))
	for l := range m.requests {
		series = append(series, l)
	}
	requests := make(map[labelSet]int64, len(m.requests))
	durations := make(map[labelSet]*histogram, len(m.durations))
	for l, n := range m.requests {
		requests[l] = n
		durations[l] = m.durations[l]
	}
	kinds := make([]string, 0, len(m.mealEvents))
	events := make(map[string]int64, len(m.mealEvents))
	for k, n := range m.mealEvents {
		kinds = append(kinds, k)
		events[k] = n
	}
	m.mu.RUnlock()

	sort.Slice(series, func(i, j int) bool { return series[i].String() < series[j].String() })
	sort.Strings(kinds)

	b.WriteString("# HELP http_requests_total Total HTTP requests.\n")
	b.WriteString("# TYPE http_requests_total counter\n")
	for _, l := range series {
		fmt.Fprintf(b, "http_requests_total{%s} %d\n", l, requests[l])
	}
	b.WriteByte('\n')

	b.WriteString("# HELP http_request_duration_seconds Duration of HTTP requests in seconds.\n")
	b.WriteString("# TYPE http_request_duration_seconds histogram\n")
	for _, l := range series {
		writeHistogram(b, "http_request_duration_seconds", l.String(), durations[l])
	}
	b.WriteByte('\n')

	b.WriteString("# HELP http_active_requests Number of in-flight HTTP requests.\n")
	b.WriteString("# TYPE http_active_requests gauge\n")
	fmt.Fprintf(b, "http_active_requests %d\n\n", atomic.LoadInt64(&m.active))

	b.WriteString("# HELP meal_events_total Meal workflow events by type.\n")
	b.WriteString("# TYPE meal_events_total counter\n")
	for _, k := range kinds {
		fmt.Fprintf(b, "meal_events_total{type=%q} %d\n", k, events[k])
	}
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, labels string, h *histogram) {
	cum := h.cumulativeBuckets()
	total := h.Count()
	for i, boundary := range h.boundaries {
		fmt.Fprintf(b, "%s_bucket{%s,le=\"%g\"} %d\n", name, labels, boundary, cum[i])
	}
	fmt.Fprintf(b, "%s_bucket{%s,le=\"+Inf\"} %d\n", name, labels, total)
	fmt.Fprintf(b, "%s_sum{%s} %g\n", name, labels, h.Sum())
	fmt.Fprintf(b, "%s_count{%s} %d\n", name, labels, total)
}

func writePoolStats(b *strings.Builder, s *db.PoolStats) {
	if s == nil {
		return
	}
	gauges := []struct {
		name, help string
		val        int64
	}{
		{"db_pool_total_connections", "Open database pool connections.", int64(s.TotalConns)},
		{"db_pool_acquired_connections", "Database pool connections in use.", int64(s.AcquiredConns)},
		{"db_pool_idle_connections", "Idle database pool connections.", int64(s.IdleConns)},
		{"db_pool_max_connections", "Configured database pool size.", int64(s.MaxConns)},
	}
	for _, g := range gauges {
		fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n\n", g.name, g.help, g.name, g.name, g.val)
	}
}
