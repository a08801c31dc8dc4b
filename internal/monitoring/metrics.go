// Package monitoring collects in-process metrics for the studio server and
// runs the health checks behind /health.
package monitoring

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
)

// MetricType represents the type of metric
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// Metric is one gathered value.
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	// Histogram fields; Value holds the sum.
	Count   int64            `json:"count,omitempty"`
	Buckets map[string]int64 `json:"buckets,omitempty"`
}

// MetricsCollector keeps counters, gauges and histograms in memory. It is
// safe for concurrent use.
type MetricsCollector struct {
	prefix     string
	mutex      sync.RWMutex
	metrics    map[string]*Metric
	histograms map[string]*Histogram
	buckets    []float64
}

// DefaultBuckets suit link and token lengths.
var DefaultBuckets = []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000}

// NewMetricsCollector creates a collector whose metric names start with
// prefix.
func NewMetricsCollector(prefix string) *MetricsCollector {
	return &MetricsCollector{
		prefix:     prefix,
		metrics:    make(map[string]*Metric),
		histograms: make(map[string]*Histogram),
		buckets:    DefaultBuckets,
	}
}

// Counter increments a counter metric.
func (mc *MetricsCollector) Counter(name string, labels map[string]string) {
	mc.CounterAdd(name, 1, labels)
}

// CounterAdd adds a value to a counter metric.
func (mc *MetricsCollector) CounterAdd(name string, value float64, labels map[string]string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	m := mc.metric(name, MetricTypeCounter, labels)
	m.Value += value
	m.Timestamp = time.Now()
}

// Gauge sets a gauge metric.
func (mc *MetricsCollector) Gauge(name string, value float64, labels map[string]string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	m := mc.metric(name, MetricTypeGauge, labels)
	m.Value = value
	m.Timestamp = time.Now()
}

// GaugeAdd moves a gauge by delta.
func (mc *MetricsCollector) GaugeAdd(name string, delta float64, labels map[string]string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	m := mc.metric(name, MetricTypeGauge, labels)
	m.Value += delta
	m.Timestamp = time.Now()
}

// Histogram records an observation.
func (mc *MetricsCollector) Histogram(name string, value float64, labels map[string]string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	m := mc.metric(name, MetricTypeHistogram, labels)
	m.Timestamp = time.Now()

	key := mc.getKey(name, labels)
	h, ok := mc.histograms[key]
	if !ok {
		h = NewHistogram(mc.buckets)
		mc.histograms[key] = h
	}
	h.Observe(value)
}

// Timer returns a function that records the elapsed milliseconds as a
// histogram observation when called.
func (mc *MetricsCollector) Timer(name string, labels map[string]string) func() {
	start := time.Now()
	return func() {
		mc.Histogram(name, float64(time.Since(start).Microseconds())/1000, labels)
	}
}

// Value returns the current value of a counter or gauge, or the sum of a
// histogram.
func (mc *MetricsCollector) Value(name string, labels map[string]string) float64 {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()

	key := mc.getKey(name, labels)
	if h, ok := mc.histograms[key]; ok {
		return h.GetSum()
	}
	if m, ok := mc.metrics[key]; ok {
		return m.Value
	}
	return 0
}

// GatherMetrics returns a snapshot of every metric, sorted by name and
// labels.
func (mc *MetricsCollector) GatherMetrics() []Metric {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()

	keys := make([]string, 0, len(mc.metrics))
	for key := range mc.metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Metric, 0, len(keys))
	for _, key := range keys {
		m := *mc.metrics[key]
		if h, ok := mc.histograms[key]; ok {
			m.Value = h.GetSum()
			m.Count = h.GetCount()
			m.Buckets = make(map[string]int64)
			for bound, n := range h.GetBuckets() {
				m.Buckets[strconv.FormatFloat(bound, 'f', -1, 64)] = n
			}
		}
		out = append(out, m)
	}
	return out
}

// metric returns the entry for name and labels, creating it. Callers hold
// the write lock.
func (mc *MetricsCollector) metric(name string, typ MetricType, labels map[string]string) *Metric {
	key := mc.getKey(name, labels)
	m, ok := mc.metrics[key]
	if !ok {
		m = &Metric{Name: mc.getFullName(name), Type: typ, Labels: copyLabels(labels)}
		mc.metrics[key] = m
	}
	return m
}

func (mc *MetricsCollector) getFullName(name string) string {
	if mc.prefix == "" {
		return name
	}
	return mc.prefix + "_" + name
}

// getKey builds a stable key from name and sorted labels.
func (mc *MetricsCollector) getKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range names {
		b.WriteString("{" + k + "=" + labels[k] + "}")
	}
	return b.String()
}

func copyLabels(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

// Histogram counts observations into cumulative buckets.
type Histogram struct {
	buckets map[float64]int64
	count   int64
	sum     float64
	mutex   sync.RWMutex
}

// NewHistogram creates a new histogram with the given buckets.
func NewHistogram(buckets []float64) *Histogram {
	hist := &Histogram{
		buckets: make(map[float64]int64),
	}

	for _, bucket := range buckets {
		hist.buckets[bucket] = 0
	}

	return hist
}

// Observe adds an observation to the histogram.
func (h *Histogram) Observe(value float64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.count++
	h.sum += value

	for bucket := range h.buckets {
		if value <= bucket {
			h.buckets[bucket]++
		}
	}
}

// GetBuckets returns the histogram buckets.
func (h *Histogram) GetBuckets() map[float64]int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	buckets := make(map[float64]int64)
	for k, v := range h.buckets {
		buckets[k] = v
	}

	return buckets
}

// GetCount returns the total observation count.
func (h *Histogram) GetCount() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return h.count
}

// GetSum returns the sum of all observations.
func (h *Histogram) GetSum() float64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return h.sum
}

// ShareMetrics records what the studio does with tokens and links.
type ShareMetrics struct {
	collector *MetricsCollector
}

// NewShareMetrics wraps collector.
func NewShareMetrics(collector *MetricsCollector) *ShareMetrics {
	return &ShareMetrics{collector: collector}
}

// Collector returns the underlying collector.
func (sm *ShareMetrics) Collector() *MetricsCollector {
	return sm.collector
}

// TokenDecoded counts a decode attempt by outcome: "ok" or the error kind.
func (sm *ShareMetrics) TokenDecoded(err error) {
	sm.collector.Counter("tokens_decoded_total", map[string]string{"result": Outcome(err)})
}

// LinkBuilt counts a built link and records its length.
func (sm *ShareMetrics) LinkBuilt(length int, withinLimit bool) {
	sm.collector.Counter("links_built_total", map[string]string{
		"within_limit": strconv.FormatBool(withinLimit),
	})
	sm.collector.Histogram("link_length", float64(length), nil)
}

// EstimateServed counts a length estimate by source ("http" or
// "websocket").
func (sm *ShareMetrics) EstimateServed(source string) {
	sm.collector.Counter("estimates_total", map[string]string{"source": source})
}

// SocketOpened and SocketClosed track live estimate streams.
func (sm *ShareMetrics) SocketOpened() {
	sm.collector.Counter("websocket_connections_total", nil)
	sm.collector.GaugeAdd("websocket_active", 1, nil)
}

func (sm *ShareMetrics) SocketClosed() {
	sm.collector.GaugeAdd("websocket_active", -1, nil)
}

// ServerRequest counts a served request by method and status class.
func (sm *ShareMetrics) ServerRequest(method string, status int) {
	sm.collector.Counter("http_requests_total", map[string]string{
		"method": method,
		"status": strconv.Itoa(status/100) + "xx",
	})
}

// Outcome names the result of an operation for metric labels.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var se *studioerrors.StudioError
	if errors.As(err, &se) {
		return string(se.Type)
	}
	return "error"
}
