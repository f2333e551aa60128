// Package metrics exposes Prometheus collectors for file2text runs.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// knownKinds are the label values ObserveFile accepts; anything else is
// folded into "unknown" to keep label cardinality bounded.
var knownKinds = map[string]struct{}{
	"audio": {},
	"image": {},
	"pdf":   {},
	"text":  {},
}

// Metrics owns a private registry and the service-level collectors. Progress
// consumers register their own collectors against Registry().
type Metrics struct {
	registry *prometheus.Registry

	filesTotal                 *prometheus.CounterVec
	bytesTotal                 *prometheus.CounterVec
	scanErrorsTotal            prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
}

// New creates the registry, including Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		filesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "file2text_files_total",
				Help: "Total number of input files analysed, labeled by pipeline kind.",
			},
			[]string{"kind"},
		),
		bytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "file2text_bytes_total",
				Help: "Total bytes of input analysed, labeled by pipeline kind.",
			},
			[]string{"kind"},
		),
		scanErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "file2text_scan_errors_total",
				Help: "Total number of input files that could not be analysed.",
			},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		),
		httpRequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "route"},
		),
	}
}

// Registry exposes the registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SanitizeKind lowercases kind and maps unsupported values to "unknown".
func SanitizeKind(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	if _, ok := knownKinds[k]; !ok {
		return "unknown"
	}
	return k
}

// ObserveFile counts one analysed file of the given kind and size.
func (m *Metrics) ObserveFile(kind string, size int64) {
	k := SanitizeKind(kind)
	m.filesTotal.WithLabelValues(k).Inc()
	if size > 0 {
		m.bytesTotal.WithLabelValues(k).Add(float64(size))
	}
}

// ObserveScanError counts a file that failed analysis.
func (m *Metrics) ObserveScanError() {
	m.scanErrorsTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func (m *Metrics) ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
