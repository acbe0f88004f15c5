package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// CSV import pipeline counters, partitioned by row outcome
	importRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csv_import_rows_total",
			Help: "Total CSV rows processed by the import pipeline",
		},
		[]string{"outcome"}, // valid, error, empty
	)

	importedTargetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pacing_targets_imported_total",
			Help: "Total pacing targets persisted through CSV import",
		},
	)
)

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// Labels are kept low-cardinality by using the matched route path when available.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		// Call the next handler in the chain
		err := c.Next()

		status := c.Response().StatusCode()
		method := c.Method()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path // Use route template to avoid high cardinality
		}

		labels := prometheus.Labels{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}

// RecordImportRows feeds the import pipeline counters after a validation or
// commit pass.
func RecordImportRows(valid, errored, empty int) {
	importRowsTotal.WithLabelValues("valid").Add(float64(valid))
	importRowsTotal.WithLabelValues("error").Add(float64(errored))
	importRowsTotal.WithLabelValues("empty").Add(float64(empty))
}

// RecordImportedTargets counts targets persisted by a successful import.
func RecordImportedTargets(count int) {
	importedTargetsTotal.Add(float64(count))
}
