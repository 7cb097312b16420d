// Package metrics provides Prometheus instrumentation for the rate engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QuotesTotal counts stay quotes, partitioned by outcome.
	QuotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_quotes_total",
		Help: "Total number of stay quotes resolved",
	}, []string{"outcome"})

	// QuoteLatency tracks end-to-end quote resolution latency.
	QuoteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rate_quote_latency_seconds",
		Help:    "Stay quote resolution latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// QuoteNights tracks stay lengths.
	QuoteNights = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rate_quote_nights",
		Help:    "Number of nights per quoted stay",
		Buckets: []float64{1, 2, 3, 5, 7, 14, 30, 90, 366},
	})

	// ResolutionNotes counts non-fatal pricing fallbacks by reason.
	// A climbing no_tier_found series usually means a data-entry gap.
	ResolutionNotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_resolution_notes_total",
		Help: "Non-fatal pricing fallbacks by reason",
	}, []string{"reason"})

	// EventsApplied counts event selections by pricing type.
	EventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_events_applied_total",
		Help: "Pricing events applied to nights, by pricing type",
	}, []string{"pricing_type"})

	// WebSocketClients tracks connected pricing-feed clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rate_websocket_clients",
		Help: "Number of connected pricing-feed clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rate_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
