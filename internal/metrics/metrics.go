// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemittancesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remit_files_generated_total",
			Help: "Remittance files built and stored.",
		},
		[]string{"bank", "layout"},
	)

	PaymentsEncoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remit_payments_encoded_total",
			Help: "Payments written into remittance files.",
		},
		[]string{"bank"},
	)

	BuildErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remit_build_errors_total",
			Help: "Remittance builds aborted by a field or validation error.",
		},
		[]string{"layout"},
	)

	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remit_build_duration_seconds",
			Help:    "Time spent encoding a remittance file.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"layout"},
	)

	ReturnsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remit_returns_ingested_total",
			Help: "Return files received, by integrity outcome.",
		},
		[]string{"bank", "outcome"},
	)

	ReconciliationResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remit_reconciliation_results_total",
			Help: "Reconciliation results stored, by settlement status.",
		},
		[]string{"status"},
	)

	IndexCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remit_index_cache_hits_total",
		Help: "Control number lookups answered from the LRU cache.",
	})
	IndexCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remit_index_cache_misses_total",
		Help: "Control number lookups that went to the database.",
	})

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remit_http_requests_total",
			Help: "HTTP requests served.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remit_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Middleware records request counts and latency labelled by chi route
// pattern rather than raw path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
