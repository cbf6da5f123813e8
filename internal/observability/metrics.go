package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	syncRunsTotal     *prometheus.CounterVec
	syncProductsTotal *prometheus.CounterVec
	pushResultsTotal  *prometheus.CounterVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "soundbridge_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "soundbridge_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	syncRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "soundbridge_sync_runs_total",
		Help: "Connector sync runs by supplier and terminal status.",
	}, []string{"supplier", "status"})
	syncProducts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "soundbridge_sync_products_total",
		Help: "Products processed by sync runs, by supplier and outcome.",
	}, []string{"supplier", "outcome"})
	pushResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "soundbridge_push_results_total",
		Help: "Push run item outcomes (created, skipped, failed).",
	}, []string{"outcome"})
	registry.MustRegister(requests, duration, syncRuns, syncProducts, pushResults)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		syncRunsTotal:     syncRuns,
		syncProductsTotal: syncProducts,
		pushResultsTotal:  pushResults,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveSyncRun records one finished sync run.
func (m *Metrics) ObserveSyncRun(supplier, status string, added, updated, failed int) {
	if m == nil {
		return
	}
	m.syncRunsTotal.WithLabelValues(supplier, status).Inc()
	m.syncProductsTotal.WithLabelValues(supplier, "added").Add(float64(added))
	m.syncProductsTotal.WithLabelValues(supplier, "updated").Add(float64(updated))
	m.syncProductsTotal.WithLabelValues(supplier, "failed").Add(float64(failed))
}

// ObservePushOutcome records one push item outcome.
func (m *Metrics) ObservePushOutcome(outcome string) {
	if m == nil {
		return
	}
	m.pushResultsTotal.WithLabelValues(outcome).Inc()
}

// Middleware records metrics for each HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for registering custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
