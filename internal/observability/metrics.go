// Package observability exposes the Prometheus registry shared by the HTTP
// server, vendor clients and caches.
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
	vendorCalls     *prometheus.CounterVec
	vendorDuration  *prometheus.HistogramVec
	cacheEvents     *prometheus.CounterVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kitchenboard_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kitchenboard_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	vendorCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kitchenboard_vendor_calls_total",
		Help: "Outbound vendor calls by vendor and outcome.",
	}, []string{"vendor", "outcome"})
	vendorDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kitchenboard_vendor_call_duration_seconds",
		Help:    "Outbound vendor call latency.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"vendor"})
	cacheEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kitchenboard_cache_events_total",
		Help: "Cache hits, misses and coalesced waits per tier.",
	}, []string{"tier", "event"})
	registry.MustRegister(requests, duration, vendorCalls, vendorDuration, cacheEvents)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		vendorCalls:     vendorCalls,
		vendorDuration:  vendorDuration,
		cacheEvents:     cacheEvents,
	}
}

// Handler returns the http.Handler for /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
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

// ObserveVendorCall records one outbound vendor request.
func (m *Metrics) ObserveVendorCall(vendor, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.vendorCalls.WithLabelValues(vendor, outcome).Inc()
	m.vendorDuration.WithLabelValues(vendor).Observe(elapsed.Seconds())
}

// ObserveCache counts a cache event for tier.
func (m *Metrics) ObserveCache(tier, event string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(tier, event).Inc()
}

// Registerer exposes the registry for custom collectors.
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
