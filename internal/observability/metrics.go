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

	journalsPosted      prometheus.Counter
	unbalancedRejected  prometheus.Counter
	invoicesIssued      prometheus.Counter
	integrityViolations prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qayd_http_requests_total",
		Help: "Number of HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qayd_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	journalsPosted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qayd_journal_entries_posted_total",
		Help: "Number of journal entries accepted into posted state.",
	})
	unbalanced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qayd_journal_entries_unbalanced_total",
		Help: "Number of journal entries rejected for unbalanced totals.",
	})
	invoices := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qayd_invoices_issued_total",
		Help: "Number of tax invoices issued.",
	})
	integrity := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qayd_ledger_integrity_violations_total",
		Help: "Number of ledger integrity violations detected by the background check.",
	})
	registry.MustRegister(requests, duration, journalsPosted, unbalanced, invoices, integrity)
	return &Metrics{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:       requests,
		requestDuration:     duration,
		journalsPosted:      journalsPosted,
		unbalancedRejected:  unbalanced,
		invoicesIssued:      invoices,
		integrityViolations: integrity,
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

// JournalPosted increments the posted-entries counter.
func (m *Metrics) JournalPosted() {
	if m != nil {
		m.journalsPosted.Inc()
	}
}

// UnbalancedRejected increments the unbalanced-rejection counter.
func (m *Metrics) UnbalancedRejected() {
	if m != nil {
		m.unbalancedRejected.Inc()
	}
}

// InvoiceIssued increments the issued-invoices counter.
func (m *Metrics) InvoiceIssued() {
	if m != nil {
		m.invoicesIssued.Inc()
	}
}

// IntegrityViolation increments the integrity-violation counter.
func (m *Metrics) IntegrityViolation() {
	if m != nil {
		m.integrityViolations.Inc()
	}
}

// Registerer exposes the registry for custom metric registration.
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
