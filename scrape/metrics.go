package scrape

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the orchestrator.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	ProductsTotal   prometheus.Counter
	RateLimitWaits  prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_scrape_requests_total",
			Help: "Total scrape requests handled, by source.",
		},
		[]string{"source"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scout_scrape_duration_seconds",
			Help:    "End-to-end scrape latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	products := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scout_products_extracted_total",
			Help: "Total structured products extracted.",
		},
	)
	rateLimitWaits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scout_rate_limit_waits_total",
			Help: "Total scrapes that paused for a rate-limit window.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_scrape_errors_total",
			Help: "Total scrape errors by kind.",
		},
		[]string{"kind"},
	)

	registry.MustRegister(requests, requestDuration, products, rateLimitWaits, errorsTotal)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		ProductsTotal:   products,
		RateLimitWaits:  rateLimitWaits,
		ErrorsTotal:     errorsTotal,
	}
}

// IncRequest increments the per-source request counter.
func (m *Metrics) IncRequest(source string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(source).Inc()
}

// ObserveDuration records one scrape's wall-clock duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncProducts increments the extracted-products counter.
func (m *Metrics) IncProducts() {
	if m == nil {
		return
	}
	m.ProductsTotal.Inc()
}

// IncRateLimitWait increments the rate-limit pause counter.
func (m *Metrics) IncRateLimitWait() {
	if m == nil {
		return
	}
	m.RateLimitWaits.Inc()
}

// IncError increments the errors counter for a kind label.
func (m *Metrics) IncError(kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}
