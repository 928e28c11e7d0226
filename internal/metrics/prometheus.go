package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	usersListingsTotal  *prometheus.CounterVec
	usersReturned       prometheus.Histogram
	usersQueryDuration  prometheus.Histogram
	rateLimitedTotal    prometheus.Counter
}

// NewPrometheus registers the application collectors plus Go runtime and
// process collectors on a fresh registry.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		usersListingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "users_listings_total",
				Help: "Total number of users listing requests by outcome",
			},
			[]string{"outcome"},
		),
		usersReturned: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "users_listing_rows",
				Help:    "Number of rows returned per users listing",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		usersQueryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "users_query_duration_seconds",
				Help:    "Duration of the users query in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		rateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),
	}
}

// Gatherer returns the registry to expose over HTTP.
func (p *PrometheusRecorder) Gatherer() prometheus.Gatherer {
	return p.registry
}

// ObserveHTTPRequest records request count and latency.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncUsersListing counts a listing by outcome.
func (p *PrometheusRecorder) IncUsersListing(outcome string) {
	p.usersListingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveUsersReturned records the row count of a successful listing.
func (p *PrometheusRecorder) ObserveUsersReturned(count int) {
	p.usersReturned.Observe(float64(count))
}

// ObserveUsersQueryDuration records the store round trip.
func (p *PrometheusRecorder) ObserveUsersQueryDuration(duration time.Duration) {
	p.usersQueryDuration.Observe(duration.Seconds())
}

// IncRateLimited counts a rejected request.
func (p *PrometheusRecorder) IncRateLimited() {
	p.rateLimitedTotal.Inc()
}
