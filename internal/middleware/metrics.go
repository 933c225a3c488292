package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names, exported so tests and dashboards reference one source.
const (
	MetricRateLimitRequests    = "rate_limit_requests_total"
	MetricRateLimitBlocked     = "rate_limit_blocked_total"
	MetricRateLimitRedisErrors = "rate_limit_redis_errors_total"
	MetricHTTPRequestDuration  = "http_request_duration_seconds"
	MetricHTTPRequestsTotal    = "http_requests_total"
	MetricHTTPResponseSize     = "http_response_size_bytes"
)

// httpLabels label every HTTP-level series. The path label holds the
// normalized route, never the raw URL.
var httpLabels = []string{"method", "path", "status"}

// Metrics holds the Prometheus collectors for the middleware layer.
// Safe for concurrent use.
type Metrics struct {
	rateLimitRequests    *prometheus.CounterVec
	rateLimitBlocked     *prometheus.CounterVec
	rateLimitRedisErrors prometheus.Counter
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	httpResponseSize     *prometheus.HistogramVec
}

// NewMetrics builds the collectors without registering them; call
// Register with the server's registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rateLimitRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRateLimitRequests,
			Help: "Total number of rate limit checks by endpoint",
		}, []string{"endpoint"}),
		rateLimitBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRateLimitBlocked,
			Help: "Total number of rate limit violations (blocked requests) by endpoint",
		}, []string{"endpoint"}),
		rateLimitRedisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRateLimitRedisErrors,
			Help: "Total number of Redis errors during rate limiting (fail-open events)",
		}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0},
		}, httpLabels),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "Total number of HTTP requests",
		}, httpLabels),
		httpResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPResponseSize,
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, httpLabels),
	}
}

// Register registers every collector with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.rateLimitRequests,
		m.rateLimitBlocked,
		m.rateLimitRedisErrors,
		m.httpRequestDuration,
		m.httpRequestsTotal,
		m.httpResponseSize,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRateLimit records one rate limit check for an endpoint.
func (m *Metrics) ObserveRateLimit(endpoint string, blocked bool) {
	m.rateLimitRequests.WithLabelValues(endpoint).Inc()
	if blocked {
		m.rateLimitBlocked.WithLabelValues(endpoint).Inc()
	}
}

// ObserveRedisError records a fail-open Redis error.
func (m *Metrics) ObserveRedisError() {
	m.rateLimitRedisErrors.Inc()
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, path, status string, durationSeconds float64, responseBytes int) {
	m.httpRequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpResponseSize.WithLabelValues(method, path, status).Observe(float64(responseBytes))
}
