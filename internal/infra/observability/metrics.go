package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the console.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the stub's /metrics endpoint can serve it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	apiErrors       *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// RequestSnapshot is a point-in-time summary of API traffic, shown by the
// CLI's verbose exit report.
type RequestSnapshot struct {
	TotalRequests  float64
	Succeeded      float64
	Failed         float64
	NetworkErrors  float64
	AuthErrors     float64
	ClientErrors   float64
	ServerErrors   float64
	CacheHitRate   float64
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry avoids "duplicate collector"
// panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exotrack_request_duration_seconds",
				Help:    "Duration of API requests by method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exotrack_requests_total",
				Help: "Total API requests by outcome.",
			},
			[]string{"outcome"},
		),
		apiErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exotrack_api_errors_total",
				Help: "Total API errors by class.",
			},
			[]string{"class"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exotrack_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exotrack_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of one API request.
func (m *Metrics) RecordRequestDuration(method string, d time.Duration) {
	m.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// IncrRequest increments the request counter with an outcome label
// ("success" or "error").
func (m *Metrics) IncrRequest(outcome string) {
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

// IncrAPIError increments the error counter for a status class:
// "network" (status 0), "auth" (401), "client" (other 4xx), "server" (5xx).
func (m *Metrics) IncrAPIError(status int) {
	class := "server"
	switch {
	case status == 0:
		class = "network"
	case status == 401:
		class = "auth"
	case status >= 400 && status < 500:
		class = "client"
	}
	m.apiErrors.WithLabelValues(class).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// Snapshot gathers current counter values for the verbose exit summary.
func (m *Metrics) Snapshot() *RequestSnapshot {
	succeeded := getCounterValue(m.requestsTotal, "success")
	failed := getCounterValue(m.requestsTotal, "error")
	hits := getCounterValue(m.cacheHits, "stats")
	misses := getCounterValue(m.cacheMisses, "stats")

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &RequestSnapshot{
		TotalRequests: succeeded + failed,
		Succeeded:     succeeded,
		Failed:        failed,
		NetworkErrors: getCounterValue(m.apiErrors, "network"),
		AuthErrors:    getCounterValue(m.apiErrors, "auth"),
		ClientErrors:  getCounterValue(m.apiErrors, "client"),
		ServerErrors:  getCounterValue(m.apiErrors, "server"),
		CacheHitRate:  hitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
