// Package metrics provides Prometheus metrics for the DC price oracle.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SourceFetchesTotal counts source calls by outcome (ok, error, timeout).
	SourceFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcoracle_source_fetches_total",
			Help: "Total number of price fetches per source and outcome",
		},
		[]string{"source", "result"},
	)

	// SourceFetchDuration is a histogram of source call latencies.
	SourceFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dcoracle_source_fetch_duration_seconds",
			Help:    "Duration of individual source fetches",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// ValidationRejectionsTotal counts readings rejected by the validator.
	ValidationRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcoracle_validation_rejections_total",
			Help: "Total number of source readings rejected as implausible",
		},
		[]string{"source", "reason"},
	)

	// SourceHealth is 1 when the last fetch from a source was accepted.
	SourceHealth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dcoracle_source_health",
			Help: "Health status of price sources (1=healthy, 0=unhealthy)",
		},
		[]string{"source", "type"},
	)

	// CacheHitsTotal counts fast-path answers served from a fresh cache.
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dcoracle_cache_hits_total",
			Help: "Total number of price requests served from the fresh cache",
		},
	)

	// CacheFallbacksTotal counts answers served from the cache after every source failed.
	CacheFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcoracle_cache_fallbacks_total",
			Help: "Total number of cache fallbacks after the source chain was exhausted",
		},
		[]string{"state"},
	)

	// ChainExhaustedTotal counts fatal outcomes by kind.
	ChainExhaustedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcoracle_chain_exhausted_total",
			Help: "Total number of requests that could not be served",
		},
		[]string{"kind"},
	)

	// SharedFetchesTotal counts callers that joined an in-flight traversal.
	SharedFetchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dcoracle_shared_fetches_total",
			Help: "Total number of callers served by an already running fetch",
		},
	)

	// AcceptedPrice is the last accepted DC/USD price.
	AcceptedPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dcoracle_price_usd",
			Help: "Last accepted DC price in USD",
		},
		[]string{"source"},
	)

	// PriceAgeSeconds is the age of the cached price when last observed.
	PriceAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dcoracle_price_age_seconds",
			Help: "Age of the cached price",
		},
	)

	// HistoryDroppedTotal counts history records dropped because the writer was saturated.
	HistoryDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dcoracle_history_dropped_total",
			Help: "Total number of price history records dropped",
		},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcoracle_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dcoracle_http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		},
		[]string{"endpoint"},
	)
)

// Init registers all collectors with the default Prometheus registry.
func Init() {
	prometheus.MustRegister(
		SourceFetchesTotal,
		SourceFetchDuration,
		ValidationRejectionsTotal,
		SourceHealth,
		CacheHitsTotal,
		CacheFallbacksTotal,
		ChainExhaustedTotal,
		SharedFetchesTotal,
		AcceptedPrice,
		PriceAgeSeconds,
		HistoryDroppedTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// ServeHTTP serves Prometheus metrics on the specified address and path.
func ServeHTTP(addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordSourceFetch records the outcome and latency of one source call.
func RecordSourceFetch(source, result string, duration time.Duration) {
	SourceFetchesTotal.WithLabelValues(source, result).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordSourceHealth records the health status of a source.
func RecordSourceHealth(source, sourceType string, healthy bool) {
	val := 0.0
	if healthy {
		val = 1.0
	}
	SourceHealth.WithLabelValues(source, sourceType).Set(val)
}

// RecordValidationRejection records a rejected reading.
func RecordValidationRejection(source, reason string) {
	ValidationRejectionsTotal.WithLabelValues(source, reason).Inc()
}

// RecordCacheHit records a fast-path hit.
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheFallback records a last-resort cache answer; state is "fresh" or "stale".
func RecordCacheFallback(state string) {
	CacheFallbacksTotal.WithLabelValues(state).Inc()
}

// RecordChainExhausted records a fatal outcome; kind is "no_data" or "too_old".
func RecordChainExhausted(kind string) {
	ChainExhaustedTotal.WithLabelValues(kind).Inc()
}

// RecordSharedFetch records a caller that joined an in-flight fetch.
func RecordSharedFetch() {
	SharedFetchesTotal.Inc()
}

// RecordAcceptedPrice records a newly accepted price.
func RecordAcceptedPrice(source string, price float64) {
	AcceptedPrice.Reset()
	AcceptedPrice.WithLabelValues(source).Set(price)
}

// RecordPriceAge records the cached price age.
func RecordPriceAge(age time.Duration) {
	PriceAgeSeconds.Set(age.Seconds())
}

// RecordHistoryDrop records a dropped history record.
func RecordHistoryDrop() {
	HistoryDroppedTotal.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
