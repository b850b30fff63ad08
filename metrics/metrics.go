// Package metrics provides Prometheus metrics for the composer service.
// HTTP collectors:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Composer collectors:
//   - rx_cart_mutations_total: Counter with op label
//   - rx_cart_entries: Gauge with the current cart length
//   - rx_suggest_queries_total: Counter of executed suggestion matches
//   - rx_autosave_total: Counter with result label (ok, error)
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen since the last cleanup)",
		},
	)

	CartMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rx_cart_mutations_total",
			Help: "Committed cart mutations",
		},
		[]string{"op"},
	)

	CartEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rx_cart_entries",
			Help: "Medicines currently in the cart",
		},
	)

	SuggestQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rx_suggest_queries_total",
			Help: "Suggestion matches executed",
		},
	)

	AutosaveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rx_autosave_total",
			Help: "Session autosave writes by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(CartMutationsTotal)
	prometheus.MustRegister(CartEntries)
	prometheus.MustRegister(SuggestQueriesTotal)
	prometheus.MustRegister(AutosaveTotal)
}

// CartChanged records a committed cart mutation and the resulting length.
func CartChanged(op string, entries int) {
	CartMutationsTotal.WithLabelValues(op).Inc()
	CartEntries.Set(float64(entries))
}

// SuggestQuery counts one executed match.
func SuggestQuery(string, int) {
	SuggestQueriesTotal.Inc()
}

// Autosaved records the outcome of an autosave write.
func Autosaved(err error) {
	if err != nil {
		AutosaveTotal.WithLabelValues("error").Inc()
		return
	}
	AutosaveTotal.WithLabelValues("ok").Inc()
}
