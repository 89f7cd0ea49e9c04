package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	// PriceHistoryAppends counts appended cost-price records by trigger
	PriceHistoryAppends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_history_appends_total",
			Help: "Total number of cost-price history records appended",
		},
		[]string{"trigger"}, // baseline | cost_change
	)
)

func init() {
	prometheus.MustRegister(RequestCounter, RequestDurationHistogram, PriceHistoryAppends)
}

// Handler exposes the default prometheus registry
func Handler() http.Handler {
	return promhttp.Handler()
}
