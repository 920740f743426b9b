package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medismart",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medismart",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	otpIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medismart",
			Subsystem: "otp",
			Name:      "issue_total",
			Help:      "OTP issuance requests by outcome.",
		},
		[]string{"result"},
	)

	otpVerified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medismart",
			Subsystem: "otp",
			Name:      "verify_total",
			Help:      "OTP verification attempts by outcome.",
		},
		[]string{"result"},
	)

	orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medismart",
			Subsystem: "orders",
			Name:      "placements_total",
			Help:      "Order placements by outcome.",
		},
		[]string{"result"},
	)

	lowStockMedicines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medismart",
			Subsystem: "catalog",
			Name:      "low_stock_medicines",
			Help:      "Medicines below the low-stock threshold at the last report.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		otpIssued,
		otpVerified,
		orders,
		lowStockMedicines,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one handled request
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOTPIssue counts an issuance outcome ("sent", "throttled", "error")
func RecordOTPIssue(result string) {
	otpIssued.WithLabelValues(result).Inc()
}

// RecordOTPVerify counts a verification outcome
func RecordOTPVerify(result string) {
	otpVerified.WithLabelValues(result).Inc()
}

// RecordOrder counts an order outcome ("placed", "rejected", "error")
func RecordOrder(result string) {
	orders.WithLabelValues(result).Inc()
}

// SetLowStockMedicines publishes the size of the last low-stock report
func SetLowStockMedicines(n int) {
	lowStockMedicines.Set(float64(n))
}
