package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the application-scoped metrics registry exposed on /api/metrics.
var Registry = prometheus.NewRegistry()

var (
	// Custom histogram buckets tuned for API response times dominated by
	// external provider calls (captcha verify, email send) in the 0.1-5s range
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13}

	// HTTP Metrics
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Business Metrics
	ContactFormSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webfolio_contact_form_submissions_total",
			Help: "Total number of contact form submissions by outcome",
		},
		[]string{"status"},
	)

	CsrfTokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webfolio_csrf_tokens_issued_total",
			Help: "Total number of CSRF tokens issued",
		},
	)

	RateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webfolio_rate_limit_rejections_total",
			Help: "Total number of submissions rejected by rate limiting",
		},
		[]string{"scope"},
	)

	EmailDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webfolio_email_deliveries_total",
			Help: "Total number of email delivery attempts",
		},
		[]string{"status"},
	)

	SubmissionArchiveFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webfolio_submission_archive_failures_total",
			Help: "Total number of failed submission archive writes",
		},
	)

	// KV Store Metrics
	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kv_store_operation_duration_seconds",
			Help:    "Key-value store operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	StoreOperationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kv_store_operation_total",
			Help: "Total number of key-value store operations",
		},
		[]string{"operation", "status"},
	)

	// Infrastructure Metrics
	GoRoutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)
)

// Init registers all collectors with the application registry.
// Safe to call once at startup.
func Init() {
	Registry.MustRegister(
		HTTPRequestDuration,
		HTTPRequestTotal,
		ActiveRequests,
		ContactFormSubmissions,
		CsrfTokensIssued,
		RateLimitRejections,
		EmailDeliveries,
		SubmissionArchiveFailures,
		StoreOperationDuration,
		StoreOperationTotal,
		GoRoutines,
		HeapAlloc,
	)
}

// RecordInfrastructureMetrics collects infrastructure metrics periodically
func RecordInfrastructureMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			HeapAlloc.Set(float64(m.HeapAlloc))
		}
	}()
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
