package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPStatusClassTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_responses_by_class_total",
			Help:      "HTTP responses grouped by status class (2xx, 4xx, 5xx)",
		},
		[]string{"class"},
	)

	OTPIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_issued_total",
			Help:      "Total number of one-time passwords issued",
		},
		[]string{"channel"},
	)

	OTPDeliveryFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_delivery_failures_total",
			Help:      "Total number of one-time passwords that could not be delivered",
		},
		[]string{"channel"},
	)

	SalePostViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "salepost_views_total",
			Help:      "Total number of sale post detail views",
		},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, path string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
	HTTPStatusClassTotal.WithLabelValues(code[:1] + "xx").Inc()
}

func RecordOTPIssued(channel string) {
	OTPIssuedTotal.WithLabelValues(channel).Inc()
}

func RecordOTPDeliveryFailure(channel string) {
	OTPDeliveryFailuresTotal.WithLabelValues(channel).Inc()
}

func RecordSalePostView() {
	SalePostViewsTotal.Inc()
}

func RecordRateLimited(path string) {
	RateLimitedTotal.WithLabelValues(path).Inc()
}
