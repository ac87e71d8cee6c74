package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: []float64{1000, 10000, 100000, 500000, 1 << 20, 2 << 20, 5 << 20, 10 << 20},
		},
		[]string{"method", "endpoint"},
	)

	httpRequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "Total number of failed requests by error kind",
		},
		[]string{"kind", "status_code"},
	)

	// Business metrics
	contactSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Total number of contact form submissions by outcome",
		},
		[]string{"outcome"}, // sent, invalid, captcha_failed, error
	)

	captchaVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captcha_verifications_total",
			Help: "Total number of CAPTCHA verifications",
		},
		[]string{"result"}, // verified, failed, unavailable, disabled
	)

	emailDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_dispatch_total",
			Help: "Total number of email provider calls",
		},
		[]string{"provider", "status"}, // success, failure
	)

	emailDispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "email_dispatch_duration_seconds",
			Help:    "Email provider call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	attachmentRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_rejections_total",
			Help: "Total number of rejected attachments",
		},
		[]string{"reason"},
	)
)

// Submission outcomes
const (
	OutcomeSent          = "sent"
	OutcomeInvalid       = "invalid"
	OutcomeCaptchaFailed = "captcha_failed"
	OutcomeError         = "error"
)

// PrometheusMiddleware records request count, latency and size per route.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint itself
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		if c.Request.ContentLength > 0 {
			httpRequestSize.WithLabelValues(c.Request.Method, endpoint).Observe(float64(c.Request.ContentLength))
		}

		c.Next()

		statusCode := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, statusCode).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint, statusCode).Observe(time.Since(start).Seconds())
	}
}

// RecordContactSubmission records the final outcome of one submission
func RecordContactSubmission(outcome string) {
	contactSubmissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordCaptchaVerification records a CAPTCHA verification result
func RecordCaptchaVerification(result string) {
	captchaVerificationsTotal.WithLabelValues(result).Inc()
}

// RecordEmailDispatch records one provider call
func RecordEmailDispatch(provider string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	emailDispatchTotal.WithLabelValues(provider, status).Inc()
	emailDispatchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordAttachmentRejection records why an attachment was refused
func RecordAttachmentRejection(reason string) {
	attachmentRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordRequestError records a request that ended with an error envelope
func RecordRequestError(kind string, status int) {
	httpRequestErrorsTotal.WithLabelValues(kind, strconv.Itoa(status)).Inc()
}
