package metrics

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Templated-path labels only: every HTTP metric is labeled by the Echo
// route pattern (c.Path()), never the raw request path, so a flood of
// distinct photo/invoice IDs can't blow up label cardinality.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanco_http_requests_total",
		Help: "HTTP requests by route and status class.",
	}, []string{"route", "method", "status_class"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cleanco_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	OutboxOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanco_outbox_outcomes_total",
		Help: "Outbox delivery attempts by kind and result.",
	}, []string{"kind", "result"})

	BookingLifecycleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanco_booking_lifecycle_total",
		Help: "Booking state transitions by action.",
	}, []string{"action"})

	WebhookOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanco_webhook_outcomes_total",
		Help: "Payment webhook processing outcomes.",
	}, []string{"result"})

	EmailOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanco_email_outcomes_total",
		Help: "Email send outcomes by template and status.",
	}, []string{"template", "status"})

	JobHeartbeatAgeSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cleanco_job_heartbeat_age_seconds",
		Help: "Seconds since each scheduler job last heartbeated.",
	}, []string{"job"})
)

// HTTPMiddleware records HTTPRequestsTotal/HTTPRequestDuration for every
// request that reaches a registered route.
func HTTPMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			HTTPRequestsTotal.WithLabelValues(route, c.Request().Method, statusClass(status)).Inc()
			HTTPRequestDuration.WithLabelValues(route, c.Request().Method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// Handler serves the Prometheus exposition format, gated by a static
// bearer token so metrics aren't readable by every anonymous caller.
func Handler(token string) echo.HandlerFunc {
	promHandler := promhttp.Handler()
	return func(c echo.Context) error {
		if token != "" {
			presented := c.Request().Header.Get("Authorization")
			expected := "Bearer " + token
			if len(presented) != len(expected) || subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
				return c.NoContent(http.StatusUnauthorized)
			}
		}
		promHandler.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
