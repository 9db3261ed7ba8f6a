package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tangent",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tangent",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	MessagesExchangedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tangent",
			Subsystem: "server",
			Name:      "messages_exchanged_total",
			Help:      "Total persisted user and assistant messages",
		},
	)

	BranchesForkedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tangent",
			Subsystem: "server",
			Name:      "branches_forked_total",
			Help:      "Total branches created through branch-on-edit",
		},
	)

	ResponderFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tangent",
			Subsystem: "server",
			Name:      "responder_failures_total",
			Help:      "Total responder call failures",
		},
		[]string{"error_type"},
	)
)

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
