package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parking_http_request_duration_seconds",
		Help:    "Time spent serving HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parking_store_step_duration_seconds",
		Help:    "Time a single store call of a check-in/check-out workflow takes",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "step", "result"})

	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_operations_total",
		Help: "Parking operations by outcome",
	}, []string{"operation", "result"})

	UnmatchedCheckOuts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_checkout_unmatched_total",
		Help: "Check-outs that found no open event for the plate and lot",
	})

	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_notifications_total",
		Help: "Lot event notifications by sink and outcome",
	}, []string{"sink", "result"})

	GateMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_gate_messages_total",
		Help: "Gate messages consumed from SQS by action and outcome",
	}, []string{"action", "result"})
)

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// GinMiddleware records request latency under the matched route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
