package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SittingsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exam_sittings_ingested_total",
		Help: "Total number of sitting rows accepted from uploaded sheets",
	})

	SheetsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exam_sheets_rejected_total",
		Help: "Total number of uploaded sheets rejected at validation",
	})

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

// GinMiddleware records request durations labelled by route, method and status.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestDuration.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
