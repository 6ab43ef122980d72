package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// QuestionsAssembled 每次组卷实际返回的题目数
	QuestionsAssembled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_questions_assembled_total",
			Help: "Questions returned by test assembly",
		},
		[]string{"section"},
	)

	// AssemblyShortfall 题库不足导致返回数量少于请求数量
	AssemblyShortfall = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_assembly_shortfall_total",
			Help: "Assembly requests that returned fewer questions than requested",
		},
		[]string{"section"},
	)

	SubmissionsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_submissions_recorded_total",
			Help: "Test submissions folded into dashboard analytics",
		},
	)

	SubmissionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_submission_conflicts_total",
			Help: "Test submissions rejected because of a concurrent dashboard update",
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			QuestionsAssembled,
			AssemblyShortfall,
			SubmissionsRecorded,
			SubmissionConflicts,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
