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

	CodeRedemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluation_code_redemptions_total",
			Help: "Access code redemptions by result",
		},
		[]string{"result"},
	)

	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluation_submissions_total",
			Help: "Attempt submissions by result",
		},
		[]string{"result"},
	)

	ScorePercent = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evaluation_score_percent",
			Help:    "Distribution of submitted attempt scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	SkippedAnswers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluation_skipped_answers_total",
			Help: "Answers that could not be resolved against the content store",
		},
		[]string{"category"},
	)

	SessionsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "evaluation_sessions_published_total",
			Help: "Evaluation sessions published to classrooms",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			CodeRedemptions,
			Submissions,
			ScorePercent,
			SkippedAnswers,
			SessionsPublished,
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
