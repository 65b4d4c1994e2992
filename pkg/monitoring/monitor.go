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
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// LevelStarts kind: new / resumed / retry / completed
	LevelStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "party_level_starts_total",
			Help: "Level start calls by outcome",
		},
		[]string{"kind"},
	)

	// LevelCompletions result: passed / failed
	LevelCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "party_level_completions_total",
			Help: "Level completions by result",
		},
		[]string{"result"},
	)

	LeaderboardDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "party_leaderboard_query_duration_seconds",
			Help:    "Time spent computing leaderboard standings",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"query"},
	)

	OTPSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "party_otp_sent_total",
			Help: "OTP deliveries by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(LevelStarts)
		prometheus.MustRegister(LevelCompletions)
		prometheus.MustRegister(LeaderboardDuration)
		prometheus.MustRegister(OTPSent)
	})
}

// ObserveLeaderboard 用法: defer monitoring.ObserveLeaderboard("rank", time.Now())
func ObserveLeaderboard(query string, start time.Time) {
	LeaderboardDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
