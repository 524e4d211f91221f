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
	// 本地视图服务收到的请求
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_view_requests_total",
			Help: "Total number of view server requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lms_view_request_duration_seconds",
			Help:    "Duration of view server requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 发往后端 API 的请求，status 为 "error" 表示没有拿到响应
	ClientRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_client_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	ClientRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lms_client_request_duration_seconds",
			Help:    "Duration of backend API requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	initOnce sync.Once
)

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(ClientRequestCounter)
		prometheus.MustRegister(ClientRequestDuration)
	})
}

// ObserveClient 记录一次后端调用
func ObserveClient(method, endpoint string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	ClientRequestCounter.WithLabelValues(method, endpoint, label).Inc()
	ClientRequestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
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
