package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agrimodel"

// Metrics HTTP 与业务指标
// 使用独立 Registry，避免测试中重复注册
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	reviews         *prometheus.CounterVec
	uploadFallbacks prometheus.Counter
	rateLimited     *prometheus.CounterVec
}

// New 创建并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "审核操作次数（按实体与结果）",
		}, []string{"entity", "outcome"}),
		uploadFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_fallbacks_total",
			Help:      "对象存储不可用时降级为本地占位地址的上传次数",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "被限流拒绝的请求数",
		}, []string{"group"}),
	}

	reg.MustRegister(m.requests, m.duration, m.reviews, m.uploadFallbacks, m.rateLimited)
	return m
}

// Handler /metrics 暴露端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 返回底层注册表
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware 记录请求数与耗时，route 使用 gin 的路由模板避免高基数
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveReview 记录一次审核（entity: user|college|submission，outcome: approved|rejected|conflict）
// 接收者为 nil 时为空操作
func (m *Metrics) ObserveReview(entity, outcome string) {
	if m == nil {
		return
	}
	m.reviews.WithLabelValues(entity, outcome).Inc()
}

// ObserveUploadFallback 记录一次上传降级
func (m *Metrics) ObserveUploadFallback() {
	if m == nil {
		return
	}
	m.uploadFallbacks.Inc()
}

// ObserveRateLimited 记录一次限流拒绝
func (m *Metrics) ObserveRateLimited(group string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(group).Inc()
}
