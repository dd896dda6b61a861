package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deptinbox/backend/internal/domain"
)

const namespace = "deptinbox"

// Metrics 监控指标，注册在独立的 Registry 上
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 留言指标
	MessagesSubmitted   prometheus.Counter
	StatusTransitions   *prometheus.CounterVec
	MessagesDeleted     prometheus.Counter
	PersistenceFailures *prometheus.CounterVec
	OverflowLength      prometheus.Gauge

	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		MessagesSubmitted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_submitted_total",
				Help:      "Total number of messages accepted by intake",
			},
		),

		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "message_status_transitions_total",
				Help:      "Total number of status updates by target status",
			},
			[]string{"status"},
		),

		MessagesDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_deleted_total",
				Help:      "Total number of messages deleted",
			},
		),

		PersistenceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_errors_total",
				Help:      "Total number of persistence failures by operation",
			},
			[]string{"operation"},
		),

		OverflowLength: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "overflow_queue_length",
				Help:      "Number of entries held in the overflow queue",
			},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "panics_total",
				Help:      "Total number of recovered panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSubmitted 记录一次成功的留言提交
func (m *Metrics) RecordSubmitted() {
	m.MessagesSubmitted.Inc()
}

// RecordStatusTransition 记录状态变更
func (m *Metrics) RecordStatusTransition(status domain.Status) {
	m.StatusTransitions.WithLabelValues(string(status)).Inc()
}

// RecordDeleted 记录留言删除
func (m *Metrics) RecordDeleted() {
	m.MessagesDeleted.Inc()
}

// RecordPersistenceError 记录持久化失败
func (m *Metrics) RecordPersistenceError(operation string) {
	m.PersistenceFailures.WithLabelValues(operation).Inc()
}

// SetOverflowLength 更新溢出队列长度
func (m *Metrics) SetOverflowLength(n int) {
	m.OverflowLength.Set(float64(n))
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// Registry 返回底层注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
