package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/types"
)

// 确保实现了接口
var _ pkgif.MetricsReporter = (*PromReporter)(nil)

// PromReporter Prometheus 指标导出器
//
// 包装 Collector：数据路径同时写入内部计数器与 Prometheus 指标，
// 快照读取仍由 Collector 提供。Registry 由调用方挂载 promhttp。
type PromReporter struct {
	inner *Collector
	reg   *prometheus.Registry

	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	bytesSent        *prometheus.CounterVec
	bytesReceived    *prometheus.CounterVec
	sendFailures     *prometheus.CounterVec
	receiveFailures  *prometheus.CounterVec
	activeConns      *prometheus.GaugeVec
	sendLatency      *prometheus.HistogramVec
}

// NewPromReporter 创建 Prometheus 导出器
func NewPromReporter(inner *Collector, namespace string) *PromReporter {
	reg := prometheus.NewRegistry()
	labels := []string{"transport"}

	p := &PromReporter{
		inner: inner,
		reg:   reg,
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages delivered successfully, by transport.",
		}, labels),
		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages received, by transport.",
		}, labels),
		bytesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Payload bytes sent, by transport.",
		}, labels),
		bytesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Payload bytes received, by transport.",
		}, labels),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Failed send attempts, by transport.",
		}, labels),
		receiveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receive_failures_total",
			Help:      "Receive-side failures (decode errors, queue overflow), by transport.",
		}, labels),
		activeConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Currently active connections, by transport.",
		}, labels),
		sendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "send_latency_seconds",
			Help:      "Delivery latency of successful sends, by transport.",
			Buckets:   prometheus.DefBuckets,
		}, labels),
	}

	reg.MustRegister(
		p.messagesSent, p.messagesReceived,
		p.bytesSent, p.bytesReceived,
		p.sendFailures, p.receiveFailures,
		p.activeConns, p.sendLatency,
	)
	return p
}

// Registry 返回 Prometheus 注册表
func (p *PromReporter) Registry() *prometheus.Registry {
	return p.reg
}

// RecordSend 记录一次成功发送
func (p *PromReporter) RecordSend(t types.TransportType, bytes int64, latency time.Duration) {
	p.inner.RecordSend(t, bytes, latency)
	l := prometheus.Labels{"transport": string(t)}
	p.messagesSent.With(l).Inc()
	p.bytesSent.With(l).Add(float64(bytes))
	p.sendLatency.With(l).Observe(latency.Seconds())
}

// RecordSendFailure 记录一次发送失败
func (p *PromReporter) RecordSendFailure(t types.TransportType) {
	p.inner.RecordSendFailure(t)
	p.sendFailures.With(prometheus.Labels{"transport": string(t)}).Inc()
}

// RecordReceive 记录一次接收
func (p *PromReporter) RecordReceive(t types.TransportType, bytes int64) {
	p.inner.RecordReceive(t, bytes)
	l := prometheus.Labels{"transport": string(t)}
	p.messagesReceived.With(l).Inc()
	p.bytesReceived.With(l).Add(float64(bytes))
}

// RecordReceiveFailure 记录一次接收失败
func (p *PromReporter) RecordReceiveFailure(t types.TransportType) {
	p.inner.RecordReceiveFailure(t)
	p.receiveFailures.With(prometheus.Labels{"transport": string(t)}).Inc()
}

// SetActiveConnections 更新活跃连接数
func (p *PromReporter) SetActiveConnections(t types.TransportType, n int64) {
	p.inner.SetActiveConnections(t, n)
	p.activeConns.With(prometheus.Labels{"transport": string(t)}).Set(float64(n))
}

// Stats 返回指定传输的统计快照
func (p *PromReporter) Stats(t types.TransportType) types.TransportStats {
	return p.inner.Stats(t)
}

// AllStats 返回所有传输的统计快照
func (p *PromReporter) AllStats() map[types.TransportType]types.TransportStats {
	return p.inner.AllStats()
}
