package config

import "time"

// ============================================================================
//                              预设配置
// ============================================================================

// NewServerConfig 创建服务器预设配置
//
// 适用场景：常驻投递节点、路由器节点
// 特点：
//   - 启用全部三种传输
//   - 较大的消息上限与并发流数
//   - 启用 Prometheus 指标
func NewServerConfig() *Config {
	cfg := NewConfig()

	cfg.Transport.EnableTCP = true
	cfg.Transport.EnableQUIC = true
	cfg.Transport.EnableWebSocket = true
	cfg.Transport.TCP.MaxConcurrentStreams = 1024
	cfg.Transport.QUIC.MaxIncomingStreams = 4096

	cfg.Metrics.EnablePrometheus = true

	return cfg
}

// NewEdgeConfig 创建边缘预设配置
//
// 适用场景：受限网络中的终端实体（办公网、移动网络）
// 特点：
//   - 启用 QUIC 与 WebSocket（HTTP 友好，穿透性好）
//   - 禁用 TCP 监听
//   - 更保守的重试与熔断参数
func NewEdgeConfig() *Config {
	cfg := NewConfig()

	cfg.Transport.EnableTCP = false
	cfg.Transport.EnableQUIC = true
	cfg.Transport.EnableWebSocket = true

	// 边缘网络抖动大：放宽熔断阈值，缩短复位等待
	cfg.Circuit.FailureThreshold = 5
	cfg.Circuit.ResetTimeout = Duration(15 * time.Second)
	cfg.Retry.MaxAttempts = 4

	return cfg
}

// NewMinimalConfig 创建最小预设配置
//
// 适用场景：测试、嵌入式集成
// 特点：
//   - 仅启用 TCP
//   - 不注册 Prometheus
func NewMinimalConfig() *Config {
	cfg := NewConfig()

	cfg.Transport.EnableTCP = true
	cfg.Transport.EnableQUIC = false
	cfg.Transport.EnableWebSocket = false

	cfg.Metrics.EnablePrometheus = false

	return cfg
}
