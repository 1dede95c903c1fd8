package config

import "errors"

// ============================================================================
//                              EventBusConfig - 事件总线配置
// ============================================================================

// EventBusConfig 事件总线配置
type EventBusConfig struct {
	// SubscriberBuffer 订阅者通道的默认缓冲区大小
	//
	// 缓冲区满时事件被丢弃并计数，慢消费者不会阻塞发射路径。
	SubscriberBuffer int `json:"subscriber_buffer"`
}

// DefaultEventBusConfig 返回默认事件总线配置
func DefaultEventBusConfig() EventBusConfig {
	return EventBusConfig{
		SubscriberBuffer: 16,
	}
}

// Validate 验证事件总线配置
func (c EventBusConfig) Validate() error {
	if c.SubscriberBuffer <= 0 {
		return errors.New("event bus subscriber buffer must be positive")
	}
	return nil
}

// ============================================================================
//                              MetricsConfig - 指标配置
// ============================================================================

// MetricsConfig 指标上报配置
type MetricsConfig struct {
	// EnablePrometheus 是否注册 Prometheus 收集器
	EnablePrometheus bool `json:"enable_prometheus"`

	// Namespace Prometheus 指标命名空间前缀
	Namespace string `json:"namespace"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		EnablePrometheus: false,
		Namespace:        "courier",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.EnablePrometheus && c.Namespace == "" {
		return errors.New("metrics namespace must not be empty when prometheus is enabled")
	}
	return nil
}

// ============================================================================
//                              LogConfig - 日志配置
// ============================================================================

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别：debug / info / warn / error
	Level string `json:"level"`

	// JSON 是否输出 JSON 格式
	JSON bool `json:"json"`

	// File 日志文件路径（空表示 stderr）
	File string `json:"file,omitempty"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level: "info",
		JSON:  false,
	}
}
