// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 加载和保存配置
//   - 支持预设配置（server/edge/minimal）
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Transport.EnableQUIC = true
//	cfg.Circuit.FailureThreshold = 5
//
//	// 使用预设配置
//	cfg := config.NewServerConfig()
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

import (
	"encoding/json"
	"fmt"
)

// Config 是 Courier 的完整配置结构
//
// 该结构体嵌入了所有组件的子配置，提供统一的配置接口。
// 配置按照功能模块组织：
//   - Transport: 传输后端（TCP/QUIC/WebSocket）
//   - Circuit: 熔断器
//   - Retry: 重试策略
//   - Health: 连接健康监控
//   - Selector: 传输选择器
//   - EventBus: 事件总线
//   - Metrics: 指标上报
//   - Log: 日志
type Config struct {
	// Transport 传输层配置
	Transport TransportConfig `json:"transport"`

	// Circuit 熔断器配置
	Circuit CircuitBreakerConfig `json:"circuit"`

	// Retry 重试策略配置
	Retry RetryConfig `json:"retry"`

	// Health 连接健康监控配置
	Health HealthConfig `json:"health"`

	// Selector 传输选择器配置
	Selector SelectorConfig `json:"selector"`

	// EventBus 事件总线配置
	EventBus EventBusConfig `json:"event_bus"`

	// Metrics 指标上报配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
//
// 返回的配置使用所有组件的默认值，适用于大多数场景。
// 可以通过修改字段或使用 Option 函数来定制配置。
func NewConfig() *Config {
	return &Config{
		Transport: DefaultTransportConfig(),
		Circuit:   DefaultCircuitBreakerConfig(),
		Retry:     DefaultRetryConfig(),
		Health:    DefaultHealthConfig(),
		Selector:  DefaultSelectorConfig(),
		EventBus:  DefaultEventBusConfig(),
		Metrics:   DefaultMetricsConfig(),
		Log:       DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置是否有效，如果发现无效配置则返回错误。
// 建议在使用配置前调用此方法。
func (c *Config) Validate() error {
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Circuit.Validate(); err != nil {
		return err
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	if err := c.Health.Validate(); err != nil {
		return err
	}
	if err := c.Selector.Validate(); err != nil {
		return err
	}
	if err := c.EventBus.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return nil
}

// FromJSON 从 JSON 数据加载配置
//
// 未出现的字段保持默认值。
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ToJSON 将配置导出为 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
