package config

import (
	"errors"
	"time"
)

// ============================================================================
//                              CircuitBreakerConfig - 熔断器配置
// ============================================================================

// CircuitBreakerConfig 熔断器配置
//
// 每个受保护资源（通常为一个传输后端）持有独立的熔断器实例，
// 所有实例共享本配置。
type CircuitBreakerConfig struct {
	// FailureThreshold 闭合态连续失败多少次后打开
	FailureThreshold int `json:"failure_threshold"`

	// ResetTimeout 打开态持续多久后允许半开试探
	ResetTimeout Duration `json:"reset_timeout"`

	// HalfOpenMaxCalls 半开态需要多少次连续成功才闭合
	HalfOpenMaxCalls int `json:"half_open_max_calls"`
}

// DefaultCircuitBreakerConfig 返回默认熔断器配置
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,                          // 连续失败 3 次打开
		ResetTimeout:     Duration(30 * time.Second), // 30 秒后允许试探
		HalfOpenMaxCalls: 2,                          // 2 次试探成功后闭合
	}
}

// Validate 验证熔断器配置
func (c CircuitBreakerConfig) Validate() error {
	if c.FailureThreshold <= 0 {
		return errors.New("circuit breaker failure threshold must be positive")
	}
	if c.ResetTimeout <= 0 {
		return errors.New("circuit breaker reset timeout must be positive")
	}
	if c.HalfOpenMaxCalls <= 0 {
		return errors.New("circuit breaker half-open max calls must be positive")
	}
	return nil
}

// ============================================================================
//                              RetryConfig - 重试策略配置
// ============================================================================

// RetryConfig 重试策略配置
//
// 退避序列：backoff(n+1) = min(backoff(n) * multiplier, max)，
// 每次睡眠附加 [0, backoff*jitter) 的随机抖动，避免重试风暴。
type RetryConfig struct {
	// MaxAttempts 最大尝试次数（含首次）
	MaxAttempts int `json:"max_attempts"`

	// InitialBackoff 首次重试前的退避时长
	InitialBackoff Duration `json:"initial_backoff"`

	// MaxBackoff 退避时长上限
	MaxBackoff Duration `json:"max_backoff"`

	// BackoffMultiplier 退避倍增系数
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// JitterFactor 抖动系数，收敛到 [0, 0.5]
	JitterFactor float64 `json:"jitter_factor"`
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    Duration(100 * time.Millisecond),
		MaxBackoff:        Duration(5 * time.Second),
		BackoffMultiplier: 2.0,
		JitterFactor:      0.2,
	}
}

// Validate 验证重试配置
func (c RetryConfig) Validate() error {
	if c.MaxAttempts <= 0 {
		return errors.New("retry max attempts must be positive")
	}
	if c.InitialBackoff <= 0 {
		return errors.New("retry initial backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return errors.New("retry max backoff must be >= initial backoff")
	}
	if c.BackoffMultiplier < 1 {
		return errors.New("retry backoff multiplier must be >= 1")
	}
	if c.JitterFactor < 0 {
		return errors.New("retry jitter factor must be >= 0")
	}
	return nil
}

// ============================================================================
//                              HealthConfig - 健康监控配置
// ============================================================================

// HealthConfig 连接健康监控配置
//
// 健康状态仅供诊断参考，不阻断发送路径。
type HealthConfig struct {
	// FailureThreshold 连续失败多少次后判定不健康
	FailureThreshold int `json:"failure_threshold"`
}

// DefaultHealthConfig 返回默认健康监控配置
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		FailureThreshold: 3,
	}
}

// Validate 验证健康监控配置
func (c HealthConfig) Validate() error {
	if c.FailureThreshold <= 0 {
		return errors.New("health failure threshold must be positive")
	}
	return nil
}
