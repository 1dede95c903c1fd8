package types

import "time"

// ============================================================================
//                              HealthStatus - 健康状态
// ============================================================================

// HealthStatus 资源健康状态快照
//
// 由连接健康监视器维护：连续失败达到阈值判定为不健康，
// 一次成功即恢复健康。该状态仅供诊断参考，不直接阻断发送。
type HealthStatus struct {
	// Healthy 当前是否健康
	Healthy bool `json:"healthy"`

	// LastSuccess 最近一次成功时间（零值表示从未成功）
	LastSuccess time.Time `json:"last_success"`

	// LastFailure 最近一次失败时间（零值表示从未失败）
	LastFailure time.Time `json:"last_failure"`

	// ConsecutiveFailures 当前连续失败次数
	ConsecutiveFailures int `json:"consecutive_failures"`
}

// ============================================================================
//                              BreakerSnapshot - 熔断器快照
// ============================================================================

// BreakerSnapshot 熔断器状态快照
type BreakerSnapshot struct {
	// State 当前状态
	State BreakerState `json:"state"`

	// Failures 闭合态累计的连续失败次数
	Failures int `json:"failures"`

	// Successes 半开态累计的连续成功次数
	Successes int `json:"successes"`

	// OpenedAt 进入打开态的时间（非打开态为零值）
	OpenedAt time.Time `json:"opened_at"`
}
