package types

import "time"

// ============================================================================
//                              CircuitEvent - 熔断事件
// ============================================================================

// CircuitEventKind 熔断事件类型
type CircuitEventKind int

const (
	// CircuitOpened 熔断器打开（失败次数达到阈值）
	CircuitOpened CircuitEventKind = iota
	// CircuitHalfOpened 熔断器进入半开（复位超时后首次放行）
	CircuitHalfOpened
	// CircuitClosed 熔断器闭合（半开试探成功）
	CircuitClosed
	// CircuitRequestRejected 请求被快速拒绝（打开态放行检查失败）
	CircuitRequestRejected
	// CircuitExternalTrigger 外部强制打开（运维干预）
	CircuitExternalTrigger
)

// String 返回事件类型的字符串表示
func (k CircuitEventKind) String() string {
	switch k {
	case CircuitOpened:
		return "opened"
	case CircuitHalfOpened:
		return "half_opened"
	case CircuitClosed:
		return "closed"
	case CircuitRequestRejected:
		return "request_rejected"
	case CircuitExternalTrigger:
		return "external_trigger"
	default:
		return "unknown"
	}
}

// CircuitEvent 熔断器状态变化事件
//
// 每次状态转换与快速拒绝都会通过事件总线广播，
// 供监控、日志与上层路由组件订阅。
type CircuitEvent struct {
	// Resource 受保护资源标识（通常为传输类型名）
	Resource string

	// Kind 事件类型
	Kind CircuitEventKind

	// Reason 触发原因描述
	Reason string

	// FailureCount 触发时的失败计数
	FailureCount int

	// At 事件发生时间
	At time.Time
}

// ============================================================================
//                              DeliveryEvent - 投递事件
// ============================================================================

// DeliveryEvent 投递完成事件
//
// 引擎在每次投递尝试结束后发布，无论成功失败。
type DeliveryEvent struct {
	// MessageID 消息 ID
	MessageID string

	// Target 目标实体
	Target EntityID

	// Transport 使用的传输类型
	Transport TransportType

	// Urgency 消息紧急程度
	Urgency Urgency

	// Success 是否成功
	Success bool

	// Attempts 实际尝试次数（含重试）
	Attempts int

	// Elapsed 投递耗时
	Elapsed time.Duration

	// Error 失败原因（成功时为空）
	Error string
}
