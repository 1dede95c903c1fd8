package types

// ============================================================================
//                              TransportType - 传输类型
// ============================================================================

// TransportType 传输类型
type TransportType string

const (
	// TransportTCP 可靠流式传输（yamux 多路复用）
	TransportTCP TransportType = "tcp"
	// TransportQUIC 数据报安全传输（QUIC/TLS 1.3）
	TransportQUIC TransportType = "quic"
	// TransportWebSocket 全双工帧式传输（HTTP 兼容）
	TransportWebSocket TransportType = "websocket"
	// TransportMock 测试专用传输
	TransportMock TransportType = "mock"
)

// String 返回传输类型的字符串表示
func (t TransportType) String() string {
	return string(t)
}

// Valid 检查传输类型是否为已知类型
func (t TransportType) Valid() bool {
	switch t {
	case TransportTCP, TransportQUIC, TransportWebSocket, TransportMock:
		return true
	default:
		return false
	}
}

// ============================================================================
//                              Urgency - 紧急程度
// ============================================================================

// Urgency 消息紧急程度
//
// 选择器根据紧急程度调整评分权重：
//   - Critical/RealTime: 延迟优先
//   - Interactive: 均衡
//   - Background: 成本优先
type Urgency int

const (
	// UrgencyBackground 后台消息（成本优先，可容忍高延迟）
	UrgencyBackground Urgency = iota
	// UrgencyInteractive 交互消息（延迟与成本均衡）
	UrgencyInteractive
	// UrgencyRealTime 实时消息（延迟优先）
	UrgencyRealTime
	// UrgencyCritical 关键消息（延迟优先，最高可靠性要求）
	UrgencyCritical
)

// String 返回紧急程度的字符串表示
func (u Urgency) String() string {
	switch u {
	case UrgencyBackground:
		return "background"
	case UrgencyInteractive:
		return "interactive"
	case UrgencyRealTime:
		return "realtime"
	case UrgencyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              SecurityLevel - 安全级别
// ============================================================================

// SecurityLevel 信封安全级别
//
// 仅作为标签随信封传递，引擎不解释其含义。
type SecurityLevel int

const (
	// SecurityPublic 公开消息
	SecurityPublic SecurityLevel = iota
	// SecurityPrivate 私密消息
	SecurityPrivate
	// SecurityAuthenticated 已认证消息
	SecurityAuthenticated
)

// String 返回安全级别的字符串表示
func (s SecurityLevel) String() string {
	switch s {
	case SecurityPublic:
		return "public"
	case SecurityPrivate:
		return "private"
	case SecurityAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              ConfirmationLevel - 确认级别
// ============================================================================

// ConfirmationLevel 投递确认级别
type ConfirmationLevel int

const (
	// ConfirmationSent 已发出（传输层写入完成，无对端确认）
	ConfirmationSent ConfirmationLevel = iota
	// ConfirmationDelivered 已送达（收到对端确认）
	ConfirmationDelivered
	// ConfirmationRejected 已拒绝（对端明确拒收）
	ConfirmationRejected
)

// String 返回确认级别的字符串表示
func (c ConfirmationLevel) String() string {
	switch c {
	case ConfirmationSent:
		return "sent"
	case ConfirmationDelivered:
		return "delivered"
	case ConfirmationRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              BackendState - 后端生命周期状态
// ============================================================================

// BackendState 传输后端生命周期状态
type BackendState int

const (
	// BackendStopped 已停止（初始状态，可重新启动）
	BackendStopped BackendState = iota
	// BackendStarting 启动中
	BackendStarting
	// BackendRunning 运行中
	BackendRunning
	// BackendStopping 停止中
	BackendStopping
)

// String 返回后端状态的字符串表示
func (s BackendState) String() string {
	switch s {
	case BackendStopped:
		return "stopped"
	case BackendStarting:
		return "starting"
	case BackendRunning:
		return "running"
	case BackendStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              BreakerState - 熔断器状态
// ============================================================================

// BreakerState 熔断器状态
type BreakerState int

const (
	// BreakerClosed 闭合（正常放行，统计失败次数）
	BreakerClosed BreakerState = iota
	// BreakerOpen 打开（快速拒绝，等待复位超时）
	BreakerOpen
	// BreakerHalfOpen 半开（放行试探请求）
	BreakerHalfOpen
)

// String 返回熔断器状态的字符串表示
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}
