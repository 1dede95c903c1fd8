package types

import "time"

// ============================================================================
//                              DeliveryReceipt - 投递回执
// ============================================================================

// DeliveryReceipt 单次投递的回执
//
// 回执在投递成功后生成，一旦返回即不可变。
// Confirmation 表示该回执的确认强度，由完成投递的后端决定。
type DeliveryReceipt struct {
	// MessageID 对应的消息 ID
	MessageID string `json:"message_id"`

	// TransportUsed 实际使用的传输类型
	TransportUsed TransportType `json:"transport_used"`

	// DeliveryTime 投递完成时间
	DeliveryTime time.Time `json:"delivery_time"`

	// TargetReached 实际送达的实体
	TargetReached EntityID `json:"target_reached"`

	// Confirmation 确认级别
	Confirmation ConfirmationLevel `json:"confirmation"`

	// Metadata 回执元数据（如远端地址、尝试次数）
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Confirmed 检查回执是否带有对端确认
func (r *DeliveryReceipt) Confirmed() bool {
	return r.Confirmation == ConfirmationDelivered
}

// ============================================================================
//                              ConnectivityResult - 连通性检测结果
// ============================================================================

// ConnectivityResult 主动连通性检测的结果
type ConnectivityResult struct {
	// Connected 是否连通
	Connected bool `json:"connected"`

	// RTT 往返时延（未测得时为 0）
	RTT time.Duration `json:"rtt"`

	// Error 失败原因（连通时为空）
	Error string `json:"error,omitempty"`

	// Quality 链路质量评分 [0,1]
	Quality float64 `json:"quality"`

	// Details 检测细节（如远端地址、协商参数）
	Details map[string]string `json:"details,omitempty"`
}
