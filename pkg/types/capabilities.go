package types

// ============================================================================
//                              TransportCapabilities - 传输能力
// ============================================================================

// TransportCapabilities 传输后端的静态能力描述
//
// 能力由后端实现决定，创建后不会随运行时状态变化。
// 运行时质量（延迟、可靠性）由 TransportEstimate 单独描述。
type TransportCapabilities struct {
	// MaxMessageSize 单条消息最大字节数（0 表示无限制）
	MaxMessageSize int64 `json:"max_message_size"`

	// Reliable 是否提供可靠送达（传输层确认）
	Reliable bool `json:"reliable"`

	// RealTime 是否适合实时消息（低延迟优化）
	RealTime bool `json:"real_time"`

	// Broadcast 是否支持一对多广播
	Broadcast bool `json:"broadcast"`

	// Bidirectional 是否支持双向通信
	Bidirectional bool `json:"bidirectional"`

	// Encrypted 传输层是否自带加密
	Encrypted bool `json:"encrypted"`

	// NetworkSpanning 是否可穿越受限网络（HTTP 友好）
	NetworkSpanning bool `json:"network_spanning"`

	// SupportedUrgencies 支持的紧急程度列表
	SupportedUrgencies []Urgency `json:"supported_urgencies"`

	// Features 扩展特性标签（如 "compression", "multiplexing"）
	Features []string `json:"features,omitempty"`
}

// SupportsUrgency 检查是否支持指定紧急程度
func (c TransportCapabilities) SupportsUrgency(u Urgency) bool {
	for _, s := range c.SupportedUrgencies {
		if s == u {
			return true
		}
	}
	return false
}

// HasFeature 检查是否具备指定扩展特性
func (c TransportCapabilities) HasFeature(name string) bool {
	for _, f := range c.Features {
		if f == name {
			return true
		}
	}
	return false
}

// FitsMessage 检查指定字节数的消息是否在容量限制内
func (c TransportCapabilities) FitsMessage(size int64) bool {
	return c.MaxMessageSize <= 0 || size <= c.MaxMessageSize
}
