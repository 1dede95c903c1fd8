package types

import (
	"errors"
	"time"
)

// ============================================================================
//                              EntityID - 实体标识
// ============================================================================

// EntityID 联邦网络中的实体标识
//
// 实体可以是人、AI 模型、工具或服务。
// 标识由外部身份系统分配，引擎只做路由使用。
type EntityID string

// String 返回实体标识的字符串表示
func (id EntityID) String() string {
	return string(id)
}

// Empty 检查实体标识是否为空
func (id EntityID) Empty() bool {
	return id == ""
}

// ShortString 返回截断的实体标识（用于日志显示）
func (id EntityID) ShortString() string {
	s := string(id)
	if len(s) <= 12 {
		return s
	}
	return s[:12]
}

// ============================================================================
//                              SecureEnvelope - 加密信封
// ============================================================================

// 信封校验错误
var (
	// ErrEnvelopeNoID 信封缺少消息 ID
	ErrEnvelopeNoID = errors.New("envelope missing message id")
	// ErrEnvelopeNoRecipient 信封缺少接收方
	ErrEnvelopeNoRecipient = errors.New("envelope missing recipient")
)

// SecureEnvelope 加密投递信封
//
// 信封由上游加密组件构造，Payload 和 Signature 对引擎完全不透明：
// 引擎不检查、不修改、不解释其内容，仅负责将其完整送达。
//
// 序列化使用 CBOR（见 internal/core/codec）。
type SecureEnvelope struct {
	// MessageID 消息唯一标识
	MessageID string `cbor:"1,keyasint" json:"message_id"`

	// To 接收方实体标识
	To EntityID `cbor:"2,keyasint" json:"to"`

	// From 发送方实体标识
	From EntityID `cbor:"3,keyasint" json:"from"`

	// Payload 加密载荷（不透明）
	Payload []byte `cbor:"4,keyasint" json:"payload"`

	// Signature 签名（不透明）
	Signature []byte `cbor:"5,keyasint" json:"signature"`

	// Security 安全级别标签
	Security SecurityLevel `cbor:"6,keyasint" json:"security"`

	// RoutingPath 路由路径（多跳场景下的中转实体，可为空）
	RoutingPath []EntityID `cbor:"7,keyasint,omitempty" json:"routing_path,omitempty"`

	// Metadata 附加元数据
	Metadata map[string]string `cbor:"8,keyasint,omitempty" json:"metadata,omitempty"`
}

// Validate 检查信封是否具备投递所需的最小字段
func (e *SecureEnvelope) Validate() error {
	if e.MessageID == "" {
		return ErrEnvelopeNoID
	}
	if e.To.Empty() {
		return ErrEnvelopeNoRecipient
	}
	return nil
}

// PayloadSize 返回载荷字节数
func (e *SecureEnvelope) PayloadSize() int64 {
	return int64(len(e.Payload))
}

// WireSize 估算信封序列化后的字节数
//
// 用于发送前的容量预检：结果为上界估算（载荷 + 签名 + 头部余量），
// 实际编码尺寸不会超过该值加上元数据本身的开销。
func (e *SecureEnvelope) WireSize() int64 {
	size := int64(len(e.Payload) + len(e.Signature))
	size += int64(len(e.MessageID) + len(e.To) + len(e.From))
	for _, hop := range e.RoutingPath {
		size += int64(len(hop))
	}
	for k, v := range e.Metadata {
		size += int64(len(k) + len(v))
	}
	// CBOR 字段头与整数键的固定余量
	return size + 64
}

// ============================================================================
//                              IncomingMessage - 入站消息
// ============================================================================

// IncomingMessage 传输后端收到的入站消息
type IncomingMessage struct {
	// Envelope 收到的信封
	Envelope SecureEnvelope

	// Transport 接收该消息的传输类型
	Transport TransportType

	// SourceAddress 来源地址（传输层视角）
	SourceAddress string

	// ReceivedAt 接收时间
	ReceivedAt time.Time
}
