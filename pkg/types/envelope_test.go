package types

import (
	"errors"
	"testing"
)

// ============================================================================
//                              SecureEnvelope 测试
// ============================================================================

// TestSecureEnvelope_Validate 测试信封校验
func TestSecureEnvelope_Validate(t *testing.T) {
	env := &SecureEnvelope{
		MessageID: NewMessageID(),
		To:        EntityID("alice@example.org"),
		From:      EntityID("bob@example.org"),
		Payload:   []byte("ciphertext"),
	}

	if err := env.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
}

// TestSecureEnvelope_ValidateMissingID 测试缺少消息 ID
func TestSecureEnvelope_ValidateMissingID(t *testing.T) {
	env := &SecureEnvelope{To: EntityID("alice@example.org")}

	err := env.Validate()
	if !errors.Is(err, ErrEnvelopeNoID) {
		t.Errorf("Validate() error = %v, want ErrEnvelopeNoID", err)
	}
}

// TestSecureEnvelope_ValidateMissingRecipient 测试缺少接收方
func TestSecureEnvelope_ValidateMissingRecipient(t *testing.T) {
	env := &SecureEnvelope{MessageID: "m-1"}

	err := env.Validate()
	if !errors.Is(err, ErrEnvelopeNoRecipient) {
		t.Errorf("Validate() error = %v, want ErrEnvelopeNoRecipient", err)
	}
}

// TestSecureEnvelope_WireSize 测试序列化尺寸估算
func TestSecureEnvelope_WireSize(t *testing.T) {
	env := &SecureEnvelope{
		MessageID: "m-1",
		To:        EntityID("alice"),
		Payload:   make([]byte, 1024),
		Signature: make([]byte, 64),
	}

	size := env.WireSize()
	if size < 1024+64 {
		t.Errorf("WireSize() = %d, should cover payload + signature", size)
	}
}

// TestEntityID_ShortString 测试实体标识截断
func TestEntityID_ShortString(t *testing.T) {
	short := EntityID("alice")
	if short.ShortString() != "alice" {
		t.Errorf("ShortString() = %q, want %q", short.ShortString(), "alice")
	}

	long := EntityID("very-long-entity-identifier@example.org")
	if len(long.ShortString()) != 12 {
		t.Errorf("ShortString() length = %d, want 12", len(long.ShortString()))
	}
}

// TestTransportCapabilities_SupportsUrgency 测试紧急程度支持检查
func TestTransportCapabilities_SupportsUrgency(t *testing.T) {
	caps := TransportCapabilities{
		SupportedUrgencies: []Urgency{UrgencyInteractive, UrgencyBackground},
	}

	if !caps.SupportsUrgency(UrgencyInteractive) {
		t.Error("should support interactive")
	}
	if caps.SupportsUrgency(UrgencyCritical) {
		t.Error("should not support critical")
	}
}

// TestTransportCapabilities_FitsMessage 测试容量检查
func TestTransportCapabilities_FitsMessage(t *testing.T) {
	caps := TransportCapabilities{MaxMessageSize: 1024}

	if !caps.FitsMessage(1024) {
		t.Error("message at limit should fit")
	}
	if caps.FitsMessage(1025) {
		t.Error("oversize message should not fit")
	}

	// 0 表示无限制
	unlimited := TransportCapabilities{MaxMessageSize: 0}
	if !unlimited.FitsMessage(1 << 40) {
		t.Error("unlimited capability should fit any size")
	}
}

// TestTransportEstimate_Clamp 测试评估值收敛
func TestTransportEstimate_Clamp(t *testing.T) {
	e := TransportEstimate{Reliability: 1.5, Confidence: -0.2}.Clamp()

	if e.Reliability != 1 {
		t.Errorf("Reliability = %v, want 1", e.Reliability)
	}
	if e.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", e.Confidence)
	}
}
