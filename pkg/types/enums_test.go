package types

import "testing"

// ============================================================================
//                              枚举测试
// ============================================================================

// TestTransportType_String 测试传输类型字符串
func TestTransportType_String(t *testing.T) {
	cases := []struct {
		tt   TransportType
		want string
	}{
		{TransportTCP, "tcp"},
		{TransportQUIC, "quic"},
		{TransportWebSocket, "websocket"},
		{TransportMock, "mock"},
	}

	for _, c := range cases {
		if got := c.tt.String(); got != c.want {
			t.Errorf("TransportType.String() = %q, want %q", got, c.want)
		}
	}
}

// TestTransportType_Valid 测试传输类型合法性检查
func TestTransportType_Valid(t *testing.T) {
	if !TransportTCP.Valid() {
		t.Error("TransportTCP should be valid")
	}
	if TransportType("carrier-pigeon").Valid() {
		t.Error("unknown transport type should be invalid")
	}
}

// TestUrgency_String 测试紧急程度字符串
func TestUrgency_String(t *testing.T) {
	cases := []struct {
		u    Urgency
		want string
	}{
		{UrgencyBackground, "background"},
		{UrgencyInteractive, "interactive"},
		{UrgencyRealTime, "realtime"},
		{UrgencyCritical, "critical"},
		{Urgency(99), "unknown"},
	}

	for _, c := range cases {
		if got := c.u.String(); got != c.want {
			t.Errorf("Urgency.String() = %q, want %q", got, c.want)
		}
	}
}

// TestUrgency_Ordering 测试紧急程度排序语义
//
// 选择器依赖数值顺序：Background < Interactive < RealTime < Critical。
func TestUrgency_Ordering(t *testing.T) {
	if !(UrgencyBackground < UrgencyInteractive &&
		UrgencyInteractive < UrgencyRealTime &&
		UrgencyRealTime < UrgencyCritical) {
		t.Error("urgency ordering broken")
	}
}

// TestConfirmationLevel_String 测试确认级别字符串
func TestConfirmationLevel_String(t *testing.T) {
	if ConfirmationSent.String() != "sent" {
		t.Errorf("ConfirmationSent.String() = %q", ConfirmationSent.String())
	}
	if ConfirmationDelivered.String() != "delivered" {
		t.Errorf("ConfirmationDelivered.String() = %q", ConfirmationDelivered.String())
	}
	if ConfirmationRejected.String() != "rejected" {
		t.Errorf("ConfirmationRejected.String() = %q", ConfirmationRejected.String())
	}
}

// TestBreakerState_String 测试熔断器状态字符串
func TestBreakerState_String(t *testing.T) {
	cases := []struct {
		s    BreakerState
		want string
	}{
		{BreakerClosed, "closed"},
		{BreakerOpen, "open"},
		{BreakerHalfOpen, "half_open"},
	}

	for _, c := range cases {
		if got := c.s.String(); got != c.want {
			t.Errorf("BreakerState.String() = %q, want %q", got, c.want)
		}
	}
}

// TestBackendState_String 测试后端状态字符串
func TestBackendState_String(t *testing.T) {
	if BackendStopped.String() != "stopped" {
		t.Errorf("BackendStopped.String() = %q", BackendStopped.String())
	}
	if BackendRunning.String() != "running" {
		t.Errorf("BackendRunning.String() = %q", BackendRunning.String())
	}
}
