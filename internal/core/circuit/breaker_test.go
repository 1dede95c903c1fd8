package circuit

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/pkg/types"
)

// testConfig 阈值 3、复位 30s、半开 2 次成功闭合
func testConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     config.Duration(30 * time.Second),
		HalfOpenMaxCalls: 2,
	}
}

// TestBreaker_OpensAtThreshold 测试失败阈值触发打开
func TestBreaker_OpensAtThreshold(t *testing.T) {
	clk := clock.NewMock()
	b := New("tcp", testConfig(), clk, nil)

	assert.True(t, b.Allow())
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, types.BreakerClosed, b.State())
	assert.True(t, b.Allow(), "阈值未达，仍然放行")

	b.RecordFailure()
	assert.Equal(t, types.BreakerOpen, b.State())
	assert.False(t, b.Allow(), "打开后快速拒绝")
}

// TestBreaker_HalfOpenAfterTimeout 测试复位超时后进入半开
func TestBreaker_HalfOpenAfterTimeout(t *testing.T) {
	clk := clock.NewMock()
	b := New("tcp", testConfig(), clk, nil)

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	require.Equal(t, types.BreakerOpen, b.State())

	// 未到复位超时：仍然拒绝
	clk.Add(29 * time.Second)
	assert.False(t, b.Allow())

	// 超时已过：下一次 Allow 转入半开并放行试探
	clk.Add(time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, types.BreakerHalfOpen, b.State())
}

// TestBreaker_HalfOpenRecovery 测试半开恢复：连续成功闭合，失败计数清零
func TestBreaker_HalfOpenRecovery(t *testing.T) {
	clk := clock.NewMock()
	b := New("tcp", testConfig(), clk, nil)

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	clk.Add(30 * time.Second)

	// 第一次试探成功
	require.True(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, types.BreakerHalfOpen, b.State())

	// 第二次试探成功 → 闭合
	require.True(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, types.BreakerClosed, b.State())

	snap := b.Snapshot()
	assert.Equal(t, 0, snap.Failures, "闭合后失败计数清零")
}

// TestBreaker_HalfOpenSingleStrikeReopens 测试半开单次失败立即重新打开
func TestBreaker_HalfOpenSingleStrikeReopens(t *testing.T) {
	clk := clock.NewMock()
	b := New("tcp", testConfig(), clk, nil)

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	firstOpen := b.Snapshot().OpenedAt

	clk.Add(30 * time.Second)
	require.True(t, b.Allow())

	clk.Add(time.Second)
	b.RecordFailure()

	assert.Equal(t, types.BreakerOpen, b.State())
	assert.True(t, b.Snapshot().OpenedAt.After(firstOpen), "重新打开刷新 openedAt")
	assert.False(t, b.Allow(), "新一轮复位等待开始")
}

// TestBreaker_HalfOpenSerialProbe 测试半开串行试探：在途请求未结束不放行下一个
func TestBreaker_HalfOpenSerialProbe(t *testing.T) {
	clk := clock.NewMock()
	b := New("tcp", testConfig(), clk, nil)

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	clk.Add(30 * time.Second)

	require.True(t, b.Allow())
	assert.False(t, b.Allow(), "在途试探未结束")

	b.RecordSuccess()
	assert.True(t, b.Allow(), "试探结束后放行下一个")
}

// TestBreaker_ManualReset 测试手动复位
func TestBreaker_ManualReset(t *testing.T) {
	clk := clock.NewMock()
	b := New("tcp", testConfig(), clk, nil)

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	require.Equal(t, types.BreakerOpen, b.State())

	b.Reset()
	assert.Equal(t, types.BreakerClosed, b.State())
	assert.Equal(t, 0, b.Snapshot().Failures)
	assert.True(t, b.Allow())
}

// TestBreaker_ForceOpen 测试外部强制打开
func TestBreaker_ForceOpen(t *testing.T) {
	clk := clock.NewMock()

	var events []types.CircuitEvent
	b := New("quic", testConfig(), clk, func(evt types.CircuitEvent) {
		events = append(events, evt)
	})

	b.ForceOpen("operator maintenance")
	assert.Equal(t, types.BreakerOpen, b.State())
	assert.False(t, b.Allow())

	require.NotEmpty(t, events)
	assert.Equal(t, types.CircuitExternalTrigger, events[0].Kind)
	assert.Equal(t, "operator maintenance", events[0].Reason)
	assert.Equal(t, "quic", events[0].Resource)
}

// TestBreaker_Events 测试状态转换事件序列
func TestBreaker_Events(t *testing.T) {
	clk := clock.NewMock()

	var kinds []types.CircuitEventKind
	b := New("tcp", testConfig(), clk, func(evt types.CircuitEvent) {
		kinds = append(kinds, evt.Kind)
	})

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	b.Allow() // 打开态拒绝
	clk.Add(30 * time.Second)
	b.Allow() // 半开
	b.RecordSuccess()
	b.Allow()
	b.RecordSuccess() // 闭合

	assert.Equal(t, []types.CircuitEventKind{
		types.CircuitOpened,
		types.CircuitRequestRejected,
		types.CircuitHalfOpened,
		types.CircuitClosed,
	}, kinds)
}

// TestBreaker_SuccessResetsClosedFailures 测试闭合态成功清零失败计数
func TestBreaker_SuccessResetsClosedFailures(t *testing.T) {
	clk := clock.NewMock()
	b := New("tcp", testConfig(), clk, nil)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	// 成功打断了连续失败，2+2 不触发阈值 3
	assert.Equal(t, types.BreakerClosed, b.State())
}

// TestRegistry_PerResourceIsolation 测试注册表按资源隔离
func TestRegistry_PerResourceIsolation(t *testing.T) {
	clk := clock.NewMock()
	reg := NewRegistry(testConfig(), clk, nil)

	tcp := reg.Get("tcp")
	quic := reg.Get("quic")
	assert.NotSame(t, tcp, quic)
	assert.Same(t, tcp, reg.Get("tcp"), "同一资源返回同一实例")

	for i := 0; i < 3; i++ {
		tcp.RecordFailure()
	}
	assert.Equal(t, types.BreakerOpen, tcp.State())
	assert.Equal(t, types.BreakerClosed, quic.State(), "其他资源不受影响")

	snaps := reg.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, types.BreakerOpen, snaps["tcp"].State)
	assert.Equal(t, types.BreakerClosed, snaps["quic"].State)

	reg.Remove("tcp")
	assert.Len(t, reg.Snapshots(), 1)
}
