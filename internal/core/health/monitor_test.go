package health

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couriernet/go-courier/config"
)

func testConfig() config.HealthConfig {
	return config.HealthConfig{FailureThreshold: 3}
}

// TestMonitor_StartsHealthy 测试初始健康
func TestMonitor_StartsHealthy(t *testing.T) {
	m := NewMonitor("tcp", testConfig(), clock.NewMock())
	assert.True(t, m.Healthy())

	st := m.Status()
	assert.True(t, st.Healthy)
	assert.Zero(t, st.ConsecutiveFailures)
	assert.True(t, st.LastSuccess.IsZero())
	assert.True(t, st.LastFailure.IsZero())
}

// TestMonitor_UnhealthyAtThreshold 测试连续失败达到阈值判定不健康
func TestMonitor_UnhealthyAtThreshold(t *testing.T) {
	m := NewMonitor("tcp", testConfig(), clock.NewMock())

	m.RecordFailure()
	m.RecordFailure()
	assert.True(t, m.Healthy(), "阈值未达")

	m.RecordFailure()
	assert.False(t, m.Healthy())
	assert.Equal(t, 3, m.Status().ConsecutiveFailures)
}

// TestMonitor_SingleSuccessRestores 测试一次成功恢复健康
func TestMonitor_SingleSuccessRestores(t *testing.T) {
	m := NewMonitor("tcp", testConfig(), clock.NewMock())

	for i := 0; i < 5; i++ {
		m.RecordFailure()
	}
	require.False(t, m.Healthy())

	m.RecordSuccess()
	assert.True(t, m.Healthy())
	assert.Zero(t, m.Status().ConsecutiveFailures)
}

// TestMonitor_Flapping 测试间歇失败不触发不健康
func TestMonitor_Flapping(t *testing.T) {
	m := NewMonitor("tcp", testConfig(), clock.NewMock())

	// 失败-失败-成功 循环：连续失败从未达到 3
	for i := 0; i < 10; i++ {
		m.RecordFailure()
		m.RecordFailure()
		m.RecordSuccess()
	}
	assert.True(t, m.Healthy())
}

// TestMonitor_Timestamps 测试时间戳记录
func TestMonitor_Timestamps(t *testing.T) {
	clk := clock.NewMock()
	m := NewMonitor("quic", testConfig(), clk)

	clk.Add(time.Minute)
	m.RecordFailure()
	failAt := clk.Now()

	clk.Add(time.Minute)
	m.RecordSuccess()
	okAt := clk.Now()

	st := m.Status()
	assert.Equal(t, failAt, st.LastFailure)
	assert.Equal(t, okAt, st.LastSuccess)
}

// TestRegistry_PerResource 测试注册表按资源隔离
func TestRegistry_PerResource(t *testing.T) {
	reg := NewRegistry(testConfig(), clock.NewMock())

	tcp := reg.Get("tcp")
	ws := reg.Get("websocket")
	assert.Same(t, tcp, reg.Get("tcp"))

	for i := 0; i < 3; i++ {
		tcp.RecordFailure()
	}
	assert.False(t, tcp.Healthy())
	assert.True(t, ws.Healthy())

	statuses := reg.Statuses()
	require.Len(t, statuses, 2)
	assert.False(t, statuses["tcp"].Healthy)
	assert.True(t, statuses["websocket"].Healthy)

	reg.Remove("tcp")
	assert.Len(t, reg.Statuses(), 1)
}
