package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couriernet/go-courier/pkg/types"
)

// TestCollector_Counters 测试基础计数
func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.RecordSend(types.TransportTCP, 100, 10*time.Millisecond)
	c.RecordSend(types.TransportTCP, 200, 20*time.Millisecond)
	c.RecordSendFailure(types.TransportTCP)
	c.RecordReceive(types.TransportTCP, 50)
	c.RecordReceiveFailure(types.TransportTCP)
	c.SetActiveConnections(types.TransportTCP, 3)

	st := c.Stats(types.TransportTCP)
	assert.Equal(t, int64(2), st.MessagesSent)
	assert.Equal(t, int64(300), st.BytesSent)
	assert.Equal(t, int64(1), st.SendFailures)
	assert.Equal(t, int64(1), st.MessagesReceived)
	assert.Equal(t, int64(50), st.BytesReceived)
	assert.Equal(t, int64(1), st.ReceiveFailures)
	assert.Equal(t, int64(3), st.ActiveConnections)
	assert.Equal(t, int64(3), st.TotalMessages())
	assert.Equal(t, int64(350), st.TotalBytes())
}

// TestCollector_TransportIsolation 测试不同传输互不影响
func TestCollector_TransportIsolation(t *testing.T) {
	c := NewCollector()

	c.RecordSend(types.TransportTCP, 100, time.Millisecond)
	c.RecordSendFailure(types.TransportQUIC)

	assert.Equal(t, int64(1), c.Stats(types.TransportTCP).MessagesSent)
	assert.Zero(t, c.Stats(types.TransportTCP).SendFailures)
	assert.Equal(t, int64(1), c.Stats(types.TransportQUIC).SendFailures)

	all := c.AllStats()
	require.Len(t, all, 2)
}

// TestCollector_LatencyEWMA 测试延迟移动平均
func TestCollector_LatencyEWMA(t *testing.T) {
	c := NewCollector()

	c.RecordSend(types.TransportTCP, 1, 100*time.Millisecond)
	assert.InDelta(t, 100.0, c.Stats(types.TransportTCP).AverageLatencyMs, 0.001,
		"首个样本直接采用")

	// 后续样本按 (old*7+new)/8 收敛
	c.RecordSend(types.TransportTCP, 1, 20*time.Millisecond)
	assert.InDelta(t, (100.0*7+20.0)/8, c.Stats(types.TransportTCP).AverageLatencyMs, 0.001)
}

// TestCollector_ReliabilityEWMA 测试可靠性评分
func TestCollector_ReliabilityEWMA(t *testing.T) {
	c := NewCollector()

	assert.Equal(t, 1.0, c.Stats(types.TransportTCP).ReliabilityScore,
		"无样本时默认满分")

	c.RecordSend(types.TransportTCP, 1, time.Millisecond)
	assert.Equal(t, 1.0, c.Stats(types.TransportTCP).ReliabilityScore)

	c.RecordSendFailure(types.TransportTCP)
	got := c.Stats(types.TransportTCP).ReliabilityScore
	assert.Less(t, got, 1.0)
	assert.Greater(t, got, 0.0)

	// 连续失败趋向 0
	for i := 0; i < 100; i++ {
		c.RecordSendFailure(types.TransportTCP)
	}
	assert.Less(t, c.Stats(types.TransportTCP).ReliabilityScore, 0.01)
	assert.GreaterOrEqual(t, c.Stats(types.TransportTCP).ReliabilityScore, 0.0)
}

// TestCollector_Concurrent 测试并发记录
func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.RecordSend(types.TransportTCP, 10, time.Millisecond)
				c.RecordReceive(types.TransportQUIC, 5)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8000), c.Stats(types.TransportTCP).MessagesSent)
	assert.Equal(t, int64(80000), c.Stats(types.TransportTCP).BytesSent)
	assert.Equal(t, int64(8000), c.Stats(types.TransportQUIC).MessagesReceived)
}

// TestCollector_Reset 测试清零
func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.RecordSend(types.TransportTCP, 100, time.Millisecond)

	c.Reset()
	assert.Empty(t, c.AllStats())
	assert.Zero(t, c.Stats(types.TransportTCP).MessagesSent)
}

// TestPromReporter_Forwards 测试 Prometheus 导出器转发
func TestPromReporter_Forwards(t *testing.T) {
	inner := NewCollector()
	p := NewPromReporter(inner, "courier_test")

	p.RecordSend(types.TransportWebSocket, 64, 5*time.Millisecond)
	p.RecordSendFailure(types.TransportWebSocket)
	p.RecordReceive(types.TransportWebSocket, 32)
	p.SetActiveConnections(types.TransportWebSocket, 2)

	st := p.Stats(types.TransportWebSocket)
	assert.Equal(t, int64(1), st.MessagesSent)
	assert.Equal(t, int64(1), st.SendFailures)
	assert.Equal(t, int64(1), st.MessagesReceived)
	assert.Equal(t, int64(2), st.ActiveConnections)

	families, err := p.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
