package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/internal/core/circuit"
	"github.com/couriernet/go-courier/internal/core/health"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/types"
)

// stubBackend 仅实现注册所需的最小行为
type stubBackend struct {
	t types.TransportType
}

func (s *stubBackend) Type() types.TransportType                  { return s.t }
func (s *stubBackend) Capabilities() types.TransportCapabilities  { return types.TransportCapabilities{} }
func (s *stubBackend) CanReach(types.TransportTarget) bool        { return false }
func (s *stubBackend) Receive() []types.IncomingMessage           { return nil }
func (s *stubBackend) Stats() types.TransportStats                { return types.TransportStats{} }
func (s *stubBackend) Start(context.Context) error                { return nil }
func (s *stubBackend) Stop(context.Context) error                 { return nil }

func (s *stubBackend) Estimate(context.Context, types.TransportTarget) (types.TransportEstimate, error) {
	return types.Unavailable(), nil
}

func (s *stubBackend) Send(context.Context, types.TransportTarget, *types.SecureEnvelope) (*types.DeliveryReceipt, error) {
	return nil, pkgif.ErrNotRunning
}

func (s *stubBackend) TestConnectivity(context.Context, types.TransportTarget) types.ConnectivityResult {
	return types.ConnectivityResult{}
}

func newTestManager() *Manager {
	clk := clock.NewMock()
	breakers := circuit.NewRegistry(config.DefaultCircuitBreakerConfig(), clk, nil)
	monitors := health.NewRegistry(config.DefaultHealthConfig(), clk)
	return NewManager(breakers, monitors)
}

// TestManager_RegisterDeregister 测试注册与注销
func TestManager_RegisterDeregister(t *testing.T) {
	m := newTestManager()

	require.NoError(t, m.Register(&stubBackend{t: types.TransportTCP}))
	require.NoError(t, m.Register(&stubBackend{t: types.TransportQUIC}))

	b, ok := m.Backend(types.TransportTCP)
	require.True(t, ok)
	assert.Equal(t, types.TransportTCP, b.Type())

	assert.Len(t, m.All(), 2)
	assert.ElementsMatch(t,
		[]types.TransportType{types.TransportTCP, types.TransportQUIC},
		m.Types())

	require.NoError(t, m.Deregister(types.TransportTCP))
	_, ok = m.Backend(types.TransportTCP)
	assert.False(t, ok)
	assert.Len(t, m.All(), 1)
}

// TestManager_DuplicateRejected 测试重复注册被拒
func TestManager_DuplicateRejected(t *testing.T) {
	m := newTestManager()

	require.NoError(t, m.Register(&stubBackend{t: types.TransportTCP}))
	assert.Error(t, m.Register(&stubBackend{t: types.TransportTCP}))
}

// TestManager_InvalidInput 测试非法输入
func TestManager_InvalidInput(t *testing.T) {
	m := newTestManager()

	assert.Error(t, m.Register(nil))
	assert.Error(t, m.Register(&stubBackend{t: "carrier-pigeon"}))
	assert.Error(t, m.Deregister(types.TransportQUIC), "未注册的类型")
}

// TestRunState_Lifecycle 测试生命周期状态机
func TestRunState_Lifecycle(t *testing.T) {
	var s RunState

	assert.Equal(t, types.BackendStopped, s.State())
	assert.ErrorIs(t, s.CheckRunning(), pkgif.ErrNotRunning)

	require.True(t, s.BeginStart())
	assert.False(t, s.BeginStart(), "启动中不可重复启动")
	assert.Equal(t, types.BackendStarting, s.State())

	s.FinishStart()
	assert.True(t, s.Running())
	assert.NoError(t, s.CheckRunning())

	require.True(t, s.BeginStop())
	assert.False(t, s.BeginStop())
	assert.Equal(t, types.BackendStopping, s.State())

	s.FinishStop()
	assert.Equal(t, types.BackendStopped, s.State())
	assert.True(t, s.BeginStart(), "停止后可重新启动")
}

// TestRunState_AbortStart 测试启动失败回退
func TestRunState_AbortStart(t *testing.T) {
	var s RunState

	require.True(t, s.BeginStart())
	s.AbortStart()
	assert.Equal(t, types.BackendStopped, s.State())
	assert.True(t, s.BeginStart())
}

// TestInboundQueue_FIFO 测试入队出队顺序
func TestInboundQueue_FIFO(t *testing.T) {
	q := NewInboundQueue(8)
	assert.Nil(t, q.Drain(), "空队列返回 nil")

	for i := 0; i < 3; i++ {
		q.Push(types.IncomingMessage{
			Envelope:   types.SecureEnvelope{MessageID: string(rune('a' + i))},
			ReceivedAt: time.Now(),
		})
	}
	assert.Equal(t, 3, q.Len())

	msgs := q.Drain()
	require.Len(t, msgs, 3)
	assert.Equal(t, "a", msgs[0].Envelope.MessageID)
	assert.Equal(t, "c", msgs[2].Envelope.MessageID)
	assert.Zero(t, q.Len())
	assert.Nil(t, q.Drain())
}

// TestInboundQueue_DropOldest 测试满队列挤占最老消息
func TestInboundQueue_DropOldest(t *testing.T) {
	q := NewInboundQueue(2)

	assert.True(t, q.Push(types.IncomingMessage{Envelope: types.SecureEnvelope{MessageID: "1"}}))
	assert.True(t, q.Push(types.IncomingMessage{Envelope: types.SecureEnvelope{MessageID: "2"}}))
	assert.False(t, q.Push(types.IncomingMessage{Envelope: types.SecureEnvelope{MessageID: "3"}}))

	assert.Equal(t, int64(1), q.Dropped())

	msgs := q.Drain()
	require.Len(t, msgs, 2)
	assert.Equal(t, "2", msgs[0].Envelope.MessageID)
	assert.Equal(t, "3", msgs[1].Envelope.MessageID)
}

// TestInboundQueue_Concurrent 测试并发入队
func TestInboundQueue_Concurrent(t *testing.T) {
	q := NewInboundQueue(10000)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(types.IncomingMessage{})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, q.Len())
	assert.Len(t, q.Drain(), 800)
}
