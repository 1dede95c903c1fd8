package tcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/internal/core/metrics"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/types"
)

func testBackend(t *testing.T) *Backend {
	t.Helper()

	cfg := config.DefaultTransportConfig().TCP
	cfg.ListenAddr = "127.0.0.1"
	cfg.ListenPort = 0

	b, err := New(cfg, 2*time.Second, metrics.NewCollector())
	require.NoError(t, err)
	return b
}

func startedBackend(t *testing.T) *Backend {
	t.Helper()

	b := testBackend(t)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = b.Stop(ctx)
	})
	return b
}

func testEnvelope(id string) *types.SecureEnvelope {
	return &types.SecureEnvelope{
		MessageID: id,
		To:        "entity-b",
		From:      "entity-a",
		Payload:   []byte("ciphertext"),
		Signature: []byte("sig"),
	}
}

// TestBackend_Capabilities 测试能力描述
func TestBackend_Capabilities(t *testing.T) {
	b := testBackend(t)

	caps := b.Capabilities()
	assert.True(t, caps.Reliable)
	assert.True(t, caps.Bidirectional)
	assert.False(t, caps.RealTime)
	assert.True(t, caps.SupportsUrgency(types.UrgencyCritical))
	assert.True(t, caps.SupportsUrgency(types.UrgencyBackground))
	assert.Equal(t, types.TransportTCP, b.Type())
}

// TestBackend_NotRunning 测试未启动时的行为
func TestBackend_NotRunning(t *testing.T) {
	b := testBackend(t)

	_, err := b.Send(context.Background(),
		types.TransportTarget{Identifier: "x", Address: "127.0.0.1:1"},
		testEnvelope("m1"))
	assert.ErrorIs(t, err, pkgif.ErrNotRunning)

	assert.Nil(t, b.Receive())

	_, err = b.Estimate(context.Background(), types.TransportTarget{Address: "127.0.0.1:1"})
	assert.ErrorIs(t, err, pkgif.ErrNotRunning)
}

// TestBackend_StartStopIdempotent 测试启停幂等
func TestBackend_StartStopIdempotent(t *testing.T) {
	b := testBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Start(ctx))
	require.NoError(t, b.Start(ctx), "重复启动返回 nil")
	assert.NotEmpty(t, b.ListenAddr())

	require.NoError(t, b.Stop(ctx))
	require.NoError(t, b.Stop(ctx), "重复停止返回 nil")
}

// TestBackend_CanReach 测试可达性预判
func TestBackend_CanReach(t *testing.T) {
	b := testBackend(t)

	assert.False(t, b.CanReach(types.TransportTarget{Identifier: "x"}), "无地址")
	assert.False(t, b.CanReach(types.TransportTarget{Address: "no-port"}), "非法地址")
	assert.True(t, b.CanReach(types.TransportTarget{Address: "10.0.0.1:9000"}))
}

// TestBackend_SendReceive 测试两个后端之间的端到端收发
func TestBackend_SendReceive(t *testing.T) {
	a := startedBackend(t)
	z := startedBackend(t)

	env := testEnvelope("msg-e2e")
	target := types.TransportTarget{Identifier: "entity-b", Address: z.ListenAddr()}

	receipt, err := a.Send(context.Background(), target, env)
	require.NoError(t, err)
	assert.Equal(t, "msg-e2e", receipt.MessageID)
	assert.Equal(t, types.TransportTCP, receipt.TransportUsed)
	assert.Equal(t, types.ConfirmationDelivered, receipt.Confirmation)
	assert.Equal(t, types.EntityID("entity-b"), receipt.TargetReached)

	// 接收端入队
	require.Eventually(t, func() bool {
		return len(z.Receive()) > 0 || z.inbound.Len() > 0
	}, 2*time.Second, 10*time.Millisecond)
}

// TestBackend_SendOrder 测试单后端内 FIFO
func TestBackend_SendOrder(t *testing.T) {
	a := startedBackend(t)
	z := startedBackend(t)

	target := types.TransportTarget{Identifier: "entity-b", Address: z.ListenAddr()}
	for i := 0; i < 5; i++ {
		_, err := a.Send(context.Background(), target, testEnvelope(string(rune('0'+i))))
		require.NoError(t, err)
	}

	var got []types.IncomingMessage
	require.Eventually(t, func() bool {
		got = append(got, z.Receive()...)
		return len(got) == 5
	}, 2*time.Second, 10*time.Millisecond)

	for i, msg := range got {
		assert.Equal(t, string(rune('0'+i)), msg.Envelope.MessageID)
		assert.Equal(t, types.TransportTCP, msg.Transport)
	}
}

// TestBackend_OversizeRejectedBeforeIO 测试超限消息在 I/O 前被拒
func TestBackend_OversizeRejectedBeforeIO(t *testing.T) {
	cfg := config.DefaultTransportConfig().TCP
	cfg.ListenAddr = "127.0.0.1"
	cfg.MaxMessageSize = 256

	collector := metrics.NewCollector()
	b, err := New(cfg, time.Second, collector)
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	defer b.Stop(context.Background())

	env := testEnvelope("big")
	env.Payload = make([]byte, 1024)

	_, err = b.Send(context.Background(),
		types.TransportTarget{Identifier: "x", Address: "127.0.0.1:9"}, env)
	assert.ErrorIs(t, err, pkgif.ErrMessageTooLarge)

	// 无任何网络副作用
	st := collector.Stats(types.TransportTCP)
	assert.Zero(t, st.MessagesSent)
	assert.Zero(t, st.ActiveConnections)
}

// TestBackend_SendToUnreachable 测试拨号失败返回瞬时错误
func TestBackend_SendToUnreachable(t *testing.T) {
	b := startedBackend(t)

	_, err := b.Send(context.Background(),
		types.TransportTarget{Identifier: "x", Address: "127.0.0.1:1"},
		testEnvelope("m"))
	require.Error(t, err)
	assert.True(t, pkgif.IsTransient(err), "连接拒绝是瞬时错误")

	// 负缓存生效：CanReach 立即变 false
	assert.False(t, b.CanReach(types.TransportTarget{Address: "127.0.0.1:1"}))
}

// TestBackend_Estimate 测试质量评估
func TestBackend_Estimate(t *testing.T) {
	a := startedBackend(t)
	z := startedBackend(t)

	target := types.TransportTarget{Identifier: "entity-b", Address: z.ListenAddr()}

	// 冷启动：低置信度默认评估
	est, err := a.Estimate(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, est.Available)
	assert.Less(t, est.Confidence, 0.5)

	// 建立会话后：实测 RTT，高置信度
	_, err = a.Send(context.Background(), target, testEnvelope("warm"))
	require.NoError(t, err)

	est, err = a.Estimate(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, est.Available)
	assert.GreaterOrEqual(t, est.Confidence, 0.9)
	assert.Greater(t, est.Latency, time.Duration(0))
}

// TestBackend_TestConnectivity 测试连通性检测
func TestBackend_TestConnectivity(t *testing.T) {
	a := startedBackend(t)
	z := startedBackend(t)

	res := a.TestConnectivity(context.Background(),
		types.TransportTarget{Identifier: "entity-b", Address: z.ListenAddr()})
	assert.True(t, res.Connected)
	assert.Greater(t, res.RTT, time.Duration(0))
	assert.Greater(t, res.Quality, 0.0)

	res = a.TestConnectivity(context.Background(),
		types.TransportTarget{Identifier: "x", Address: "127.0.0.1:1"})
	assert.False(t, res.Connected)
	assert.NotEmpty(t, res.Error)
}
