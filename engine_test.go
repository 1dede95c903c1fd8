package courier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/pkg/types"
)

// TestNew_DefaultConfig 测试默认配置创建
func TestNew_DefaultConfig(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)
	defer engine.Close()

	assert.Equal(t, StateIdle, engine.State())
	assert.NotNil(t, engine.Config())
}

// TestNew_InvalidOptions 测试非法选项
func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithTransports("carrier-pigeon"))
	assert.Error(t, err)

	_, err = New(WithLogLevel("verbose"))
	assert.Error(t, err)

	_, err = New(WithConfig(nil))
	assert.Error(t, err)

	// 所有传输被禁用
	_, err = New(WithTransports())
	assert.Error(t, err)
}

// TestNew_InvalidConfig 测试配置验证前置
func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Circuit.FailureThreshold = -1

	_, err := New(WithConfig(cfg))
	assert.Error(t, err)
}

// TestEngine_Lifecycle 测试生命周期状态机
func TestEngine_Lifecycle(t *testing.T) {
	engine, err := New(WithMinimalPreset(), WithListenAddr("127.0.0.1"))
	require.NoError(t, err)
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 未启动：投递 API 拒绝
	_, err = engine.Receive()
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, engine.Start(ctx))
	assert.Equal(t, StateRunning, engine.State())
	assert.ErrorIs(t, engine.Start(ctx), ErrAlreadyStarted)

	assert.Contains(t, engine.Backends(), types.TransportTCP)

	require.NoError(t, engine.Stop(ctx))
	assert.Equal(t, StateStopped, engine.State())
	assert.ErrorIs(t, engine.Stop(ctx), ErrNotStarted)

	// Close 之后不可再启动
	require.NoError(t, engine.Close())
	assert.ErrorIs(t, engine.Start(ctx), ErrEngineClosed)
	assert.NoError(t, engine.Close(), "重复 Close 幂等")
}

// TestEngine_Observability 测试观测接口
func TestEngine_Observability(t *testing.T) {
	engine, err := New(
		WithMinimalPreset(),
		WithListenAddr("127.0.0.1"),
		WithPrometheus("courier_test"),
	)
	require.NoError(t, err)
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, engine.Start(ctx))

	assert.NotNil(t, engine.PrometheusRegistry())
	assert.Contains(t, engine.Breakers(), "tcp")
	assert.Contains(t, engine.Health(), "tcp")
	assert.Len(t, engine.Stats(), 1)

	sub, err := engine.SubscribeCircuitEvents()
	require.NoError(t, err)
	defer sub.Close()

	t.Log("✅ 观测接口可用")
}

// TestEngine_PresetOptions 测试预设选项
func TestEngine_PresetOptions(t *testing.T) {
	engine, err := New(WithEdgePreset())
	require.NoError(t, err)
	defer engine.Close()

	cfg := engine.Config()
	assert.False(t, cfg.Transport.EnableTCP)
	assert.True(t, cfg.Transport.EnableQUIC)
	assert.True(t, cfg.Transport.EnableWebSocket)
	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)
}
