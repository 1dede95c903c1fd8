package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfig 测试默认配置有效
func TestDefaultConfig(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Transport.EnableTCP)
	assert.True(t, cfg.Transport.EnableQUIC)
	assert.False(t, cfg.Transport.EnableWebSocket)
	assert.Equal(t, 3, cfg.Circuit.FailureThreshold)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 3, cfg.Health.FailureThreshold)
}

// TestPresets 测试预设配置均可通过验证
func TestPresets(t *testing.T) {
	for name, cfg := range map[string]*Config{
		"server":  NewServerConfig(),
		"edge":    NewEdgeConfig(),
		"minimal": NewMinimalConfig(),
	} {
		require.NoError(t, cfg.Validate(), "preset %s", name)
	}

	assert.True(t, NewServerConfig().Metrics.EnablePrometheus)
	assert.False(t, NewEdgeConfig().Transport.EnableTCP)
	assert.False(t, NewMinimalConfig().Transport.EnableQUIC)
}

// TestValidateRejectsInvalid 测试非法配置被拒绝
func TestValidateRejectsInvalid(t *testing.T) {
	cfg := NewConfig()
	cfg.Transport.EnableTCP = false
	cfg.Transport.EnableQUIC = false
	cfg.Transport.EnableWebSocket = false
	assert.Error(t, cfg.Validate(), "至少启用一种传输")

	cfg = NewConfig()
	cfg.Circuit.FailureThreshold = 0
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.Retry.MaxBackoff = Duration(time.Millisecond)
	cfg.Retry.InitialBackoff = Duration(time.Second)
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.Transport.TCP.ListenPort = 70000
	assert.Error(t, cfg.Validate())
}

// TestFromJSON 测试 JSON 加载与 Duration 字符串解析
func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"transport": {
			"enable_tcp": true,
			"tcp": {"listen_port": 9100, "connection_timeout": "3s"}
		},
		"circuit": {"reset_timeout": "10s"},
		"retry": {"initial_backoff": "50ms"}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Transport.TCP.ListenPort)
	assert.Equal(t, 3*time.Second, cfg.Transport.TCP.ConnectionTimeout.Duration())
	assert.Equal(t, 10*time.Second, cfg.Circuit.ResetTimeout.Duration())
	assert.Equal(t, 50*time.Millisecond, cfg.Retry.InitialBackoff.Duration())

	// 未出现的字段保持默认值
	assert.Equal(t, 3, cfg.Circuit.FailureThreshold)
}

// TestFromMapSurface 测试外部 map 配置表面
func TestFromMapSurface(t *testing.T) {
	cfg := DefaultTransportConfig()

	cfg.TCP.FromMap(map[string]any{
		"listen_port":            float64(8200), // JSON 解码产生 float64
		"connection_timeout_ms":  float64(1500),
		"max_message_size":       float64(1024),
		"max_concurrent_streams": 64,
		"unknown_key":            "ignored",
	})

	assert.Equal(t, 8200, cfg.TCP.ListenPort)
	assert.Equal(t, 1500*time.Millisecond, cfg.TCP.ConnectionTimeout.Duration())
	assert.Equal(t, int64(1024), cfg.TCP.MaxMessageSize)
	assert.Equal(t, 64, cfg.TCP.MaxConcurrentStreams)

	// 缺失键保持当前值
	before := cfg.QUIC.MaxIdleTimeout
	cfg.QUIC.FromMap(map[string]any{"listen_port": 9300})
	assert.Equal(t, 9300, cfg.QUIC.ListenPort)
	assert.Equal(t, before, cfg.QUIC.MaxIdleTimeout)
}
