package config

import (
	"errors"
	"fmt"
	"time"
)

// TransportConfig 传输层配置
//
// 配置引擎支持的传输后端及其参数：
//   - TCP: 可靠流式传输（yamux 多路复用）
//   - QUIC: 基于 UDP 的现代传输协议（TLS 1.3）
//   - WebSocket: 全双工帧式传输（HTTP 兼容）
type TransportConfig struct {
	// TCP 配置
	EnableTCP bool      `json:"enable_tcp"`
	TCP       TCPConfig `json:"tcp,omitempty"`

	// QUIC 配置
	EnableQUIC bool       `json:"enable_quic"`
	QUIC       QUICConfig `json:"quic,omitempty"`

	// WebSocket 配置
	EnableWebSocket bool            `json:"enable_websocket"`
	WebSocket       WebSocketConfig `json:"websocket,omitempty"`

	// 通用配置
	DialTimeout Duration `json:"dial_timeout"` // 拨号超时
}

// TCPConfig TCP 传输配置
type TCPConfig struct {
	// ListenAddr 监听地址（host 部分）
	ListenAddr string `json:"listen_addr"`

	// ListenPort 监听端口（0 表示随机分配）
	ListenPort int `json:"listen_port"`

	// ConnectionTimeout 连接超时
	ConnectionTimeout Duration `json:"connection_timeout"`

	// MaxMessageSize 单条消息最大字节数
	MaxMessageSize int64 `json:"max_message_size"`

	// MaxConcurrentStreams 单连接最大并发流数
	MaxConcurrentStreams int `json:"max_concurrent_streams"`

	// KeepAlive 是否启用 TCP KeepAlive
	KeepAlive bool `json:"keep_alive"`

	// KeepAlivePeriod KeepAlive 周期
	KeepAlivePeriod Duration `json:"keep_alive_period"`

	// NoDelay 是否禁用 Nagle 算法
	NoDelay bool `json:"no_delay"`
}

// QUICConfig QUIC 传输配置
type QUICConfig struct {
	// ListenAddr 监听地址（host 部分）
	ListenAddr string `json:"listen_addr"`

	// ListenPort 监听端口（UDP，0 表示随机分配）
	ListenPort int `json:"listen_port"`

	// ConnectionTimeout 连接超时
	ConnectionTimeout Duration `json:"connection_timeout"`

	// MaxMessageSize 单条消息最大字节数
	MaxMessageSize int64 `json:"max_message_size"`

	// MaxIdleTimeout 最大空闲超时
	MaxIdleTimeout Duration `json:"max_idle_timeout"`

	// MaxIncomingStreams 最大并发入站流数量
	MaxIncomingStreams int64 `json:"max_incoming_streams"`

	// KeepAlivePeriod KeepAlive 周期
	KeepAlivePeriod Duration `json:"keep_alive_period"`
}

// WebSocketConfig WebSocket 传输配置
type WebSocketConfig struct {
	// ListenAddr 监听地址（host 部分）
	ListenAddr string `json:"listen_addr"`

	// ListenPort 监听端口（0 表示随机分配）
	ListenPort int `json:"listen_port"`

	// Path HTTP 升级路径
	Path string `json:"path"`

	// ConnectionTimeout 连接（含握手）超时
	ConnectionTimeout Duration `json:"connection_timeout"`

	// MaxMessageSize 单条消息最大字节数
	MaxMessageSize int64 `json:"max_message_size"`

	// ReadBufferSize 读缓冲区大小
	ReadBufferSize int `json:"read_buffer_size,omitempty"`

	// WriteBufferSize 写缓冲区大小
	WriteBufferSize int `json:"write_buffer_size,omitempty"`

	// EnableCompression 是否启用 permessage-deflate 压缩
	EnableCompression bool `json:"enable_compression"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		// ════════════════════════════════════════════════════════════════════
		// TCP 配置（兼容性好，默认启用）
		// ════════════════════════════════════════════════════════════════════
		EnableTCP: true,
		TCP: TCPConfig{
			ListenAddr:           "0.0.0.0",
			ListenPort:           0,                          // 随机端口
			ConnectionTimeout:    Duration(10 * time.Second), // 连接超时：10 秒
			MaxMessageSize:       16 * 1024 * 1024,           // 单条消息上限：16 MB
			MaxConcurrentStreams: 256,                        // 并发流：256
			KeepAlive:            true,
			KeepAlivePeriod:      Duration(15 * time.Second),
			NoDelay:              true, // 禁用 Nagle 算法：减少延迟
		},

		// ════════════════════════════════════════════════════════════════════
		// QUIC 配置（低延迟，传输层自带加密）
		// ════════════════════════════════════════════════════════════════════
		EnableQUIC: true,
		QUIC: QUICConfig{
			ListenAddr:         "0.0.0.0",
			ListenPort:         0,
			ConnectionTimeout:  Duration(10 * time.Second),
			MaxMessageSize:     16 * 1024 * 1024,
			MaxIdleTimeout:     Duration(30 * time.Second), // 空闲超时：30 秒
			MaxIncomingStreams: 1024,                       // 最大并发流：1024
			KeepAlivePeriod:    Duration(15 * time.Second),
		},

		// ════════════════════════════════════════════════════════════════════
		// WebSocket 配置（HTTP 友好，穿越受限网络）
		// ════════════════════════════════════════════════════════════════════
		EnableWebSocket: false, // 默认禁用：仅受限网络场景需要
		WebSocket: WebSocketConfig{
			ListenAddr:        "0.0.0.0",
			ListenPort:        0,
			Path:              "/courier",
			ConnectionTimeout: Duration(10 * time.Second),
			MaxMessageSize:    8 * 1024 * 1024, // WebSocket 单帧上限：8 MB
			ReadBufferSize:    4096,
			WriteBufferSize:   4096,
			EnableCompression: false, // 禁用压缩：避免 CPU 开销
		},

		DialTimeout: Duration(30 * time.Second), // 拨号超时：30 秒
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	// 至少启用一种传输协议
	if !c.EnableTCP && !c.EnableQUIC && !c.EnableWebSocket {
		return errors.New("at least one transport must be enabled")
	}

	// 验证 TCP 配置
	if c.EnableTCP {
		if c.TCP.ConnectionTimeout <= 0 {
			return errors.New("TCP connection timeout must be positive")
		}
		if c.TCP.MaxMessageSize <= 0 {
			return errors.New("TCP max message size must be positive")
		}
		if c.TCP.MaxConcurrentStreams <= 0 {
			return errors.New("TCP max concurrent streams must be positive")
		}
		if err := validatePort(c.TCP.ListenPort); err != nil {
			return fmt.Errorf("TCP: %w", err)
		}
	}

	// 验证 QUIC 配置
	if c.EnableQUIC {
		if c.QUIC.ConnectionTimeout <= 0 {
			return errors.New("QUIC connection timeout must be positive")
		}
		if c.QUIC.MaxMessageSize <= 0 {
			return errors.New("QUIC max message size must be positive")
		}
		if c.QUIC.MaxIdleTimeout <= 0 {
			return errors.New("QUIC max idle timeout must be positive")
		}
		if c.QUIC.MaxIncomingStreams <= 0 {
			return errors.New("QUIC max incoming streams must be positive")
		}
		if err := validatePort(c.QUIC.ListenPort); err != nil {
			return fmt.Errorf("QUIC: %w", err)
		}
	}

	// 验证 WebSocket 配置
	if c.EnableWebSocket {
		if c.WebSocket.ConnectionTimeout <= 0 {
			return errors.New("WebSocket connection timeout must be positive")
		}
		if c.WebSocket.MaxMessageSize <= 0 {
			return errors.New("WebSocket max message size must be positive")
		}
		if c.WebSocket.Path == "" {
			return errors.New("WebSocket path must not be empty")
		}
		if err := validatePort(c.WebSocket.ListenPort); err != nil {
			return fmt.Errorf("WebSocket: %w", err)
		}
	}

	// 验证拨号超时
	if c.DialTimeout <= 0 {
		return errors.New("dial timeout must be positive")
	}

	return nil
}

// validatePort 检查端口范围
func validatePort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}
	return nil
}

// ============================================================================
//                              外部 Map 配置表面
// ============================================================================
//
// 上游系统以 map[string]any 下发后端配置。
// 识别的键见各 FromMap 实现；未知键忽略，缺失键保持当前值。

// FromMap 从外部配置映射填充 TCP 配置
func (c *TCPConfig) FromMap(m map[string]any) {
	if v, ok := mapString(m, "listen_addr"); ok {
		c.ListenAddr = v
	}
	if v, ok := mapInt(m, "listen_port"); ok {
		c.ListenPort = v
	}
	if v, ok := mapDurationMs(m, "connection_timeout_ms"); ok {
		c.ConnectionTimeout = v
	}
	if v, ok := mapInt64(m, "max_message_size"); ok {
		c.MaxMessageSize = v
	}
	if v, ok := mapInt(m, "max_concurrent_streams"); ok {
		c.MaxConcurrentStreams = v
	}
}

// FromMap 从外部配置映射填充 QUIC 配置
func (c *QUICConfig) FromMap(m map[string]any) {
	if v, ok := mapString(m, "listen_addr"); ok {
		c.ListenAddr = v
	}
	if v, ok := mapInt(m, "listen_port"); ok {
		c.ListenPort = v
	}
	if v, ok := mapDurationMs(m, "connection_timeout_ms"); ok {
		c.ConnectionTimeout = v
	}
	if v, ok := mapInt64(m, "max_message_size"); ok {
		c.MaxMessageSize = v
	}
	if v, ok := mapInt64(m, "max_incoming_streams"); ok {
		c.MaxIncomingStreams = v
	}
	if v, ok := mapDurationMs(m, "max_idle_timeout_ms"); ok {
		c.MaxIdleTimeout = v
	}
}

// FromMap 从外部配置映射填充 WebSocket 配置
func (c *WebSocketConfig) FromMap(m map[string]any) {
	if v, ok := mapString(m, "listen_addr"); ok {
		c.ListenAddr = v
	}
	if v, ok := mapInt(m, "listen_port"); ok {
		c.ListenPort = v
	}
	if v, ok := mapString(m, "path"); ok {
		c.Path = v
	}
	if v, ok := mapDurationMs(m, "connection_timeout_ms"); ok {
		c.ConnectionTimeout = v
	}
	if v, ok := mapInt64(m, "max_message_size"); ok {
		c.MaxMessageSize = v
	}
}

// mapString 提取字符串值
func mapString(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// mapInt 提取整数值（兼容 JSON 解码出的 float64）
func mapInt(m map[string]any, key string) (int, bool) {
	v, ok := mapInt64(m, key)
	return int(v), ok
}

// mapInt64 提取 64 位整数值
func mapInt64(m map[string]any, key string) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// mapDurationMs 提取毫秒时长值
func mapDurationMs(m map[string]any, key string) (Duration, bool) {
	v, ok := mapInt64(m, key)
	if !ok {
		return 0, false
	}
	return Duration(time.Duration(v) * time.Millisecond), true
}
