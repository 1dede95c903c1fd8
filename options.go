package courier

import (
	"fmt"
	"log/slog"
	"os"

	"go.uber.org/fx"

	"github.com/couriernet/go-courier/config"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/lib/log"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 配置（预设 / WithConfig 提供，其余 Option 在其上覆盖）
	config *config.Config

	// 地址解析器（联邦身份层提供，可为空）
	resolver pkgif.AddressResolver

	// 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{
		config: config.NewConfig(),
	}
}

// apply 依序应用全部选项
func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

// setupLogging 按配置初始化进程日志
func (o *options) setupLogging() error {
	level := slog.LevelInfo
	switch o.config.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := os.Stderr
	if o.config.Log.File != "" {
		f, err := os.OpenFile(o.config.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = f
	}

	hopts := &slog.HandlerOptions{Level: level}
	if o.config.Log.JSON {
		log.SetDefault(log.NewJSON(out, hopts))
	} else {
		log.SetDefault(log.New(out, hopts))
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              基础选项
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置
//
// 后续选项在此配置之上覆盖。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("config must not be nil")
		}
		o.config = cfg
		return nil
	}
}

// WithServerPreset 使用服务器预设
//
// 启用全部三种传输与 Prometheus 指标，适合常驻投递节点。
func WithServerPreset() Option {
	return func(o *options) error {
		o.config = config.NewServerConfig()
		return nil
	}
}

// WithEdgePreset 使用边缘预设
//
// QUIC + WebSocket，放宽的熔断与重试参数，适合受限网络中的终端。
func WithEdgePreset() Option {
	return func(o *options) error {
		o.config = config.NewEdgeConfig()
		return nil
	}
}

// WithMinimalPreset 使用最小预设
//
// 仅 TCP，适合测试与嵌入式集成。
func WithMinimalPreset() Option {
	return func(o *options) error {
		o.config = config.NewMinimalConfig()
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              传输选项
// ════════════════════════════════════════════════════════════════════════════

// WithTransports 按类型启用传输
//
// 覆盖当前配置的启用开关，未列出的传输被禁用。
func WithTransports(transports ...string) Option {
	return func(o *options) error {
		o.config.Transport.EnableTCP = false
		o.config.Transport.EnableQUIC = false
		o.config.Transport.EnableWebSocket = false
		for _, t := range transports {
			switch t {
			case "tcp":
				o.config.Transport.EnableTCP = true
			case "quic":
				o.config.Transport.EnableQUIC = true
			case "websocket":
				o.config.Transport.EnableWebSocket = true
			default:
				return fmt.Errorf("unknown transport %q", t)
			}
		}
		return nil
	}
}

// WithListenAddr 设置所有启用传输的监听地址
func WithListenAddr(addr string) Option {
	return func(o *options) error {
		o.config.Transport.TCP.ListenAddr = addr
		o.config.Transport.QUIC.ListenAddr = addr
		o.config.Transport.WebSocket.ListenAddr = addr
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              集成选项
// ════════════════════════════════════════════════════════════════════════════

// WithResolver 设置地址解析器
//
// 目标缺少传输层地址时，引擎调用解析器补齐。
func WithResolver(r pkgif.AddressResolver) Option {
	return func(o *options) error {
		o.resolver = r
		return nil
	}
}

// WithPrometheus 启用 Prometheus 指标注册
func WithPrometheus(namespace string) Option {
	return func(o *options) error {
		o.config.Metrics.EnablePrometheus = true
		if namespace != "" {
			o.config.Metrics.Namespace = namespace
		}
		return nil
	}
}

// WithLogLevel 设置日志级别（debug / info / warn / error）
func WithLogLevel(level string) Option {
	return func(o *options) error {
		switch level {
		case "debug", "info", "warn", "error":
			o.config.Log.Level = level
			return nil
		default:
			return fmt.Errorf("unknown log level %q", level)
		}
	}
}

// WithLogFile 设置日志输出文件
func WithLogFile(path string) Option {
	return func(o *options) error {
		o.config.Log.File = path
		return nil
	}
}

// WithFxOptions 追加用户自定义 Fx 选项
//
// 面向扩展场景：注入额外模块或替换组件实现。
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
