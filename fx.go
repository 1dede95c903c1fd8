package courier

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/internal/core/circuit"
	"github.com/couriernet/go-courier/internal/core/eventbus"
	"github.com/couriernet/go-courier/internal/core/health"
	"github.com/couriernet/go-courier/internal/core/metrics"
	"github.com/couriernet/go-courier/internal/core/retry"
	"github.com/couriernet/go-courier/internal/core/selector"
	"github.com/couriernet/go-courier/internal/core/transport"
	"github.com/couriernet/go-courier/internal/core/transport/quic"
	"github.com/couriernet/go-courier/internal/core/transport/tcp"
	"github.com/couriernet/go-courier/internal/core/transport/websocket"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 组装所有内部模块，采用条件加载策略：
//   - 核心模块：必须加载（EventBus, Circuit, Retry, Health, Metrics,
//     Transport Manager, Selector）
//   - 传输后端：根据配置加载（TCP / QUIC / WebSocket）
//   - 扩展模块：用户自定义 Fx 选项
func buildFxApp(o *options, e *Engine) (*fx.App, error) {
	if !hasAnyTransport(o.config) {
		return nil, fmt.Errorf("at least one transport must be enabled (tcp, quic or websocket)")
	}

	modules := []fx.Option{
		// 配置注入
		fx.Supply(o.config),

		// 基础组件（必须）
		eventbus.Module(), // 事件总线
		circuit.Module(),  // 熔断器注册表
		retry.Module(),    // 重试策略
		health.Module(),   // 健康监视器注册表
		metrics.Module(),  // 指标收集
	}

	// 地址解析器（可选，由联邦身份层提供）
	if o.resolver != nil {
		modules = append(modules, fx.Supply(
			fx.Annotate(o.resolver, fx.As(new(pkgif.AddressResolver))),
		))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 传输后端（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	if o.config.Transport.EnableTCP {
		modules = append(modules, tcp.Module())
	}
	if o.config.Transport.EnableQUIC {
		modules = append(modules, quic.Module())
	}
	if o.config.Transport.EnableWebSocket {
		modules = append(modules, websocket.Module())
	}

	// 后端管理器 + 投递引擎
	modules = append(modules,
		transport.Module(),
		selector.Module(),
	)

	// 用户扩展
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	// 组件注入
	modules = append(modules, fx.Invoke(injectEngineComponents(e)))

	// 禁用 Fx 自身日志输出（避免干扰用户日志）
	modules = append(modules,
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	return fx.New(modules...), nil
}

// hasAnyTransport 检查是否启用任何传输协议
func hasAnyTransport(cfg *config.Config) bool {
	return cfg.Transport.EnableTCP ||
		cfg.Transport.EnableQUIC ||
		cfg.Transport.EnableWebSocket
}

// engineInjectParams 引擎组件注入参数
type engineInjectParams struct {
	fx.In

	// 核心组件（必需）
	Delivery pkgif.DeliveryEngine
	Bus      pkgif.EventBus
	Backends pkgif.BackendRegistry
	Breakers *circuit.Registry
	Monitors *health.Registry

	// 可选组件
	Prom *metrics.PromReporter `optional:"true"`
}

// injectEngineComponents 创建引擎组件注入函数
func injectEngineComponents(e *Engine) interface{} {
	return func(params engineInjectParams) {
		e.delivery = params.Delivery
		e.bus = params.Bus
		e.backends = params.Backends
		e.breakers = params.Breakers
		e.monitors = params.Monitors
		e.prom = params.Prom
	}
}
