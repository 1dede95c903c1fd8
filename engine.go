package courier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/internal/core/circuit"
	"github.com/couriernet/go-courier/internal/core/health"
	"github.com/couriernet/go-courier/internal/core/metrics"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/lib/log"
	"github.com/couriernet/go-courier/pkg/types"
)

var logger = log.Logger("courier")

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期常量
// ════════════════════════════════════════════════════════════════════════════

const (
	// startTimeout 启动超时（Fx App Start）
	startTimeout = 30 * time.Second

	// stopTimeout 停止超时（Fx App Stop）
	stopTimeout = 15 * time.Second
)

// State 引擎生命周期状态
type State int

const (
	// StateIdle 已创建未启动
	StateIdle State = iota
	// StateStarting 正在启动
	StateStarting
	// StateRunning 运行中
	StateRunning
	// StateStopping 正在停止
	StateStopping
	// StateStopped 已停止
	StateStopped
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              引擎门面
// ════════════════════════════════════════════════════════════════════════════

// Engine 投递引擎门面
//
// 持有 Fx 应用与全部内部组件，对外暴露投递、观测与生命周期 API。
// 可以多次 Start/Stop；Close 之后不可再启动。
type Engine struct {
	mu      sync.RWMutex
	state   State
	started bool
	closed  bool

	config *config.Config
	app    *fx.App

	// Fx 注入的组件
	delivery pkgif.DeliveryEngine
	bus      pkgif.EventBus
	backends pkgif.BackendRegistry
	breakers *circuit.Registry
	monitors *health.Registry
	prom     *metrics.PromReporter
}

// New 创建引擎
//
// 仅组装组件，不产生任何网络活动；调用 Start 后才开始监听。
func New(opts ...Option) (*Engine, error) {
	o := newOptions()
	if err := o.apply(opts...); err != nil {
		return nil, err
	}
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := o.setupLogging(); err != nil {
		return nil, err
	}

	e := &Engine{
		state:  StateIdle,
		config: o.config,
	}

	app, err := buildFxApp(o, e)
	if err != nil {
		return nil, err
	}
	e.app = app

	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("dependency graph: %w", err)
	}
	return e, nil
}

// Start 启动引擎
//
// 启动所有启用的传输后端（监听、接收循环）。幂等由调用方状态保证：
// 重复调用返回 ErrAlreadyStarted。
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if e.started {
		return ErrAlreadyStarted
	}

	e.state = StateStarting
	logger.Info("正在启动引擎", "transports", e.enabledTransports())

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := e.app.Start(startCtx); err != nil {
		e.state = StateIdle
		logger.Error("引擎启动失败", "error", err)
		return fmt.Errorf("start: %w", err)
	}

	e.state = StateRunning
	e.started = true
	logger.Info("引擎启动成功", "backends", e.delivery.Backends())
	return nil
}

// Stop 停止引擎
//
// 关闭所有监听器与连接，保留配置与组件；可再次 Start。
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if !e.started {
		return ErrNotStarted
	}

	e.state = StateStopping
	logger.Info("正在停止引擎")

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	err := e.app.Stop(stopCtx)
	e.state = StateStopped
	e.started = false
	if err != nil {
		logger.Error("停止引擎出错", "error", err)
		return fmt.Errorf("stop: %w", err)
	}
	logger.Info("引擎已停止")
	return nil
}

// Close 关闭引擎并释放所有资源
//
// 与 Stop 的区别：Close 之后不可再 Start。对已关闭的引擎调用返回 nil。
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	if e.started {
		e.state = StateStopping
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		if err := e.app.Stop(ctx); err != nil {
			logger.Warn("关闭时停止 Fx 应用失败", "error", err)
		}
		cancel()
	}

	e.state = StateStopped
	e.started = false
	e.closed = true
	logger.Info("引擎已关闭")
	return nil
}

// State 返回当前生命周期状态
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Config 返回引擎配置
func (e *Engine) Config() *config.Config {
	return e.config
}

// ════════════════════════════════════════════════════════════════════════════
//                              投递 API
// ════════════════════════════════════════════════════════════════════════════

// Send 投递一条信封到目标
//
// 按紧急程度选路，经熔断与重试保护；返回后端出具的投递回执。
func (e *Engine) Send(ctx context.Context, target types.TransportTarget, env *types.SecureEnvelope, urgency types.Urgency) (*types.DeliveryReceipt, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	return e.delivery.Send(ctx, target, env, urgency)
}

// Receive 排空所有后端的入站消息
//
// 非阻塞；无消息时返回 nil。
func (e *Engine) Receive() ([]types.IncomingMessage, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	return e.delivery.Receive(), nil
}

// BestTransport 返回当前对目标评分最高的传输类型
func (e *Engine) BestTransport(ctx context.Context, target types.TransportTarget, urgency types.Urgency) (types.TransportType, error) {
	if err := e.requireRunning(); err != nil {
		return "", err
	}
	return e.delivery.BestTransport(ctx, target, urgency)
}

// TestConnectivity 对所有可达后端做连通性检测
func (e *Engine) TestConnectivity(ctx context.Context, target types.TransportTarget) (map[types.TransportType]types.ConnectivityResult, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	return e.delivery.TestConnectivity(ctx, target), nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              观测 API
// ════════════════════════════════════════════════════════════════════════════

// Backends 返回已注册的传输类型列表
func (e *Engine) Backends() []types.TransportType {
	if e.delivery == nil {
		return nil
	}
	return e.delivery.Backends()
}

// Stats 返回各后端统计快照
func (e *Engine) Stats() map[types.TransportType]types.TransportStats {
	if e.delivery == nil {
		return nil
	}
	return e.delivery.Stats()
}

// ListenAddrs 返回各后端的实际监听地址
//
// 端口配置为 0 时可用于获取随机分配的端口。
func (e *Engine) ListenAddrs() map[types.TransportType]string {
	if e.backends == nil {
		return nil
	}
	out := make(map[types.TransportType]string)
	for _, b := range e.backends.All() {
		if l, ok := b.(interface{ ListenAddr() string }); ok {
			if addr := l.ListenAddr(); addr != "" {
				out[b.Type()] = addr
			}
		}
	}
	return out
}

// Health 返回各后端健康状态快照
func (e *Engine) Health() map[string]types.HealthStatus {
	if e.monitors == nil {
		return nil
	}
	return e.monitors.Statuses()
}

// Breakers 返回各后端熔断器快照
func (e *Engine) Breakers() map[string]types.BreakerSnapshot {
	if e.breakers == nil {
		return nil
	}
	return e.breakers.Snapshots()
}

// SubscribeCircuitEvents 订阅熔断状态变更事件
//
// 返回的订阅需由调用方 Close；晚到的订阅会补发最近一次变迁。
func (e *Engine) SubscribeCircuitEvents(opts ...pkgif.SubscribeOpt) (pkgif.CircuitSubscription, error) {
	return e.bus.SubscribeCircuit(opts...), nil
}

// SubscribeDeliveryEvents 订阅投递结果事件
func (e *Engine) SubscribeDeliveryEvents(opts ...pkgif.SubscribeOpt) (pkgif.DeliverySubscription, error) {
	return e.bus.SubscribeDelivery(opts...), nil
}

// PrometheusRegistry 返回指标注册表
//
// 未启用 Prometheus 时返回 nil；调用方可将其挂到自己的 /metrics。
func (e *Engine) PrometheusRegistry() *prometheus.Registry {
	if e.prom == nil {
		return nil
	}
	return e.prom.Registry()
}

// ════════════════════════════════════════════════════════════════════════════
//                              内部方法
// ════════════════════════════════════════════════════════════════════════════

// requireRunning 校验引擎处于运行状态
func (e *Engine) requireRunning() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrEngineClosed
	}
	if !e.started {
		return ErrNotStarted
	}
	return nil
}

// enabledTransports 返回配置启用的传输名称
func (e *Engine) enabledTransports() []string {
	var out []string
	if e.config.Transport.EnableTCP {
		out = append(out, "tcp")
	}
	if e.config.Transport.EnableQUIC {
		out = append(out, "quic")
	}
	if e.config.Transport.EnableWebSocket {
		out = append(out, "websocket")
	}
	return out
}
