package transport

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Module 返回 Fx 模块
//
// 各后端模块以 group:"backends" 提供实例；本模块收集它们注册进
// 管理器，并挂接统一的启停生命周期。
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideManager),
		fx.Invoke(registerBackends),
	)
}

// managerInput 管理器构造参数
type managerInput struct {
	fx.In

	Breakers pkgif.BreakerRegistry
	Health   pkgif.HealthRegistry
}

// managerResult 管理器构造输出
type managerResult struct {
	fx.Out

	Registry pkgif.BackendRegistry
	Impl     *Manager
}

// ProvideManager 提供后端管理器
func ProvideManager(in managerInput) managerResult {
	m := NewManager(in.Breakers, in.Health)
	return managerResult{Registry: m, Impl: m}
}

// backendsInput 后端收集参数
type backendsInput struct {
	fx.In

	Manager  *Manager
	Backends []pkgif.Backend `group:"backends"`
}

// registerBackends 注册全部后端并挂接生命周期
//
// OnStart 失败时回滚已启动的后端，避免半启动状态。
func registerBackends(in backendsInput, lc fx.Lifecycle) error {
	for _, b := range in.Backends {
		if err := in.Manager.Register(b); err != nil {
			return err
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			started := make([]pkgif.Backend, 0, len(in.Backends))
			for _, b := range in.Backends {
				if err := b.Start(ctx); err != nil {
					for _, s := range started {
						_ = s.Stop(ctx)
					}
					return err
				}
				started = append(started, b)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var errs error
			for _, b := range in.Backends {
				errs = multierr.Append(errs, b.Stop(ctx))
			}
			return errs
		},
	})
	return nil
}
