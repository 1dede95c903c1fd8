package selector

import (
	"go.uber.org/fx"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/internal/core/retry"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("selector",
		fx.Provide(ProvideEngine),
	)
}

// engineInput 引擎构造参数
type engineInput struct {
	fx.In

	Config   *config.Config
	Backends pkgif.BackendRegistry
	Breakers pkgif.BreakerRegistry
	Health   pkgif.HealthRegistry
	Policy   *retry.Policy
	Bus      pkgif.EventBus
	Resolver pkgif.AddressResolver `optional:"true"`
}

// engineResult 引擎构造输出
type engineResult struct {
	fx.Out

	Engine pkgif.DeliveryEngine
	Impl   *Engine
}

// ProvideEngine 提供投递引擎
//
// 投递事件通过事件总线的投递主题广播。
func ProvideEngine(in engineInput) engineResult {
	eng := New(in.Config.Selector, in.Backends, in.Breakers, in.Health, in.Policy, in.Resolver, in.Bus.PublishDelivery)
	return engineResult{Engine: eng, Impl: eng}
}
