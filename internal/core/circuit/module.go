package circuit

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/couriernet/go-courier/config"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("circuit",
		fx.Provide(ProvideRegistry),
	)
}

// registryInput 注册表构造参数
type registryInput struct {
	fx.In

	Config *config.Config
	Bus    pkgif.EventBus
	Clock  clock.Clock `optional:"true"`
}

// registryResult 注册表构造输出
type registryResult struct {
	fx.Out

	Registry pkgif.BreakerRegistry
	Impl     *Registry
}

// ProvideRegistry 提供熔断器注册表
//
// 状态变迁通过事件总线的熔断主题广播。
func ProvideRegistry(in registryInput) registryResult {
	clk := in.Clock
	if clk == nil {
		clk = clock.New()
	}

	reg := NewRegistry(in.Config.Circuit, clk, in.Bus.PublishCircuit)
	return registryResult{Registry: reg, Impl: reg}
}
