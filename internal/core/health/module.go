package health

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
	return fx.Module("health",
		fx.Provide(ProvideRegistry),
	)
}

// registryInput 注册表构造参数
type registryInput struct {
	fx.In

	Config *config.Config
	Clock  clock.Clock `optional:"true"`
}

// registryResult 注册表构造输出
type registryResult struct {
	fx.Out

	Registry pkgif.HealthRegistry
	Impl     *Registry
}

// ProvideRegistry 提供健康监视器注册表
func ProvideRegistry(in registryInput) registryResult {
	reg := NewRegistry(in.Config.Health, in.Clock)
	return registryResult{Registry: reg, Impl: reg}
}
