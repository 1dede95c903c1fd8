package retry

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/couriernet/go-courier/config"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("retry",
		fx.Provide(ProvidePolicy),
	)
}

// policyInput 策略构造参数
type policyInput struct {
	fx.In

	Config *config.Config
	Clock  clock.Clock `optional:"true"`
}

// ProvidePolicy 提供重试策略
func ProvidePolicy(in policyInput) *Policy {
	return NewPolicy(in.Config.Retry, in.Clock)
}
