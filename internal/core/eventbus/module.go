package eventbus

import (
	"go.uber.org/fx"

	"github.com/couriernet/go-courier/config"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideBus),
	)
}

// busResult 总线构造输出
type busResult struct {
	fx.Out

	Bus  pkgif.EventBus
	Impl *Bus
}

// ProvideBus 提供事件总线
func ProvideBus(cfg *config.Config) busResult {
	b := NewBus(cfg.EventBus)
	return busResult{Bus: b, Impl: b}
}
