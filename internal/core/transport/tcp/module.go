package tcp

import (
	"go.uber.org/fx"

	"github.com/couriernet/go-courier/config"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Module 返回 Fx 模块
//
// 后端以 group:"backends" 提供，由 transport.Module 统一注册与启停。
func Module() fx.Option {
	return fx.Module("transport/tcp",
		fx.Provide(
			fx.Annotate(
				ProvideBackend,
				fx.As(new(pkgif.Backend)),
				fx.ResultTags(`group:"backends"`),
			),
		),
	)
}

// ProvideBackend 提供 TCP 后端
func ProvideBackend(cfg *config.Config, metrics pkgif.MetricsReporter) (*Backend, error) {
	return New(cfg.Transport.TCP, cfg.Transport.DialTimeout.Duration(), metrics)
}
