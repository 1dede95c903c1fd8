package quic

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
	return fx.Module("transport/quic",
		fx.Provide(
			fx.Annotate(
				ProvideBackend,
				fx.As(new(pkgif.Backend)),
				fx.ResultTags(`group:"backends"`),
			),
		),
	)
}

// ProvideBackend 提供 QUIC 后端
func ProvideBackend(cfg *config.Config, metrics pkgif.MetricsReporter) *Backend {
	return New(cfg.Transport.QUIC, cfg.Transport.DialTimeout.Duration(), metrics)
}
