package websocket

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
	return fx.Module("transport/websocket",
		fx.Provide(
			fx.Annotate(
				ProvideBackend,
				fx.As(new(pkgif.Backend)),
				fx.ResultTags(`group:"backends"`),
			),
		),
	)
}

// ProvideBackend 提供 WebSocket 后端
func ProvideBackend(cfg *config.Config, metrics pkgif.MetricsReporter) *Backend {
	return New(cfg.Transport.WebSocket, cfg.Transport.DialTimeout.Duration(), metrics)
}
