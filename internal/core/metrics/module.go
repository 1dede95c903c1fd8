package metrics

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
	return fx.Module("metrics",
		fx.Provide(ProvideReporter),
	)
}

// reporterInput 导出器构造参数
type reporterInput struct {
	fx.In

	Config *config.Config
}

// reporterResult 导出器构造输出
type reporterResult struct {
	fx.Out

	Reporter pkgif.MetricsReporter
	Prom     *PromReporter // Prometheus 未启用时为 nil
}

// ProvideReporter 提供指标导出器
//
// 启用 Prometheus 时返回 PromReporter（内部仍走 Collector），
// 否则只返回进程内 Collector。
func ProvideReporter(in reporterInput) reporterResult {
	collector := NewCollector()
	if !in.Config.Metrics.EnablePrometheus {
		return reporterResult{Reporter: collector}
	}

	prom := NewPromReporter(collector, in.Config.Metrics.Namespace)
	return reporterResult{Reporter: prom, Prom: prom}
}
