// Package retry 实现带指数退避与抖动的重试策略
//
// 策略只负责"何时再试"，不负责"该不该试"：
// 熔断检查与健康记录由调用方在每次尝试内完成。
//
// 典型用法（投递引擎内）：
//
//	err := policy.Execute(ctx, func(ctx context.Context) error {
//	    if !breaker.Allow() {
//	        return interfaces.ErrCircuitOpen // 非瞬时，立即终止
//	    }
//	    err := backend.Send(ctx, target, env)
//	    recordOutcome(err)
//	    return err
//	})
//
// 退避序列（默认配置）：100ms → 200ms → 400ms，每步叠加 ±20% 抖动，
// 上限 5s。只有 interfaces.IsTransient 判定为瞬时的错误才会触发重试。
package retry
