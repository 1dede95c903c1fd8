// Package retry 实现带指数退避与抖动的重试策略
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/pkg/lib/log"
)

var logger = log.Logger("core/retry")

// Policy 重试策略
//
// 对失败做有限次重试，退避间隔按乘数指数增长并叠加随机抖动。
// 策略本身不区分失败种类：操作返回的任何错误都会触发重试，
// 直到尝试次数耗尽；不值得重试的错误由调用方用 Permanent 包装，
// 策略收到后立即解包返回，不消耗剩余尝试次数。
type Policy struct {
	cfg config.RetryConfig
	clk clock.Clock
}

// NewPolicy 创建重试策略
func NewPolicy(cfg config.RetryConfig, clk clock.Clock) *Policy {
	if clk == nil {
		clk = clock.New()
	}
	// 抖动系数收敛到 [0, 0.5]
	if cfg.JitterFactor < 0 {
		cfg.JitterFactor = 0
	}
	if cfg.JitterFactor > 0.5 {
		cfg.JitterFactor = 0.5
	}
	return &Policy{cfg: cfg, clk: clk}
}

// permanentError 携带放弃重试信号的包装
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent 标记错误为不可重试
//
// Execute 收到 Permanent 包装的错误时立即解包返回原错误。
// 失败种类的判断属于调用方：策略只认这个显式信号。
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Execute 执行操作并按策略重试
//
// op 最多被调用 MaxAttempts 次。返回最后一次尝试的错误；
// Permanent 包装的错误立即解包返回；ctx 取消时立即返回
// ctx.Err()，不再发起新尝试。
func (p *Policy) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if attempt == p.cfg.MaxAttempts {
			break
		}

		delay := p.backoff(attempt)
		logger.Debug("操作失败，等待重试",
			"attempt", attempt,
			"max_attempts", p.cfg.MaxAttempts,
			"delay", delay,
			"error", lastErr)

		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// ExecuteValue 执行带返回值的操作并按策略重试
func ExecuteValue[T any](ctx context.Context, p *Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}

// backoff 计算第 attempt 次失败后的退避时长
//
// base = InitialBackoff * Multiplier^(attempt-1)，上限 MaxBackoff，
// 再叠加 ±JitterFactor 比例的均匀随机抖动。
func (p *Policy) backoff(attempt int) time.Duration {
	base := float64(p.cfg.InitialBackoff.Duration())
	for i := 1; i < attempt; i++ {
		base *= p.cfg.BackoffMultiplier
	}

	max := float64(p.cfg.MaxBackoff.Duration())
	if base > max {
		base = max
	}

	if p.cfg.JitterFactor > 0 {
		// [-jitter, +jitter] 均匀分布
		jitter := base * p.cfg.JitterFactor
		base += (rand.Float64()*2 - 1) * jitter
	}
	if base < 0 {
		base = 0
	}
	return time.Duration(base)
}

// sleep 可取消的等待
func (p *Policy) sleep(ctx context.Context, d time.Duration) error {
	timer := p.clk.Timer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
