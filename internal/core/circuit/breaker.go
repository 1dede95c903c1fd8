// Package circuit 实现按资源隔离的熔断器
package circuit

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/couriernet/go-courier/config"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/lib/log"
	"github.com/couriernet/go-courier/pkg/types"
)

var logger = log.Logger("core/circuit")

// 确保实现了接口
var _ pkgif.CircuitBreaker = (*Breaker)(nil)

// EmitFunc 事件发射回调
//
// 发射必须是非阻塞的（由事件总线保证），熔断器在持锁状态下调用。
type EmitFunc func(types.CircuitEvent)

// Breaker 单资源熔断器
//
// 状态机（所有转换在一把互斥锁内原子完成，不跳状态）：
//
//	Closed --失败达到阈值--> Open --复位超时后首次 Allow--> HalfOpen
//	HalfOpen --连续成功达到阈值--> Closed
//	HalfOpen --单次失败--> Open
//
// 半开态串行试探：同一时刻只放行一个在途试探请求。
type Breaker struct {
	mu sync.Mutex

	resource string
	cfg      config.CircuitBreakerConfig
	clk      clock.Clock
	emit     EmitFunc

	state     types.BreakerState
	failures  int       // Closed 态连续失败计数
	successes int       // HalfOpen 态连续成功计数
	openedAt  time.Time // 进入 Open 态的时间
	inFlight  bool      // HalfOpen 态是否有在途试探
}

// New 创建熔断器
//
// emit 可为 nil（不发布事件，仅用于测试）。
func New(resource string, cfg config.CircuitBreakerConfig, clk clock.Clock, emit EmitFunc) *Breaker {
	if clk == nil {
		clk = clock.New()
	}
	return &Breaker{
		resource: resource,
		cfg:      cfg,
		clk:      clk,
		emit:     emit,
		state:    types.BreakerClosed,
	}
}

// Allow 检查当前是否放行请求
//
// Open 态下复位超时已过时转入 HalfOpen 并放行该请求作为试探。
// 拒绝时发布 RequestRejected 事件；拒绝不计入失败计数。
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case types.BreakerClosed:
		return true

	case types.BreakerOpen:
		if b.clk.Since(b.openedAt) >= b.cfg.ResetTimeout.Duration() {
			b.toHalfOpen()
			b.inFlight = true
			return true
		}
		b.publish(types.CircuitRequestRejected, "circuit open", b.failures)
		return false

	case types.BreakerHalfOpen:
		// 串行试探：在途请求未结束前不放行下一个
		if b.inFlight {
			b.publish(types.CircuitRequestRejected, "half-open probe in flight", b.failures)
			return false
		}
		b.inFlight = true
		return true

	default:
		return false
	}
}

// RecordSuccess 记录一次成功
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case types.BreakerClosed:
		b.failures = 0

	case types.BreakerHalfOpen:
		b.inFlight = false
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxCalls {
			b.toClosed()
		}

	case types.BreakerOpen:
		// Open 态不应有在途请求；迟到的成功忽略
	}
}

// RecordFailure 记录一次失败
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case types.BreakerClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.toOpen("failure threshold reached")
		}

	case types.BreakerHalfOpen:
		// 半开试探失败：单次失败立即重新打开
		b.inFlight = false
		b.toOpen("half-open probe failed")

	case types.BreakerOpen:
		// 已打开：迟到的失败不重复计数
	}
}

// State 返回当前状态
func (b *Breaker) State() types.BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot 返回状态快照
func (b *Breaker) Snapshot() types.BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return types.BreakerSnapshot{
		State:     b.state,
		Failures:  b.failures,
		Successes: b.successes,
		OpenedAt:  b.openedAt,
	}
}

// Reset 手动复位到 Closed（运维覆盖，任何状态可用）
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == types.BreakerClosed {
		b.failures = 0
		return
	}
	b.toClosed()
}

// ForceOpen 外部强制打开（运维干预）
func (b *Breaker) ForceOpen(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = types.BreakerOpen
	b.openedAt = b.clk.Now()
	b.successes = 0
	b.inFlight = false

	logger.Warn("熔断器被外部强制打开", "resource", b.resource, "reason", reason)
	b.publish(types.CircuitExternalTrigger, reason, b.failures)
}

// ────────────────────────────────────────────────────────────────────────
// 内部转换（调用方必须持锁）
// ────────────────────────────────────────────────────────────────────────

func (b *Breaker) toOpen(reason string) {
	b.state = types.BreakerOpen
	b.openedAt = b.clk.Now()
	b.successes = 0
	b.inFlight = false

	logger.Warn("熔断器打开", "resource", b.resource, "reason", reason, "failures", b.failures)
	b.publish(types.CircuitOpened, reason, b.failures)
}

func (b *Breaker) toHalfOpen() {
	b.state = types.BreakerHalfOpen
	b.successes = 0
	b.inFlight = false

	logger.Info("熔断器进入半开", "resource", b.resource)
	b.publish(types.CircuitHalfOpened, "reset timeout elapsed", b.failures)
}

func (b *Breaker) toClosed() {
	b.state = types.BreakerClosed
	b.failures = 0
	b.successes = 0
	b.openedAt = time.Time{}
	b.inFlight = false

	logger.Info("熔断器闭合", "resource", b.resource)
	b.publish(types.CircuitClosed, "recovered", 0)
}

func (b *Breaker) publish(kind types.CircuitEventKind, reason string, failures int) {
	if b.emit == nil {
		return
	}
	b.emit(types.CircuitEvent{
		Resource:     b.resource,
		Kind:         kind,
		Reason:       reason,
		FailureCount: failures,
		At:           b.clk.Now(),
	})
}
