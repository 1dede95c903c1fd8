// Package selector 实现紧急程度感知的传输选路与投递引擎
package selector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/internal/core/retry"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/lib/log"
	"github.com/couriernet/go-courier/pkg/types"
)

var logger = log.Logger("core/selector")

// 确保实现了接口
var _ pkgif.DeliveryEngine = (*Engine)(nil)

// EmitFunc 投递事件发射回调
type EmitFunc func(types.DeliveryEvent)

// Engine 投递引擎
//
// 跨调用共享的只有熔断器、健康监视器与指标状态；
// 候选评估与排序在每次 Send 内完成，不缓存。
type Engine struct {
	cfg      config.SelectorConfig
	backends pkgif.BackendRegistry
	breakers pkgif.BreakerRegistry
	health   pkgif.HealthRegistry
	retry    *retry.Policy
	resolver pkgif.AddressResolver // 可为 nil
	emit     EmitFunc              // 可为 nil

	// 并发 Send 对同一后端+目标的评估探测只执行一次
	probes singleflight.Group
}

// New 创建引擎
func New(
	cfg config.SelectorConfig,
	backends pkgif.BackendRegistry,
	breakers pkgif.BreakerRegistry,
	health pkgif.HealthRegistry,
	policy *retry.Policy,
	resolver pkgif.AddressResolver,
	emit EmitFunc,
) *Engine {
	return &Engine{
		cfg:      cfg,
		backends: backends,
		breakers: breakers,
		health:   health,
		retry:    policy,
		resolver: resolver,
		emit:     emit,
	}
}

// candidate 评估通过的候选后端
type candidate struct {
	backend  pkgif.Backend
	estimate types.TransportEstimate
	score    float64
}

// Send 投递一条信封到目标
func (e *Engine) Send(ctx context.Context, target types.TransportTarget, env *types.SecureEnvelope, urgency types.Urgency) (*types.DeliveryReceipt, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	target, err := e.resolveAddress(ctx, target)
	if err != nil {
		return nil, err
	}

	candidates, err := e.rank(ctx, target, env.WireSize(), urgency)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate for %s", pkgif.ErrNoTransportAvailable, target.Identifier)
	}

	start := time.Now()
	var lastErr error
	for _, cand := range candidates {
		t := cand.backend.Type()
		breaker := e.breakers.Get(string(t))
		monitor := e.health.Get(string(t))

		// 快速拒绝：不产生 I/O，直接尝试下一候选
		if !breaker.Allow() {
			lastErr = fmt.Errorf("%w: %s", pkgif.ErrCircuitOpen, t)
			continue
		}

		attempts := 0
		receipt, err := retry.ExecuteValue(ctx, e.retry, func(ctx context.Context) (*types.DeliveryReceipt, error) {
			attempts++
			if attempts > 1 && !breaker.Allow() {
				return nil, retry.Permanent(fmt.Errorf("%w: %s", pkgif.ErrCircuitOpen, t))
			}
			r, sendErr := cand.backend.Send(ctx, target, env)
			e.recordOutcome(breaker, monitor, sendErr)
			if sendErr != nil && !pkgif.IsTransient(sendErr) {
				// 永久性失败（协议违规、对端拒绝）重试无益，直接换候选
				return nil, retry.Permanent(sendErr)
			}
			return r, sendErr
		})

		e.publish(types.DeliveryEvent{
			MessageID: env.MessageID,
			Target:    target.Identifier,
			Transport: t,
			Urgency:   urgency,
			Success:   err == nil,
			Attempts:  attempts,
			Elapsed:   time.Since(start),
			Error:     errString(err),
		})

		if err == nil {
			return receipt, nil
		}
		lastErr = err
		logger.Debug("候选投递失败，尝试下一个",
			"transport", t, "target", target.Identifier.ShortString(), "error", err)
	}

	return nil, fmt.Errorf("%w: %v", pkgif.ErrNoTransportAvailable, lastErr)
}

// recordOutcome 把一次发送结果记入熔断器与健康监视器
//
// 熔断拒绝与容量超限不是网络失败，不计入失败统计。
func (e *Engine) recordOutcome(breaker pkgif.CircuitBreaker, monitor pkgif.HealthMonitor, err error) {
	switch {
	case err == nil:
		breaker.RecordSuccess()
		monitor.RecordSuccess()
	case pkgif.IsLocalRejection(err):
		// 本地拒绝：对链路健康无信息量
	default:
		breaker.RecordFailure()
		monitor.RecordFailure()
	}
}

// Receive 排空所有运行中后端的入站消息
func (e *Engine) Receive() []types.IncomingMessage {
	var out []types.IncomingMessage
	for _, b := range e.backends.All() {
		out = append(out, b.Receive()...)
	}
	return out
}

// BestTransport 返回当前对目标评分最高的传输类型
func (e *Engine) BestTransport(ctx context.Context, target types.TransportTarget, urgency types.Urgency) (types.TransportType, error) {
	target, err := e.resolveAddress(ctx, target)
	if err != nil {
		return "", err
	}

	candidates, err := e.rank(ctx, target, 0, urgency)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no candidate for %s", pkgif.ErrNoTransportAvailable, target.Identifier)
	}
	return candidates[0].backend.Type(), nil
}

// TestConnectivity 对所有可达后端做连通性检测
func (e *Engine) TestConnectivity(ctx context.Context, target types.TransportTarget) map[types.TransportType]types.ConnectivityResult {
	target, err := e.resolveAddress(ctx, target)
	if err != nil {
		return nil
	}

	var mu sync.Mutex
	out := make(map[types.TransportType]types.ConnectivityResult)

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range e.backends.All() {
		if !b.CanReach(target) {
			continue
		}
		b := b
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, e.cfg.ConnectivityTimeout.Duration())
			defer cancel()

			res := b.TestConnectivity(cctx, target)
			mu.Lock()
			out[b.Type()] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Backends 返回已注册的传输类型列表
func (e *Engine) Backends() []types.TransportType {
	all := e.backends.All()
	out := make([]types.TransportType, 0, len(all))
	for _, b := range all {
		out = append(out, b.Type())
	}
	return out
}

// Stats 返回各后端统计快照
func (e *Engine) Stats() map[types.TransportType]types.TransportStats {
	all := e.backends.All()
	out := make(map[types.TransportType]types.TransportStats, len(all))
	for _, b := range all {
		out[b.Type()] = b.Stats()
	}
	return out
}

// resolveAddress 目标缺地址时通过解析器补齐
func (e *Engine) resolveAddress(ctx context.Context, target types.TransportTarget) (types.TransportTarget, error) {
	if target.HasAddress() || e.resolver == nil {
		return target, nil
	}
	addr, err := e.resolver.Resolve(ctx, target.Identifier)
	if err != nil {
		return target, fmt.Errorf("%w: resolve %s: %v", pkgif.ErrUnreachable, target.Identifier, err)
	}
	target.Address = addr
	return target, nil
}

// rank 评估并排序候选后端
//
// wireSize 为 0 时跳过容量过滤（BestTransport 场景）。
func (e *Engine) rank(ctx context.Context, target types.TransportTarget, wireSize int64, urgency types.Urgency) ([]candidate, error) {
	reachable := make([]pkgif.Backend, 0, 4)
	for _, b := range e.backends.All() {
		if !b.CanReach(target) {
			continue
		}
		caps := b.Capabilities()
		if !caps.SupportsUrgency(urgency) {
			continue
		}
		if wireSize > 0 && !caps.FitsMessage(wireSize) {
			continue
		}
		reachable = append(reachable, b)
	}
	if len(reachable) == 0 {
		return nil, nil
	}

	// 并行评估：每个后端有独立超时，singleflight 合并重复探测
	results := make([]types.TransportEstimate, len(reachable))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range reachable {
		i, b := i, b
		g.Go(func() error {
			results[i] = e.estimateOne(gctx, b, target)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	preferred, hasPreferred := target.PreferredTransport()
	candidates := make([]candidate, 0, len(reachable))
	for i, b := range reachable {
		est := results[i]
		if !est.Available {
			continue
		}
		s := score(est, urgency)
		if hasPreferred && b.Type() == preferred {
			s += e.cfg.PreferredBonus
		}
		candidates = append(candidates, candidate{backend: b, estimate: est, score: s})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates, nil
}

// estimateOne 评估单个后端，超时或出错按不可用处理
func (e *Engine) estimateOne(ctx context.Context, b pkgif.Backend, target types.TransportTarget) types.TransportEstimate {
	key := string(b.Type()) + "|" + target.Address
	v, err, _ := e.probes.Do(key, func() (interface{}, error) {
		ectx, cancel := context.WithTimeout(ctx, e.cfg.EstimateTimeout.Duration())
		defer cancel()
		return b.Estimate(ectx, target)
	})
	if err != nil {
		return types.Unavailable()
	}
	return v.(types.TransportEstimate).Clamp()
}

// publish 发布投递事件
func (e *Engine) publish(evt types.DeliveryEvent) {
	if e.emit == nil {
		return
	}
	e.emit(evt)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
