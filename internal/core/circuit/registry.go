package circuit

import (
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/couriernet/go-courier/config"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/types"
)

// 确保实现了接口
var _ pkgif.BreakerRegistry = (*Registry)(nil)

// Registry 熔断器注册表
//
// 按资源标识维护独立的熔断器实例，每个实例有自己的互斥锁，
// 不同资源之间无锁竞争。资源键通常为传输类型名（"tcp"），
// 调用方也可以使用更细的键（"tcp/entity-b"）。
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker

	cfg  config.CircuitBreakerConfig
	clk  clock.Clock
	emit EmitFunc
}

// NewRegistry 创建注册表
func NewRegistry(cfg config.CircuitBreakerConfig, clk clock.Clock, emit EmitFunc) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{
		breakers: make(map[string]*Breaker),
		cfg:      cfg,
		clk:      clk,
		emit:     emit,
	}
}

// Get 获取指定资源的熔断器（不存在时创建）
func (r *Registry) Get(resource string) pkgif.CircuitBreaker {
	r.mu.RLock()
	b, ok := r.breakers[resource]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// double-check：并发创建时只保留第一个
	if b, ok := r.breakers[resource]; ok {
		return b
	}
	b = New(resource, r.cfg, r.clk, r.emit)
	r.breakers[resource] = b
	return b
}

// Remove 移除指定资源的熔断器
func (r *Registry) Remove(resource string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.breakers, resource)
}

// Snapshots 返回所有熔断器的状态快照
func (r *Registry) Snapshots() map[string]types.BreakerSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]types.BreakerSnapshot, len(r.breakers))
	for resource, b := range r.breakers {
		out[resource] = b.Snapshot()
	}
	return out
}
