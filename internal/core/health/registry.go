package health

import (
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/couriernet/go-courier/config"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/types"
)

// 确保实现了接口
var _ pkgif.HealthRegistry = (*Registry)(nil)

// Registry 健康监视器注册表
//
// 按资源标识维护独立的监视器实例。
type Registry struct {
	mu       sync.RWMutex
	monitors map[string]*Monitor

	cfg config.HealthConfig
	clk clock.Clock
}

// NewRegistry 创建注册表
func NewRegistry(cfg config.HealthConfig, clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{
		monitors: make(map[string]*Monitor),
		cfg:      cfg,
		clk:      clk,
	}
}

// Get 获取指定资源的监视器（不存在时创建）
func (r *Registry) Get(resource string) pkgif.HealthMonitor {
	r.mu.RLock()
	m, ok := r.monitors[resource]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.monitors[resource]; ok {
		return m
	}
	m = NewMonitor(resource, r.cfg, r.clk)
	r.monitors[resource] = m
	return m
}

// Remove 移除指定资源的监视器
func (r *Registry) Remove(resource string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.monitors, resource)
}

// Statuses 返回所有资源的健康状态
func (r *Registry) Statuses() map[string]types.HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]types.HealthStatus, len(r.monitors))
	for resource, m := range r.monitors {
		out[resource] = m.Status()
	}
	return out
}
