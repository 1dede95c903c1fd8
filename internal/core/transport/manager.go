// Package transport 提供传输后端的公共基础设施与注册管理
package transport

import (
	"fmt"
	"sync"

	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/lib/log"
	"github.com/couriernet/go-courier/pkg/types"
)

var logger = log.Logger("core/transport")

// 确保实现了接口
var _ pkgif.BackendRegistry = (*Manager)(nil)

// Manager 后端注册管理器
//
// 注册后端的同时创建配套的熔断器与健康监视器，注销时一并移除。
// 每种传输类型至多注册一个后端。
type Manager struct {
	mu       sync.RWMutex
	backends map[types.TransportType]pkgif.Backend

	breakers pkgif.BreakerRegistry
	health   pkgif.HealthRegistry
}

// NewManager 创建管理器
func NewManager(breakers pkgif.BreakerRegistry, health pkgif.HealthRegistry) *Manager {
	return &Manager{
		backends: make(map[types.TransportType]pkgif.Backend),
		breakers: breakers,
		health:   health,
	}
}

// Register 注册传输后端
func (m *Manager) Register(backend pkgif.Backend) error {
	if backend == nil {
		return fmt.Errorf("register: nil backend")
	}
	t := backend.Type()
	if !t.Valid() {
		return fmt.Errorf("register: invalid transport type %q", t)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.backends[t]; exists {
		return fmt.Errorf("register: transport %q already registered", t)
	}
	m.backends[t] = backend

	// 预创建配套状态，保证后端可见即受保护
	m.breakers.Get(string(t))
	m.health.Get(string(t))

	logger.Info("传输后端已注册", "transport", t)
	return nil
}

// Deregister 注销指定类型的后端
func (m *Manager) Deregister(t types.TransportType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.backends[t]; !exists {
		return fmt.Errorf("deregister: transport %q not registered", t)
	}
	delete(m.backends, t)
	m.breakers.Remove(string(t))
	m.health.Remove(string(t))

	logger.Info("传输后端已注销", "transport", t)
	return nil
}

// Backend 获取指定类型的后端
func (m *Manager) Backend(t types.TransportType) (pkgif.Backend, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backends[t]
	return b, ok
}

// All 返回所有已注册后端的快照
func (m *Manager) All() []pkgif.Backend {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]pkgif.Backend, 0, len(m.backends))
	for _, b := range m.backends {
		out = append(out, b)
	}
	return out
}

// Types 返回所有已注册的传输类型
func (m *Manager) Types() []types.TransportType {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.TransportType, 0, len(m.backends))
	for t := range m.backends {
		out = append(out, t)
	}
	return out
}
