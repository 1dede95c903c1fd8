// Package health 实现被动式连接健康监视
package health

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/couriernet/go-courier/config"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/lib/log"
	"github.com/couriernet/go-courier/pkg/types"
)

var logger = log.Logger("core/health")

// 确保实现了接口
var _ pkgif.HealthMonitor = (*Monitor)(nil)

// Monitor 单资源健康监视器
//
// 被动统计发送结果，不主动探测：连续失败达到阈值判定为不健康，
// 任意一次成功立即恢复。与熔断器独立——监视器只回答"最近表现
// 如何"，不阻断请求。
type Monitor struct {
	mu sync.Mutex

	resource  string
	threshold int
	clk       clock.Clock

	healthy     bool
	lastSuccess time.Time
	lastFailure time.Time
	consecFails int
}

// NewMonitor 创建监视器（初始为健康）
func NewMonitor(resource string, cfg config.HealthConfig, clk clock.Clock) *Monitor {
	if clk == nil {
		clk = clock.New()
	}
	return &Monitor{
		resource:  resource,
		threshold: cfg.FailureThreshold,
		clk:       clk,
		healthy:   true,
	}
}

// RecordSuccess 记录一次成功
//
// 一次成功即恢复健康并清零连续失败计数。
func (m *Monitor) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastSuccess = m.clk.Now()
	m.consecFails = 0
	if !m.healthy {
		m.healthy = true
		logger.Info("资源恢复健康", "resource", m.resource)
	}
}

// RecordFailure 记录一次失败
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastFailure = m.clk.Now()
	m.consecFails++
	if m.healthy && m.consecFails >= m.threshold {
		m.healthy = false
		logger.Warn("资源判定为不健康",
			"resource", m.resource,
			"consecutive_failures", m.consecFails)
	}
}

// Healthy 返回当前是否健康
func (m *Monitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// Status 返回健康状态快照
func (m *Monitor) Status() types.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.HealthStatus{
		Healthy:             m.healthy,
		LastSuccess:         m.lastSuccess,
		LastFailure:         m.lastFailure,
		ConsecutiveFailures: m.consecFails,
	}
}
