// Package interfaces 定义 Courier 公共接口
//
// 本文件定义 CircuitBreaker 与 HealthMonitor 接口。
package interfaces

import (
	"github.com/couriernet/go-courier/pkg/types"
)

// CircuitBreaker 定义熔断器接口
//
// 状态机：Closed → Open →（复位超时）→ HalfOpen → Closed。
// 所有转换原子完成，不跳状态。
type CircuitBreaker interface {
	// Allow 检查当前是否放行请求
	//
	// Open 态下复位超时已过时转入 HalfOpen 并放行试探；
	// 拒绝时发布 RequestRejected 事件，拒绝不计为失败。
	Allow() bool

	// RecordSuccess 记录一次成功
	//
	// Closed 态清零失败计数；HalfOpen 态累计成功，
	// 达到阈值后闭合。
	RecordSuccess()

	// RecordFailure 记录一次失败
	//
	// Closed 态累计失败，达到阈值后打开；
	// HalfOpen 态单次失败立即重新打开。
	RecordFailure()

	// State 返回当前状态
	State() types.BreakerState

	// Snapshot 返回状态快照
	Snapshot() types.BreakerSnapshot

	// Reset 手动复位到 Closed
	Reset()

	// ForceOpen 外部强制打开（运维干预）
	//
	// 发布 ExternalTrigger 事件。
	ForceOpen(reason string)
}

// BreakerRegistry 定义熔断器注册表接口
//
// 按资源标识（通常为传输类型名）维护独立的熔断器实例。
type BreakerRegistry interface {
	// Get 获取指定资源的熔断器（不存在时创建）
	Get(resource string) CircuitBreaker

	// Remove 移除指定资源的熔断器
	Remove(resource string)

	// Snapshots 返回所有熔断器的状态快照
	Snapshots() map[string]types.BreakerSnapshot
}

// HealthMonitor 定义连接健康监视器接口
//
// 被动统计：连续失败达到阈值判定不健康，一次成功恢复。
// 仅供诊断，不阻断发送路径。
type HealthMonitor interface {
	// RecordSuccess 记录一次成功
	RecordSuccess()

	// RecordFailure 记录一次失败
	RecordFailure()

	// Healthy 返回当前是否健康
	Healthy() bool

	// Status 返回健康状态快照
	Status() types.HealthStatus
}

// HealthRegistry 定义健康监视器注册表接口
type HealthRegistry interface {
	// Get 获取指定资源的监视器（不存在时创建）
	Get(resource string) HealthMonitor

	// Remove 移除指定资源的监视器
	Remove(resource string)

	// Statuses 返回所有资源的健康状态
	Statuses() map[string]types.HealthStatus
}
