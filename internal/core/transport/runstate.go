package transport

import (
	"sync/atomic"

	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/types"
)

// RunState 后端生命周期状态机
//
// Stopped → Starting → Running → Stopping → Stopped，转换用 CAS 保证
// 并发 Start/Stop 只有一个生效。各后端内嵌使用。
type RunState struct {
	state atomic.Int32
}

// State 返回当前状态
func (s *RunState) State() types.BackendState {
	return types.BackendState(s.state.Load())
}

// Running 检查是否处于运行态
func (s *RunState) Running() bool {
	return s.State() == types.BackendRunning
}

// CheckRunning 运行态检查，非运行态返回 ErrNotRunning
func (s *RunState) CheckRunning() error {
	if !s.Running() {
		return pkgif.ErrNotRunning
	}
	return nil
}

// BeginStart 尝试进入启动流程
//
// 返回 false 表示已在启动/运行中（幂等 Start 直接返回）。
func (s *RunState) BeginStart() bool {
	return s.state.CompareAndSwap(int32(types.BackendStopped), int32(types.BackendStarting))
}

// FinishStart 启动完成，进入运行态
func (s *RunState) FinishStart() {
	s.state.CompareAndSwap(int32(types.BackendStarting), int32(types.BackendRunning))
}

// AbortStart 启动失败，回退到停止态
func (s *RunState) AbortStart() {
	s.state.CompareAndSwap(int32(types.BackendStarting), int32(types.BackendStopped))
}

// BeginStop 尝试进入停止流程
//
// 返回 false 表示并非运行态（幂等 Stop 直接返回）。
func (s *RunState) BeginStop() bool {
	return s.state.CompareAndSwap(int32(types.BackendRunning), int32(types.BackendStopping))
}

// FinishStop 停止完成
func (s *RunState) FinishStop() {
	s.state.Store(int32(types.BackendStopped))
}
