// Package interfaces 定义 Courier 公共接口
//
// 本文件定义跨组件共享的错误分类。
package interfaces

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// 错误分类
//
// 引擎的错误处理围绕以下分类展开：
//   - 瞬时网络错误：重试，并计入熔断器失败计数
//   - 容量错误：发送前本地拒绝，不重试
//   - 不可达：候选耗尽后以 ErrNoTransportAvailable 上抛
//   - 熔断拒绝：快速失败，不产生 I/O，不计入失败计数
//   - 生命周期错误：上抛给调用方，不触发进程退出
var (
	// ErrNotRunning 后端未处于运行状态
	ErrNotRunning = errors.New("backend not running")

	// ErrMessageTooLarge 消息超出传输容量上限
	//
	// 在任何 I/O 之前本地判定，不重试。
	ErrMessageTooLarge = errors.New("message exceeds max message size")

	// ErrCircuitOpen 熔断器打开，请求被快速拒绝
	//
	// 区别于网络失败：未发生 I/O，不计入失败计数。
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrNoTransportAvailable 所有候选传输耗尽
	ErrNoTransportAvailable = errors.New("no transport available")

	// ErrUnreachable 目标无可解析地址
	ErrUnreachable = errors.New("target unreachable")
)

// transientError 标记为瞬时的错误包装
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// MarkTransient 将错误显式标记为瞬时（可重试）
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient 判断错误是否为瞬时网络错误
//
// 瞬时错误会被重试策略重试并计入熔断器失败阈值：
//   - 超时（net.Error.Timeout、context.DeadlineExceeded）
//   - 连接被拒绝 / 连接被重置 / 管道断开
//   - 显式标记为瞬时的错误
//
// 容量错误、熔断拒绝、生命周期错误均为非瞬时。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// 明确的非瞬时分类优先
	if errors.Is(err, ErrMessageTooLarge) ||
		errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrNotRunning) ||
		errors.Is(err, ErrUnreachable) ||
		errors.Is(err, context.Canceled) {
		return false
	}

	var te *transientError
	if errors.As(err, &te) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// IsLocalRejection 判断错误是否为本地拒绝
//
// 本地拒绝（熔断快速失败、容量超限、生命周期、无地址）未触碰
// 网络，对链路健康没有信息量，不计入熔断器与健康监视器的失败统计。
func IsLocalRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrMessageTooLarge) ||
		errors.Is(err, ErrNotRunning) ||
		errors.Is(err, ErrUnreachable)
}
