package courier

import (
	"errors"

	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 引擎生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 引擎未启动
	ErrNotStarted = errors.New("engine not started")

	// ErrAlreadyStarted 引擎已启动
	ErrAlreadyStarted = errors.New("engine already started")

	// ErrEngineClosed 引擎已关闭
	ErrEngineClosed = errors.New("engine closed")

	// ────────────────────────────────────────────────────────────────────────
	// 投递错误（转发自 pkg/interfaces，方便调用方 errors.Is）
	// ────────────────────────────────────────────────────────────────────────

	// ErrNoTransportAvailable 所有候选传输耗尽
	ErrNoTransportAvailable = pkgif.ErrNoTransportAvailable

	// ErrMessageTooLarge 消息超出传输容量上限
	ErrMessageTooLarge = pkgif.ErrMessageTooLarge

	// ErrCircuitOpen 熔断器打开，请求被快速拒绝
	ErrCircuitOpen = pkgif.ErrCircuitOpen

	// ErrUnreachable 目标无可解析地址
	ErrUnreachable = pkgif.ErrUnreachable
)
