// Package interfaces 定义 Courier 公共接口
//
// 本文件定义 Backend 接口，抽象底层传输后端。
package interfaces

import (
	"context"

	"github.com/couriernet/go-courier/pkg/types"
)

// Backend 定义传输后端接口
//
// Backend 抽象不同的传输协议（TCP、QUIC、WebSocket）。
// 所有后端遵循同一生命周期：Stopped → Starting → Running → Stopping → Stopped；
// 未处于 Running 状态时 Send/Receive 返回 ErrNotRunning。
type Backend interface {
	// Type 返回传输类型
	Type() types.TransportType

	// Capabilities 返回静态能力描述
	//
	// 能力在后端创建后不变，可安全缓存。
	Capabilities() types.TransportCapabilities

	// CanReach 检查是否可能到达目标
	//
	// 仅做地址格式与本地状态（连接表、可达性缓存）检查，
	// 不发起网络 I/O。
	CanReach(target types.TransportTarget) bool

	// Estimate 评估到目标的当前传输质量
	//
	// 允许轻量探测（如活跃连接的 RTT），结果仅对当次决策有效。
	// 明确不可达时快速返回 Available=false 的高置信度评估。
	Estimate(ctx context.Context, target types.TransportTarget) (types.TransportEstimate, error)

	// Send 投递一条信封
	//
	// 仅在后端自身确认发送完成后返回回执。
	// 超出 MaxMessageSize 的信封在任何 I/O 之前被拒绝。
	Send(ctx context.Context, target types.TransportTarget, env *types.SecureEnvelope) (*types.DeliveryReceipt, error)

	// Receive 排空入站消息队列
	//
	// 非阻塞：无消息时返回 nil。
	Receive() []types.IncomingMessage

	// TestConnectivity 主动检测与目标的连通性
	TestConnectivity(ctx context.Context, target types.TransportTarget) types.ConnectivityResult

	// Start 启动后端（监听、接收循环）
	//
	// 幂等：对运行中的后端调用返回 nil。
	Start(ctx context.Context) error

	// Stop 停止后端，关闭所有连接与监听器
	//
	// 幂等：对已停止的后端调用返回 nil。
	Stop(ctx context.Context) error

	// Stats 返回统计快照
	//
	// 读取不阻塞数据路径。
	Stats() types.TransportStats
}
