// Package interfaces 定义 Courier 公共接口
//
// 本文件定义 DeliveryEngine 接口，投递引擎的核心门面。
package interfaces

import (
	"context"

	"github.com/couriernet/go-courier/pkg/types"
)

// DeliveryEngine 定义投递引擎接口
//
// 引擎聚合所有已注册后端，按紧急程度与实时质量评估选路，
// 经熔断器与重试策略保护后完成投递。
type DeliveryEngine interface {
	// Send 投递一条信封到目标
	//
	// 按评分顺序尝试候选后端，第一个成功的回执即为结果。
	// 所有候选耗尽后返回 ErrNoTransportAvailable（包裹最后一个失败原因）。
	Send(ctx context.Context, target types.TransportTarget, env *types.SecureEnvelope, urgency types.Urgency) (*types.DeliveryReceipt, error)

	// Receive 排空所有运行中后端的入站消息
	//
	// 非阻塞；单一后端内保持 FIFO，跨后端顺序不保证。
	Receive() []types.IncomingMessage

	// BestTransport 返回当前对目标评分最高的传输类型
	//
	// 仅做决策展示，不产生投递副作用。
	BestTransport(ctx context.Context, target types.TransportTarget, urgency types.Urgency) (types.TransportType, error)

	// TestConnectivity 对所有可达后端做连通性检测
	TestConnectivity(ctx context.Context, target types.TransportTarget) map[types.TransportType]types.ConnectivityResult

	// Backends 返回已注册的传输类型列表
	Backends() []types.TransportType

	// Stats 返回各后端统计快照
	Stats() map[types.TransportType]types.TransportStats
}

// BackendRegistry 定义后端注册接口
//
// 注册同时为后端创建熔断器与健康监视器；
// 注销时一并移除。
type BackendRegistry interface {
	// Register 注册传输后端
	Register(backend Backend) error

	// Deregister 注销指定类型的后端
	Deregister(t types.TransportType) error

	// Backend 获取指定类型的后端
	Backend(t types.TransportType) (Backend, bool)

	// All 返回所有已注册后端的快照
	All() []Backend
}
