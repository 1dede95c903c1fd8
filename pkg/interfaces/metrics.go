// Package interfaces 定义 Courier 公共接口
//
// 本文件定义 MetricsReporter 接口。
package interfaces

import (
	"time"

	"github.com/couriernet/go-courier/pkg/types"
)

// MetricsRecorder 定义传输指标记录接口
//
// 由各后端在数据路径上调用，实现必须无锁或低开销。
type MetricsRecorder interface {
	// RecordSend 记录一次成功发送
	RecordSend(t types.TransportType, bytes int64, latency time.Duration)

	// RecordSendFailure 记录一次发送失败
	RecordSendFailure(t types.TransportType)

	// RecordReceive 记录一次接收
	RecordReceive(t types.TransportType, bytes int64)

	// RecordReceiveFailure 记录一次接收失败
	RecordReceiveFailure(t types.TransportType)

	// SetActiveConnections 更新活跃连接数
	SetActiveConnections(t types.TransportType, n int64)
}

// MetricsReporter 定义指标导出接口
type MetricsReporter interface {
	MetricsRecorder

	// Stats 返回指定传输的统计快照
	Stats(t types.TransportType) types.TransportStats

	// AllStats 返回所有传输的统计快照
	AllStats() map[types.TransportType]types.TransportStats
}
