package types

// ============================================================================
//                              TransportStats - 传输统计
// ============================================================================

// TransportStats 传输后端统计快照
//
// 快照由原子计数器即时导出，读取不会阻塞数据路径。
type TransportStats struct {
	// MessagesSent 成功发送的消息数
	MessagesSent int64 `json:"messages_sent"`

	// MessagesReceived 接收的消息数
	MessagesReceived int64 `json:"messages_received"`

	// BytesSent 发送字节数
	BytesSent int64 `json:"bytes_sent"`

	// BytesReceived 接收字节数
	BytesReceived int64 `json:"bytes_received"`

	// SendFailures 发送失败次数
	SendFailures int64 `json:"send_failures"`

	// ReceiveFailures 接收失败次数（解码失败、队列溢出等）
	ReceiveFailures int64 `json:"receive_failures"`

	// ActiveConnections 当前活跃连接数
	ActiveConnections int64 `json:"active_connections"`

	// AverageLatencyMs 平均投递延迟（毫秒，指数移动平均）
	AverageLatencyMs float64 `json:"average_latency_ms"`

	// ReliabilityScore 可靠性评分 [0,1]（成功率指数移动平均）
	ReliabilityScore float64 `json:"reliability_score"`

	// Custom 后端自定义指标
	Custom map[string]float64 `json:"custom,omitempty"`
}

// TotalMessages 返回收发消息总数
func (s TransportStats) TotalMessages() int64 {
	return s.MessagesSent + s.MessagesReceived
}

// TotalBytes 返回收发字节总数
func (s TransportStats) TotalBytes() int64 {
	return s.BytesSent + s.BytesReceived
}
