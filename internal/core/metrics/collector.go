// Package metrics 实现传输指标收集
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/types"
)

// 确保实现了接口
var _ pkgif.MetricsReporter = (*Collector)(nil)

// ewmaWeight 指数移动平均权重：new = (old*7 + sample) / 8
const ewmaWeight = 8

// transportCounters 单传输计数器组
//
// 计数用原子操作，两个移动平均共用一把小锁（只在发送结束时更新）。
type transportCounters struct {
	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
	bytesSent        atomic.Int64
	bytesReceived    atomic.Int64
	sendFailures     atomic.Int64
	receiveFailures  atomic.Int64
	activeConns      atomic.Int64

	ewmaMu      sync.Mutex
	latencyMs   float64 // 投递延迟 EWMA（毫秒）
	latencyInit bool
	reliability float64 // 成功率 EWMA [0,1]
	relInit     bool
}

// observeSend 更新发送结果的移动平均
//
// sample：成功为 1，失败为 0。延迟只在成功时有样本。
func (c *transportCounters) observeSend(ok bool, latency time.Duration) {
	c.ewmaMu.Lock()
	defer c.ewmaMu.Unlock()

	sample := 0.0
	if ok {
		sample = 1.0
	}
	if !c.relInit {
		c.reliability = sample
		c.relInit = true
	} else {
		c.reliability = (c.reliability*(ewmaWeight-1) + sample) / ewmaWeight
	}

	if !ok {
		return
	}
	ms := float64(latency) / float64(time.Millisecond)
	if !c.latencyInit {
		c.latencyMs = ms
		c.latencyInit = true
	} else {
		c.latencyMs = (c.latencyMs*(ewmaWeight-1) + ms) / ewmaWeight
	}
}

// snapshot 导出统计快照
func (c *transportCounters) snapshot() types.TransportStats {
	c.ewmaMu.Lock()
	latency := c.latencyMs
	reliability := c.reliability
	relInit := c.relInit
	c.ewmaMu.Unlock()

	if !relInit {
		// 无样本时默认满分，避免把新后端排到末尾
		reliability = 1.0
	}

	return types.TransportStats{
		MessagesSent:      c.messagesSent.Load(),
		MessagesReceived:  c.messagesReceived.Load(),
		BytesSent:         c.bytesSent.Load(),
		BytesReceived:     c.bytesReceived.Load(),
		SendFailures:      c.sendFailures.Load(),
		ReceiveFailures:   c.receiveFailures.Load(),
		ActiveConnections: c.activeConns.Load(),
		AverageLatencyMs:  latency,
		ReliabilityScore:  clamp01(reliability),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Collector 指标收集器
//
// 按传输类型维护计数器组。数据路径只做原子加与一次短临界区，
// 读取导出即时快照。
type Collector struct {
	mu       sync.RWMutex
	counters map[types.TransportType]*transportCounters
}

// NewCollector 创建收集器
func NewCollector() *Collector {
	return &Collector{
		counters: make(map[types.TransportType]*transportCounters),
	}
}

// get 获取指定传输的计数器组（不存在时创建）
func (c *Collector) get(t types.TransportType) *transportCounters {
	c.mu.RLock()
	tc, ok := c.counters[t]
	c.mu.RUnlock()
	if ok {
		return tc
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if tc, ok := c.counters[t]; ok {
		return tc
	}
	tc = &transportCounters{}
	c.counters[t] = tc
	return tc
}

// RecordSend 记录一次成功发送
func (c *Collector) RecordSend(t types.TransportType, bytes int64, latency time.Duration) {
	tc := c.get(t)
	tc.messagesSent.Add(1)
	tc.bytesSent.Add(bytes)
	tc.observeSend(true, latency)
}

// RecordSendFailure 记录一次发送失败
func (c *Collector) RecordSendFailure(t types.TransportType) {
	tc := c.get(t)
	tc.sendFailures.Add(1)
	tc.observeSend(false, 0)
}

// RecordReceive 记录一次接收
func (c *Collector) RecordReceive(t types.TransportType, bytes int64) {
	tc := c.get(t)
	tc.messagesReceived.Add(1)
	tc.bytesReceived.Add(bytes)
}

// RecordReceiveFailure 记录一次接收失败
func (c *Collector) RecordReceiveFailure(t types.TransportType) {
	c.get(t).receiveFailures.Add(1)
}

// SetActiveConnections 更新活跃连接数
func (c *Collector) SetActiveConnections(t types.TransportType, n int64) {
	c.get(t).activeConns.Store(n)
}

// Stats 返回指定传输的统计快照
func (c *Collector) Stats(t types.TransportType) types.TransportStats {
	c.mu.RLock()
	tc, ok := c.counters[t]
	c.mu.RUnlock()
	if !ok {
		return types.TransportStats{ReliabilityScore: 1.0}
	}
	return tc.snapshot()
}

// AllStats 返回所有传输的统计快照
func (c *Collector) AllStats() map[types.TransportType]types.TransportStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[types.TransportType]types.TransportStats, len(c.counters))
	for t, tc := range c.counters {
		out[t] = tc.snapshot()
	}
	return out
}

// Reset 清除所有统计
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = make(map[types.TransportType]*transportCounters)
}
