package transport

import (
	"sync"

	"github.com/couriernet/go-courier/pkg/types"
)

// DefaultQueueCapacity 入站队列默认容量
const DefaultQueueCapacity = 1024

// InboundQueue 有界入站消息队列
//
// 每个后端持有一个：连接 goroutine Push，引擎 Drain。
// 队列满时丢弃最老的消息（新消息更可能仍有消费价值），
// 丢弃计入接收失败统计。单后端内保持 FIFO。
type InboundQueue struct {
	mu      sync.Mutex
	buf     []types.IncomingMessage
	cap     int
	dropped int64
}

// NewInboundQueue 创建队列
//
// capacity <= 0 使用默认容量。
func NewInboundQueue(capacity int) *InboundQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &InboundQueue{cap: capacity}
}

// Push 入队一条消息
//
// 返回 false 表示发生了挤占（最老消息被丢弃）。
func (q *InboundQueue) Push(msg types.IncomingMessage) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.buf) >= q.cap {
		q.buf = q.buf[1:]
		q.dropped++
		q.buf = append(q.buf, msg)
		return false
	}
	q.buf = append(q.buf, msg)
	return true
}

// Drain 取走当前全部消息
//
// 非阻塞；队列为空时返回 nil。
func (q *InboundQueue) Drain() []types.IncomingMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.buf) == 0 {
		return nil
	}
	out := q.buf
	q.buf = nil
	return out
}

// Len 返回当前队列长度
func (q *InboundQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Dropped 返回累计丢弃条数
func (q *InboundQueue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
