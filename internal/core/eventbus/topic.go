package eventbus

import (
	"sync"
	"sync/atomic"

	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
)

// topic 单一事件类型的订阅者集合
//
// 发布在锁内完成但从不做 I/O：订阅者通道满时事件被丢弃并计数，
// 发布方永不阻塞。keepLast 主题保留最近一次事件，晚到的订阅者
// 入场即补发。
type topic[T any] struct {
	name     string
	buffer   int
	keepLast bool

	mu      sync.Mutex
	subs    []*subscription[T]
	last    *T
	dropped atomic.Int64
}

func newTopic[T any](name string, buffer int, keepLast bool) *topic[T] {
	return &topic[T]{name: name, buffer: buffer, keepLast: keepLast}
}

// publish 广播事件到所有订阅者
func (t *topic[T]) publish(evt T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.keepLast {
		t.last = &evt
	}

	for _, sub := range t.subs {
		select {
		case sub.out <- evt:
		default:
			dropped := t.dropped.Add(1)
			// 每丢弃 100 个事件告警一次，避免日志风暴
			if dropped%100 == 1 {
				logger.Warn("慢消费者丢弃事件",
					"topic", t.name,
					"dropped", dropped)
			}
		}
	}
}

// subscribe 注册一个订阅者
func (t *topic[T]) subscribe(opts ...pkgif.SubscribeOpt) *subscription[T] {
	settings := pkgif.SubscribeSettings{Buffer: t.buffer}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Buffer <= 0 {
		settings.Buffer = t.buffer
	}

	sub := &subscription[T]{topic: t, out: make(chan T, settings.Buffer)}

	t.mu.Lock()
	t.subs = append(t.subs, sub)
	if t.keepLast && t.last != nil {
		sub.out <- *t.last
	}
	t.mu.Unlock()

	return sub
}

// remove 摘除订阅者
func (t *topic[T]) remove(sub *subscription[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subs {
		if s == sub {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return
		}
	}
}

// subscription 单个订阅者的接收端
type subscription[T any] struct {
	topic     *topic[T]
	out       chan T
	closeOnce sync.Once
}

// Out 返回接收事件的通道
func (s *subscription[T]) Out() <-chan T {
	return s.out
}

// Close 取消订阅
//
// 并发安全且幂等。先从主题摘除（此后发布方不再触碰通道），
// 再后台排空并关闭，未消费的事件被丢弃。
func (s *subscription[T]) Close() error {
	s.closeOnce.Do(func() {
		s.topic.remove(s)
		go func() {
			for range s.out {
			}
		}()
		close(s.out)
	})
	return nil
}
