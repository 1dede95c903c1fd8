// Package interfaces 定义 Courier 公共接口
//
// 本文件定义 EventBus 接口，广播投递结果与熔断状态变迁。
package interfaces

import "github.com/couriernet/go-courier/pkg/types"

// EventBus 定义事件总线接口
//
// 总线只承载两类领域事件：熔断状态变迁与投递结果。
// 发布为非阻塞：慢消费者的溢出事件被丢弃并计数。
type EventBus interface {
	// PublishCircuit 广播一次熔断状态变迁
	PublishCircuit(evt types.CircuitEvent)

	// PublishDelivery 广播一次投递结果
	PublishDelivery(evt types.DeliveryEvent)

	// SubscribeCircuit 订阅熔断状态变迁
	//
	// 晚到的订阅会补发最近一次变迁，订阅者立即看到当前链路状态。
	SubscribeCircuit(opts ...SubscribeOpt) CircuitSubscription

	// SubscribeDelivery 订阅投递结果
	//
	// 只分发订阅之后发生的事件。
	SubscribeDelivery(opts ...SubscribeOpt) DeliverySubscription

	// Dropped 返回各主题因慢消费者被丢弃的事件计数
	Dropped() map[string]int64
}

// CircuitSubscription 定义熔断事件订阅接口
type CircuitSubscription interface {
	// Out 返回接收事件的通道
	Out() <-chan types.CircuitEvent

	// Close 取消订阅
	Close() error
}

// DeliverySubscription 定义投递事件订阅接口
type DeliverySubscription interface {
	// Out 返回接收事件的通道
	Out() <-chan types.DeliveryEvent

	// Close 取消订阅
	Close() error
}

// SubscribeOpt 订阅选项函数类型
type SubscribeOpt func(*SubscribeSettings)

// SubscribeSettings 订阅设置（导出以供实现使用）
type SubscribeSettings struct {
	Buffer int
}

// BufSize 设置订阅缓冲区大小
//
// 覆盖总线配置的默认值；非正值被忽略。
func BufSize(size int) SubscribeOpt {
	return func(s *SubscribeSettings) {
		s.Buffer = size
	}
}
