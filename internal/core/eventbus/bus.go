// Package eventbus 广播投递结果与熔断状态变迁
package eventbus

import (
	"github.com/couriernet/go-courier/config"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/lib/log"
	"github.com/couriernet/go-courier/pkg/types"
)

var logger = log.Logger("core/eventbus")

// 确保实现了接口
var _ pkgif.EventBus = (*Bus)(nil)

// 主题名称
const (
	topicCircuit  = "circuit"
	topicDelivery = "delivery"
)

// Bus 进程内事件总线
//
// 两个固定主题：熔断状态变迁与投递结果。熔断主题保留最近一次
// 变迁，晚到的订阅者入场即看到当前链路状态；投递主题只分发
// 订阅之后发生的事件。
type Bus struct {
	circuit  *topic[types.CircuitEvent]
	delivery *topic[types.DeliveryEvent]
}

// NewBus 创建事件总线
func NewBus(cfg config.EventBusConfig) *Bus {
	buffer := cfg.SubscriberBuffer
	if buffer <= 0 {
		buffer = config.DefaultEventBusConfig().SubscriberBuffer
	}
	return &Bus{
		circuit:  newTopic[types.CircuitEvent](topicCircuit, buffer, true),
		delivery: newTopic[types.DeliveryEvent](topicDelivery, buffer, false),
	}
}

// PublishCircuit 广播一次熔断状态变迁
func (b *Bus) PublishCircuit(evt types.CircuitEvent) {
	b.circuit.publish(evt)
}

// PublishDelivery 广播一次投递结果
func (b *Bus) PublishDelivery(evt types.DeliveryEvent) {
	b.delivery.publish(evt)
}

// SubscribeCircuit 订阅熔断状态变迁
func (b *Bus) SubscribeCircuit(opts ...pkgif.SubscribeOpt) pkgif.CircuitSubscription {
	return b.circuit.subscribe(opts...)
}

// SubscribeDelivery 订阅投递结果
func (b *Bus) SubscribeDelivery(opts ...pkgif.SubscribeOpt) pkgif.DeliverySubscription {
	return b.delivery.subscribe(opts...)
}

// Dropped 返回各主题的慢消费者丢弃计数
func (b *Bus) Dropped() map[string]int64 {
	return map[string]int64{
		topicCircuit:  b.circuit.dropped.Load(),
		topicDelivery: b.delivery.dropped.Load(),
	}
}
