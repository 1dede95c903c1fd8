// Package eventbus 实现进程内事件总线
//
// 总线承载两类领域事件：
//   - 熔断状态变迁（types.CircuitEvent）：由熔断器注册表发布，
//     主题保留最近一次变迁，晚到的订阅者入场即看到当前链路状态
//   - 投递结果（types.DeliveryEvent）：由投递引擎逐次发布
//
// 发布为非阻塞：订阅者通道满时事件被丢弃并计数，Dropped 暴露
// 各主题的丢弃总量，慢消费者按节流告警。
//
// 基本用法：
//
//	bus := eventbus.NewBus(config.DefaultEventBusConfig())
//
//	sub := bus.SubscribeCircuit()
//	defer sub.Close()
//	go func() {
//	    for evt := range sub.Out() {
//	        fmt.Printf("熔断 %s: %s\n", evt.Resource, evt.Kind)
//	    }
//	}()
//
//	bus.PublishCircuit(types.CircuitEvent{Resource: "tcp"})
//
// Fx 集成：
//
//	app := fx.New(
//	    eventbus.Module(),
//	    fx.Invoke(func(bus pkgif.EventBus) {
//	        sub := bus.SubscribeDelivery()
//	        // ...
//	    }),
//	)
package eventbus
