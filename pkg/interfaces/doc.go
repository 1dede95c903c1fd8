// Package interfaces 定义 Courier 公共接口
//
// 本包是引擎各组件之间的契约层：
//   - Backend: 传输后端统一契约
//   - DeliveryEngine: 投递引擎门面
//   - CircuitBreaker / HealthMonitor: 弹性组件
//   - EventBus: 事件总线
//   - MetricsReporter: 指标上报
//   - AddressResolver: 外部地址解析协作方
//
// 实现位于 internal/，通过 fx 模块装配。
package interfaces
