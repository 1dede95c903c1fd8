// Package types 定义 Courier 公共数据类型
//
// 本包包含投递引擎各组件共享的值类型：
//   - SecureEnvelope: 加密信封（引擎视为不透明载荷）
//   - TransportTarget: 投递目标
//   - TransportCapabilities: 传输能力描述
//   - TransportEstimate: 传输质量评估
//   - DeliveryReceipt: 投递回执
//   - CircuitEvent: 熔断器状态事件
//
// 所有类型均为纯数据结构，不包含 I/O 逻辑。
package types
