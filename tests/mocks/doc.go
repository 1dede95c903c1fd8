// Package mocks 提供统一的测试 Mock 实现
//
// # 核心 Mock
//
//   - MockBackend: 模拟 interfaces.Backend，支持可编程的评估、
//     发送失败注入与入站消息填充
//   - MockResolver: 模拟 interfaces.AddressResolver
//
// # 设计原则
//
// 1. 函数式注入: 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 关键 Mock 记录调用历史，便于验证测试行为
package mocks
