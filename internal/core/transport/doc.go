// Package transport 提供传输后端的公共基础设施
//
// 包含三部分：
//
//   - Manager：后端注册表。注册后端时同步创建熔断器与健康监视器，
//     注销时一并移除，保证三者生命周期一致。
//   - RunState：统一的后端生命周期状态机
//     （Stopped → Starting → Running → Stopping → Stopped）。
//   - InboundQueue：有界入站队列，连接 goroutine 写入、引擎排空，
//     满时丢最老。
//
// 具体后端实现见子包 tcp、quic、websocket。
package transport
