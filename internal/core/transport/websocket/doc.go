// Package websocket 提供基于 WebSocket 的 HTTP 兼容传输后端
//
// 面向受限网络：HTTP 升级握手可穿越多数代理与防火墙。
// 每个目标维护一条持久连接，二进制消息承载编码后的信封帧；
// gorilla 要求单写者，写入由每连接互斥锁串行化，读取由每连接
// 恰好一个 readPump 完成。
//
// 无应用层确认，回执级别为 Sent——需要 Delivered 语义的消息
// 应由选路器优先分配给 tcp 或 quic。
package websocket
