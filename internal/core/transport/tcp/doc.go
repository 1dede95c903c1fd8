// Package tcp 提供基于 TCP + yamux 的可靠流式传输后端
//
// 连接模型：每个目标地址一条长连接，升级为 yamux 会话多路复用；
// 每条消息占用一个独立流，写入 varint 帧后读取 1 字节应用层确认，
// 因此回执级别为 Delivered。
//
// 入站与出站会话同构：双方都在会话上接受流，出站连接也能承载
// 对端回推的消息。会话失效在下一次发送时惰性重建。
package tcp
