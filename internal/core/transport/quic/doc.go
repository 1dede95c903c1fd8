// Package quic 提供基于 QUIC 的低延迟安全传输后端
//
// 拨号与监听共享一个 quic.Transport，即单 UDP socket 同时服务
// 出站与入站连接。每条消息占用一个双向流：写入 varint 帧后
// 关闭写方向（FIN），读取 1 字节应用层确认，回执级别 Delivered。
//
// TLS 1.3 为传输层加密使用临时自签名证书；消息本身的保密性
// 由上游加密组件在信封层保证，引擎不依赖证书身份。
package quic
