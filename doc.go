// Package courier 实现自适应多传输投递引擎
//
// Courier 面向联邦消息网络：上层把加密好的信封（SecureEnvelope）交给
// 引擎，引擎在 TCP、QUIC、WebSocket 等传输后端之间按紧急程度与实时
// 质量评估选路，经熔断器、重试策略与健康监视保护后完成投递，并返回
// 带确认级别的回执。
//
// 最小用法：
//
//	engine, err := courier.New(courier.WithMinimalPreset())
//	if err != nil {
//		return err
//	}
//	if err := engine.Start(ctx); err != nil {
//		return err
//	}
//	defer engine.Close()
//
//	receipt, err := engine.Send(ctx, target, envelope, types.UrgencyInteractive)
//
// 引擎不理解信封内容：签名、加密与身份解析由外部协作方完成，
// 引擎只负责把字节可靠地送到目标实体。
package courier
