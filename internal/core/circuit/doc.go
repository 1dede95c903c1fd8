// Package circuit 实现按资源隔离的熔断器
//
// 每个受保护资源（通常是一个传输后端）持有独立的熔断器实例，
// 由 Registry 按资源键管理。调用方以 check-attempt-record 三步
// 使用熔断器：
//
//	br := registry.Get("tcp")
//	if !br.Allow() {
//	    return interfaces.ErrCircuitOpen
//	}
//	err := backend.Send(ctx, target, env)
//	if err != nil {
//	    br.RecordFailure()
//	} else {
//	    br.RecordSuccess()
//	}
//
// 熔断器自身不调用被保护函数，也不区分错误类型——
// 调用方负责只把瞬时网络失败计入失败计数。
//
// 每次状态转换与快速拒绝都通过事件总线广播 types.CircuitEvent，
// 事件仅用于观测，不参与正确性。
package circuit
