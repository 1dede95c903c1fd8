// Package selector 实现紧急程度感知的传输选路与投递引擎
//
// 一次 Send 的完整路径：
//
//  1. 候选过滤：CanReach、紧急程度支持、容量限制。
//  2. 并行质量评估：每后端独立超时，singleflight 合并并发重复探测。
//  3. 排序：紧急程度决定延迟/可靠性/成本权重，目标提示的首选
//     传输获得固定加成。
//  4. 按序投递：熔断放行检查 → 带重试的后端 Send → 每次尝试的
//     结果计入熔断器与健康监视器；第一个成功即返回。
//  5. 候选耗尽：返回 ErrNoTransportAvailable 并包裹最后一个失败。
//
// 引擎跨调用不保留选路状态；评分只在同一次决策内可比。
package selector
