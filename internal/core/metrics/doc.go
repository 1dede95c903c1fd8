// Package metrics 实现传输指标收集与导出
//
// Collector 按传输类型维护原子计数器与两个指数移动平均
// （投递延迟、成功率），数据路径开销接近零。选路器用这两个
// 移动平均为后端打分；Stats/AllStats 导出即时快照供诊断。
//
// 启用 Prometheus 时 PromReporter 包装 Collector，把同样的
// 数据点写入 prometheus.Registry，由调用方挂载 promhttp 暴露。
package metrics
