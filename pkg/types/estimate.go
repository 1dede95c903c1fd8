package types

import "time"

// ============================================================================
//                              TransportEstimate - 传输质量评估
// ============================================================================

// TransportEstimate 传输后端对指定目标的当次质量评估
//
// 评估在每次选路决策时重新生成，不作为持久状态缓存。
// Confidence 表示评估依据的新鲜程度：基于活跃连接 RTT 的评估
// 置信度高，基于历史均值或默认值的评估置信度低。
type TransportEstimate struct {
	// Latency 预计单程投递延迟
	Latency time.Duration `json:"latency"`

	// Reliability 预计成功率 [0,1]
	Reliability float64 `json:"reliability"`

	// BandwidthBPS 预计可用带宽（字节/秒，0 表示未知）
	BandwidthBPS int64 `json:"bandwidth_bps"`

	// Cost 相对成本（无量纲，越低越好）
	Cost float64 `json:"cost"`

	// Available 当前是否可用于投递
	Available bool `json:"available"`

	// Confidence 评估置信度 [0,1]
	Confidence float64 `json:"confidence"`
}

// Unavailable 构造一个高置信度的不可用评估
//
// 后端明确判定目标不可达时使用（如地址无法解析）。
func Unavailable() TransportEstimate {
	return TransportEstimate{
		Available:  false,
		Confidence: 0.95,
	}
}

// Clamp 将 Reliability 与 Confidence 收敛到 [0,1]
func (e TransportEstimate) Clamp() TransportEstimate {
	e.Reliability = clamp01(e.Reliability)
	e.Confidence = clamp01(e.Confidence)
	return e
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
