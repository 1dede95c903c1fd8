package selector

import (
	"time"

	"github.com/couriernet/go-courier/pkg/types"
)

// weights 评分权重组
type weights struct {
	latency     float64
	reliability float64
	cost        float64
}

// urgencyWeights 按紧急程度返回权重
//
// Critical/RealTime 延迟主导，Background 成本主导，Interactive 均衡。
func urgencyWeights(u types.Urgency) weights {
	switch u {
	case types.UrgencyCritical:
		return weights{latency: 0.6, reliability: 0.35, cost: 0.05}
	case types.UrgencyRealTime:
		return weights{latency: 0.7, reliability: 0.25, cost: 0.05}
	case types.UrgencyInteractive:
		return weights{latency: 0.4, reliability: 0.4, cost: 0.2}
	default: // Background
		return weights{latency: 0.15, reliability: 0.35, cost: 0.5}
	}
}

// score 计算候选评分
//
// score = wRel*(reliability*confidence) − wLat*latNorm − wCost*costNorm
//
// 延迟与成本分别归一到 [0,1)：latNorm 在 100ms 处为 0.5，
// costNorm 在成本 1.0 处为 0.5。评分只用于同一目标下的相对排序。
func score(est types.TransportEstimate, u types.Urgency) float64 {
	w := urgencyWeights(u)

	latNorm := float64(est.Latency) / float64(est.Latency+100*time.Millisecond)
	costNorm := est.Cost / (est.Cost + 1.0)

	return w.reliability*(est.Reliability*est.Confidence) -
		w.latency*latNorm -
		w.cost*costNorm
}
