package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/couriernet/go-courier/pkg/types"
)

func est(latency time.Duration, reliability, cost float64) types.TransportEstimate {
	return types.TransportEstimate{
		Latency:     latency,
		Reliability: reliability,
		Cost:        cost,
		Available:   true,
		Confidence:  1.0,
	}
}

// TestScore_LatencyDominatesRealTime 测试实时场景延迟主导
func TestScore_LatencyDominatesRealTime(t *testing.T) {
	fast := est(10*time.Millisecond, 0.9, 0.3)
	slow := est(200*time.Millisecond, 0.99, 0.1)

	assert.Greater(t,
		score(fast, types.UrgencyRealTime),
		score(slow, types.UrgencyRealTime),
		"实时消息偏向低延迟，即使可靠性略低")
}

// TestScore_CostDominatesBackground 测试后台场景成本主导
func TestScore_CostDominatesBackground(t *testing.T) {
	cheap := est(200*time.Millisecond, 0.9, 0.1)
	expensive := est(10*time.Millisecond, 0.9, 0.9)

	assert.Greater(t,
		score(cheap, types.UrgencyBackground),
		score(expensive, types.UrgencyBackground),
		"后台消息偏向低成本，容忍高延迟")
}

// TestScore_ReliabilityMattersForCritical 测试关键场景可靠性权重
func TestScore_ReliabilityMattersForCritical(t *testing.T) {
	reliable := est(50*time.Millisecond, 0.99, 0.5)
	flaky := est(50*time.Millisecond, 0.5, 0.5)

	assert.Greater(t,
		score(reliable, types.UrgencyCritical),
		score(flaky, types.UrgencyCritical))
}

// TestScore_ConfidenceDiscountsReliability 测试置信度折减可靠性贡献
func TestScore_ConfidenceDiscountsReliability(t *testing.T) {
	warm := est(50*time.Millisecond, 0.95, 0.3)
	cold := warm
	cold.Confidence = 0.4

	assert.Greater(t,
		score(warm, types.UrgencyInteractive),
		score(cold, types.UrgencyInteractive),
		"低置信度评估的可靠性贡献被折减")
}

// TestScore_LatencyNormalization 测试延迟归一化中点
func TestScore_LatencyNormalization(t *testing.T) {
	// 100ms 处 latNorm = 0.5
	e := est(100*time.Millisecond, 1.0, 0)
	w := urgencyWeights(types.UrgencyRealTime)
	expected := w.reliability*1.0 - w.latency*0.5
	assert.InDelta(t, expected, score(e, types.UrgencyRealTime), 1e-9)
}

// TestUrgencyWeights_SumToOne 测试各档权重之和
func TestUrgencyWeights_SumToOne(t *testing.T) {
	for _, u := range []types.Urgency{
		types.UrgencyBackground, types.UrgencyInteractive,
		types.UrgencyRealTime, types.UrgencyCritical,
	} {
		w := urgencyWeights(u)
		assert.InDelta(t, 1.0, w.latency+w.reliability+w.cost, 1e-9, "urgency %v", u)
	}
}
