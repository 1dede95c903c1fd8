package mocks

import (
	"context"
	"sync"
	"time"

	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/types"
)

// 确保实现了接口
var _ pkgif.Backend = (*MockBackend)(nil)

// MockBackend 模拟 Backend 接口实现
//
// 默认行为：对任何有地址的目标可达，评估固定返回 Latency/Reliability/
// Cost 字段的值，Send 立即成功并出具 Delivered 回执。
// 通过 XxxFunc 字段注入自定义行为。
type MockBackend struct {
	// 静态属性
	TransportType types.TransportType
	Caps          types.TransportCapabilities

	// 默认评估参数
	Latency     time.Duration
	Reliability float64
	Cost        float64
	Confidence  float64

	// 可覆盖的方法
	SendFunc     func(ctx context.Context, target types.TransportTarget, env *types.SecureEnvelope) (*types.DeliveryReceipt, error)
	EstimateFunc func(ctx context.Context, target types.TransportTarget) (types.TransportEstimate, error)
	CanReachFunc func(target types.TransportTarget) bool

	mu        sync.Mutex
	sendCalls []SendCall
	inbound   []types.IncomingMessage
	running   bool
	stats     types.TransportStats
}

// SendCall 记录 Send 调用
type SendCall struct {
	Target   types.TransportTarget
	Envelope *types.SecureEnvelope
	At       time.Time
}

// NewMockBackend 创建带有默认值的 MockBackend
func NewMockBackend(t types.TransportType) *MockBackend {
	return &MockBackend{
		TransportType: t,
		Caps: types.TransportCapabilities{
			MaxMessageSize: 16 << 20,
			Reliable:       true,
			Bidirectional:  true,
			SupportedUrgencies: []types.Urgency{
				types.UrgencyBackground,
				types.UrgencyInteractive,
				types.UrgencyRealTime,
				types.UrgencyCritical,
			},
		},
		Latency:     20 * time.Millisecond,
		Reliability: 0.95,
		Cost:        0.3,
		Confidence:  0.9,
	}
}

// Type 返回传输类型
func (m *MockBackend) Type() types.TransportType { return m.TransportType }

// Capabilities 返回静态能力描述
func (m *MockBackend) Capabilities() types.TransportCapabilities { return m.Caps }

// CanReach 检查是否可能到达目标
func (m *MockBackend) CanReach(target types.TransportTarget) bool {
	if m.CanReachFunc != nil {
		return m.CanReachFunc(target)
	}
	return target.HasAddress()
}

// Estimate 评估到目标的当前传输质量
func (m *MockBackend) Estimate(ctx context.Context, target types.TransportTarget) (types.TransportEstimate, error) {
	if m.EstimateFunc != nil {
		return m.EstimateFunc(ctx, target)
	}
	return types.TransportEstimate{
		Latency:     m.Latency,
		Reliability: m.Reliability,
		Cost:        m.Cost,
		Available:   true,
		Confidence:  m.Confidence,
	}, nil
}

// Send 投递一条信封
func (m *MockBackend) Send(ctx context.Context, target types.TransportTarget, env *types.SecureEnvelope) (*types.DeliveryReceipt, error) {
	m.mu.Lock()
	m.sendCalls = append(m.sendCalls, SendCall{Target: target, Envelope: env, At: time.Now()})
	m.mu.Unlock()

	if m.SendFunc != nil {
		r, err := m.SendFunc(ctx, target, env)
		m.recordSend(err == nil)
		return r, err
	}

	m.recordSend(true)
	return &types.DeliveryReceipt{
		MessageID:     env.MessageID,
		TransportUsed: m.TransportType,
		DeliveryTime:  time.Now(),
		TargetReached: target.Identifier,
		Confirmation:  types.ConfirmationDelivered,
	}, nil
}

// Receive 排空入站消息队列
func (m *MockBackend) Receive() []types.IncomingMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.inbound
	m.inbound = nil
	return out
}

// TestConnectivity 主动检测与目标的连通性
func (m *MockBackend) TestConnectivity(ctx context.Context, target types.TransportTarget) types.ConnectivityResult {
	return types.ConnectivityResult{Connected: m.CanReach(target), RTT: m.Latency}
}

// Start 启动后端
func (m *MockBackend) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	return nil
}

// Stop 停止后端
func (m *MockBackend) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// Stats 返回统计快照
func (m *MockBackend) Stats() types.TransportStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// ════════════════════════════════════════════════════════════════════════════
//                              测试辅助方法
// ════════════════════════════════════════════════════════════════════════════

// SendCalls 返回 Send 调用记录快照
func (m *MockBackend) SendCalls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SendCall, len(m.sendCalls))
	copy(out, m.sendCalls)
	return out
}

// SendCount 返回 Send 调用次数
func (m *MockBackend) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sendCalls)
}

// Running 返回是否处于运行状态
func (m *MockBackend) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// PushInbound 填充入站消息（模拟对端来件）
func (m *MockBackend) PushInbound(msgs ...types.IncomingMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound = append(m.inbound, msgs...)
}

// FailNext 让后续 Send 全部失败
//
// 返回恢复函数；传入的错误应为瞬时错误以触发重试路径。
func (m *MockBackend) FailNext(err error) (restore func()) {
	m.SendFunc = func(context.Context, types.TransportTarget, *types.SecureEnvelope) (*types.DeliveryReceipt, error) {
		return nil, err
	}
	return func() { m.SendFunc = nil }
}

func (m *MockBackend) recordSend(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.stats.MessagesSent++
	} else {
		m.stats.SendFailures++
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              MockResolver
// ════════════════════════════════════════════════════════════════════════════

// MockResolver 模拟 AddressResolver 接口实现
type MockResolver struct {
	// Table 实体到地址的静态映射
	Table map[types.EntityID]string

	// ResolveFunc 可覆盖的解析行为
	ResolveFunc func(ctx context.Context, entity types.EntityID) (string, error)
}

// Resolve 解析实体的传输层地址
func (m *MockResolver) Resolve(ctx context.Context, entity types.EntityID) (string, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, entity)
	}
	if addr, ok := m.Table[entity]; ok {
		return addr, nil
	}
	return "", pkgif.ErrUnreachable
}
