// Package tcp 提供基于 TCP + yamux 的可靠流式传输后端
package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/yamux"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/internal/core/codec"
	"github.com/couriernet/go-courier/internal/core/transport"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/lib/log"
	"github.com/couriernet/go-courier/pkg/types"
)

var logger = log.Logger("transport/tcp")

// 确保实现了接口
var _ pkgif.Backend = (*Backend)(nil)

// dialFailureTTL 拨号失败的负缓存时长
//
// CanReach 在该窗口内对最近拨号失败的地址返回 false，避免
// 选路阶段反复把明确不可达的地址送进候选。
const dialFailureTTL = 30 * time.Second

// reachCacheSize 负缓存容量
const reachCacheSize = 256

// Backend TCP 传输后端
//
// 每个目标地址维护一条 yamux 会话，每条消息占用一个独立流：
// 写入 varint 帧，读取 1 字节确认，回执级别为 Delivered。
type Backend struct {
	cfg         config.TCPConfig
	dialTimeout time.Duration
	codec       *codec.Codec
	metrics     pkgif.MetricsReporter

	state   transport.RunState
	inbound *transport.InboundQueue

	mu       sync.RWMutex
	sessions map[string]*yamux.Session // 地址 → 出站会话
	listener net.Listener

	// 同目标并发拨号合并；拨号期间不持有 mu
	dialGroup singleflight.Group

	// 最近拨号失败时间的负缓存
	dialFailures *lru.Cache[string, time.Time]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New 创建 TCP 后端
func New(cfg config.TCPConfig, dialTimeout time.Duration, metrics pkgif.MetricsReporter) (*Backend, error) {
	failures, err := lru.New[string, time.Time](reachCacheSize)
	if err != nil {
		return nil, fmt.Errorf("tcp: reachability cache: %w", err)
	}
	return &Backend{
		cfg:          cfg,
		dialTimeout:  dialTimeout,
		codec:        codec.New(cfg.MaxMessageSize, codec.WithCompression(0)),
		metrics:      metrics,
		inbound:      transport.NewInboundQueue(0),
		sessions:     make(map[string]*yamux.Session),
		dialFailures: failures,
	}, nil
}

// Type 返回传输类型
func (b *Backend) Type() types.TransportType {
	return types.TransportTCP
}

// Capabilities 返回静态能力描述
func (b *Backend) Capabilities() types.TransportCapabilities {
	return types.TransportCapabilities{
		MaxMessageSize: b.cfg.MaxMessageSize,
		Reliable:       true,
		RealTime:       false,
		Bidirectional:  true,
		SupportedUrgencies: []types.Urgency{
			types.UrgencyBackground,
			types.UrgencyInteractive,
			types.UrgencyRealTime,
			types.UrgencyCritical,
		},
		Features: []string{"multiplexing", "compression"},
	}
}

// CanReach 检查是否可能到达目标
//
// 仅做地址解析与本地状态检查，不发起网络 I/O：
// 有活跃会话直接可达；最近拨号失败的地址在负缓存窗口内不可达。
func (b *Backend) CanReach(target types.TransportTarget) bool {
	if !target.HasAddress() {
		return false
	}
	if _, _, err := net.SplitHostPort(target.Address); err != nil {
		return false
	}

	if b.activeSession(target.Address) != nil {
		return true
	}
	if failedAt, ok := b.dialFailures.Get(target.Address); ok {
		if time.Since(failedAt) < dialFailureTTL {
			return false
		}
		b.dialFailures.Remove(target.Address)
	}
	return true
}

// Estimate 评估到目标的当前传输质量
//
// 有活跃会话时用 yamux Ping 实测 RTT（高置信度）；
// 无会话时给出基于传输特性的默认评估（低置信度）。
func (b *Backend) Estimate(ctx context.Context, target types.TransportTarget) (types.TransportEstimate, error) {
	if err := b.state.CheckRunning(); err != nil {
		return types.Unavailable(), err
	}
	if !b.CanReach(target) {
		return types.Unavailable(), nil
	}

	if sess := b.activeSession(target.Address); sess != nil {
		rtt, err := sess.Ping()
		if err == nil {
			return types.TransportEstimate{
				Latency:     rtt/2 + time.Millisecond,
				Reliability: b.metrics.Stats(types.TransportTCP).ReliabilityScore,
				Cost:        0.2,
				Available:   true,
				Confidence:  0.9,
			}.Clamp(), nil
		}
		// 会话已坏：移除后按冷启动评估
		b.removeSession(target.Address, sess)
	}

	return types.TransportEstimate{
		Latency:     50 * time.Millisecond,
		Reliability: 0.9,
		Cost:        0.2,
		Available:   true,
		Confidence:  0.4,
	}, nil
}

// Send 投递一条信封
func (b *Backend) Send(ctx context.Context, target types.TransportTarget, env *types.SecureEnvelope) (*types.DeliveryReceipt, error) {
	if err := b.state.CheckRunning(); err != nil {
		return nil, err
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	// 容量预检：超限消息不触碰网络
	if !b.Capabilities().FitsMessage(env.WireSize()) {
		return nil, fmt.Errorf("%w: %d bytes over tcp limit %d",
			pkgif.ErrMessageTooLarge, env.WireSize(), b.cfg.MaxMessageSize)
	}
	if !target.HasAddress() {
		return nil, pkgif.ErrUnreachable
	}

	start := time.Now()
	n, err := b.sendOnce(ctx, target.Address, env)
	if err != nil {
		b.metrics.RecordSendFailure(types.TransportTCP)
		return nil, err
	}
	b.metrics.RecordSend(types.TransportTCP, int64(n), time.Since(start))

	return &types.DeliveryReceipt{
		MessageID:     env.MessageID,
		TransportUsed: types.TransportTCP,
		DeliveryTime:  time.Now(),
		TargetReached: target.Identifier,
		Confirmation:  types.ConfirmationDelivered,
		Metadata:      map[string]string{"remote_addr": target.Address},
	}, nil
}

// sendOnce 执行一次帧写入与确认读取，返回写出字节数
func (b *Backend) sendOnce(ctx context.Context, addr string, env *types.SecureEnvelope) (int, error) {
	sess, err := b.session(ctx, addr)
	if err != nil {
		return 0, err
	}

	stream, err := sess.OpenStream()
	if err != nil {
		// 会话已坏：下次发送重新拨号
		b.removeSession(addr, sess)
		return 0, pkgif.MarkTransient(fmt.Errorf("tcp: open stream: %w", err))
	}
	defer stream.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetDeadline(deadline)
	} else {
		_ = stream.SetDeadline(time.Now().Add(b.cfg.ConnectionTimeout.Duration()))
	}

	n, err := b.codec.WriteEnvelope(stream, env)
	if err != nil {
		// 写中途断连属于瞬时失败
		return 0, pkgif.MarkTransient(fmt.Errorf("tcp: write envelope: %w", err))
	}

	ack, err := transport.ReadAck(stream)
	if err != nil {
		return 0, pkgif.MarkTransient(fmt.Errorf("tcp: read ack: %w", err))
	}
	if ack == transport.AckRejected {
		return 0, fmt.Errorf("tcp: remote rejected message %s", env.MessageID)
	}
	return n, nil
}

// Receive 排空入站消息队列
func (b *Backend) Receive() []types.IncomingMessage {
	if !b.state.Running() {
		return nil
	}
	return b.inbound.Drain()
}

// TestConnectivity 主动检测与目标的连通性
func (b *Backend) TestConnectivity(ctx context.Context, target types.TransportTarget) types.ConnectivityResult {
	if err := b.state.CheckRunning(); err != nil {
		return types.ConnectivityResult{Error: err.Error()}
	}
	if !target.HasAddress() {
		return types.ConnectivityResult{Error: pkgif.ErrUnreachable.Error()}
	}

	sess, err := b.session(ctx, target.Address)
	if err != nil {
		return types.ConnectivityResult{Error: err.Error()}
	}

	rtt, err := sess.Ping()
	if err != nil {
		b.removeSession(target.Address, sess)
		return types.ConnectivityResult{Error: fmt.Sprintf("ping: %v", err)}
	}

	return types.ConnectivityResult{
		Connected: true,
		RTT:       rtt,
		Quality:   qualityFromRTT(rtt),
		Details:   map[string]string{"remote_addr": target.Address},
	}
}

// qualityFromRTT 将 RTT 映射到 [0,1] 质量评分
func qualityFromRTT(rtt time.Duration) float64 {
	// 100ms 处约 0.5，越低越好
	return 1.0 - float64(rtt)/float64(rtt+100*time.Millisecond)
}

// Start 启动后端
func (b *Backend) Start(_ context.Context) error {
	if !b.state.BeginStart() {
		return nil
	}

	addr := net.JoinHostPort(b.cfg.ListenAddr, fmt.Sprintf("%d", b.cfg.ListenPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		b.state.AbortStart()
		return fmt.Errorf("tcp: listen %s: %w", addr, err)
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.mu.Lock()
	b.listener = ln
	b.mu.Unlock()

	b.wg.Add(1)
	go b.acceptLoop(ln)

	b.state.FinishStart()
	logger.Info("TCP 后端已启动", "listen_addr", ln.Addr().String())
	return nil
}

// Stop 停止后端
func (b *Backend) Stop(ctx context.Context) error {
	if !b.state.BeginStop() {
		return nil
	}
	defer b.state.FinishStop()

	b.cancel()

	var errs error
	b.mu.Lock()
	if b.listener != nil {
		errs = multierr.Append(errs, b.listener.Close())
		b.listener = nil
	}
	sessions := b.sessions
	b.sessions = make(map[string]*yamux.Session)
	b.mu.Unlock()

	for _, sess := range sessions {
		errs = multierr.Append(errs, sess.Close())
	}

	// 等待连接 goroutine 退出，受调用方 ctx 约束
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = multierr.Append(errs, ctx.Err())
	}

	b.metrics.SetActiveConnections(types.TransportTCP, 0)
	logger.Info("TCP 后端已停止")
	return errs
}

// Stats 返回统计快照
func (b *Backend) Stats() types.TransportStats {
	st := b.metrics.Stats(types.TransportTCP)
	st.Custom = map[string]float64{
		"inbound_queue_len": float64(b.inbound.Len()),
		"inbound_dropped":   float64(b.inbound.Dropped()),
	}
	return st
}

// ListenAddr 返回实际监听地址（随机端口场景下用于测试与示例）
func (b *Backend) ListenAddr() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}
