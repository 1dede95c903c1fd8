// Package quic 提供基于 QUIC 的低延迟安全传输后端
package quic

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/internal/core/codec"
	"github.com/couriernet/go-courier/internal/core/transport"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/lib/log"
	"github.com/couriernet/go-courier/pkg/types"
)

var logger = log.Logger("transport/quic")

// 确保实现了接口
var _ pkgif.Backend = (*Backend)(nil)

// closeCodeShutdown 正常停机的应用层关闭码
const closeCodeShutdown = 0x0

// Backend QUIC 传输后端
//
// 拨号与监听共享同一个 quic.Transport（单 UDP socket），
// 每条消息占用一个双向流：写帧后关闭写方向（FIN），
// 读取 1 字节确认，回执级别为 Delivered。
type Backend struct {
	cfg         config.QUICConfig
	dialTimeout time.Duration
	codec       *codec.Codec
	metrics     pkgif.MetricsReporter

	state   transport.RunState
	inbound *transport.InboundQueue

	mu       sync.RWMutex
	conns    map[string]quic.Connection // 地址 → 出站连接
	tr       *quic.Transport
	listener *quic.Listener
	tlsConf  *tls.Config

	// 同目标并发拨号合并；拨号期间不持有 mu
	dialGroup singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New 创建 QUIC 后端
func New(cfg config.QUICConfig, dialTimeout time.Duration, metrics pkgif.MetricsReporter) *Backend {
	return &Backend{
		cfg:         cfg,
		dialTimeout: dialTimeout,
		codec:       codec.New(cfg.MaxMessageSize, codec.WithCompression(0)),
		metrics:     metrics,
		inbound:     transport.NewInboundQueue(0),
		conns:       make(map[string]quic.Connection),
	}
}

// Type 返回传输类型
func (b *Backend) Type() types.TransportType {
	return types.TransportQUIC
}

// Capabilities 返回静态能力描述
func (b *Backend) Capabilities() types.TransportCapabilities {
	return types.TransportCapabilities{
		MaxMessageSize: b.cfg.MaxMessageSize,
		Reliable:       true,
		RealTime:       true,
		Bidirectional:  true,
		Encrypted:      true,
		SupportedUrgencies: []types.Urgency{
			types.UrgencyBackground,
			types.UrgencyInteractive,
			types.UrgencyRealTime,
			types.UrgencyCritical,
		},
		Features: []string{"multiplexing", "0rtt-capable", "compression"},
	}
}

// CanReach 检查是否可能到达目标
func (b *Backend) CanReach(target types.TransportTarget) bool {
	if !target.HasAddress() {
		return false
	}
	_, _, err := net.SplitHostPort(target.Address)
	return err == nil
}

// Estimate 评估到目标的当前传输质量
func (b *Backend) Estimate(ctx context.Context, target types.TransportTarget) (types.TransportEstimate, error) {
	if err := b.state.CheckRunning(); err != nil {
		return types.Unavailable(), err
	}
	if !b.CanReach(target) {
		return types.Unavailable(), nil
	}

	stats := b.metrics.Stats(types.TransportQUIC)
	if b.activeConn(target.Address) != nil {
		latency := time.Duration(stats.AverageLatencyMs * float64(time.Millisecond))
		if latency <= 0 {
			latency = 20 * time.Millisecond
		}
		return types.TransportEstimate{
			Latency:     latency,
			Reliability: stats.ReliabilityScore,
			Cost:        0.3,
			Available:   true,
			Confidence:  0.8,
		}.Clamp(), nil
	}

	return types.TransportEstimate{
		Latency:     30 * time.Millisecond,
		Reliability: 0.92,
		Cost:        0.3,
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
	if !b.Capabilities().FitsMessage(env.WireSize()) {
		return nil, fmt.Errorf("%w: %d bytes over quic limit %d",
			pkgif.ErrMessageTooLarge, env.WireSize(), b.cfg.MaxMessageSize)
	}
	if !target.HasAddress() {
		return nil, pkgif.ErrUnreachable
	}

	start := time.Now()
	n, err := b.sendOnce(ctx, target.Address, env)
	if err != nil {
		b.metrics.RecordSendFailure(types.TransportQUIC)
		return nil, err
	}
	b.metrics.RecordSend(types.TransportQUIC, int64(n), time.Since(start))

	return &types.DeliveryReceipt{
		MessageID:     env.MessageID,
		TransportUsed: types.TransportQUIC,
		DeliveryTime:  time.Now(),
		TargetReached: target.Identifier,
		Confirmation:  types.ConfirmationDelivered,
		Metadata:      map[string]string{"remote_addr": target.Address},
	}, nil
}

// sendOnce 打开流、写帧、FIN、读确认
func (b *Backend) sendOnce(ctx context.Context, addr string, env *types.SecureEnvelope) (int, error) {
	conn, err := b.conn(ctx, addr)
	if err != nil {
		return 0, err
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		b.removeConn(addr, conn)
		return 0, pkgif.MarkTransient(fmt.Errorf("quic: open stream: %w", err))
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetDeadline(deadline)
	} else {
		_ = stream.SetDeadline(time.Now().Add(b.cfg.ConnectionTimeout.Duration()))
	}

	n, err := b.codec.WriteEnvelope(stream, env)
	if err != nil {
		stream.CancelRead(closeCodeShutdown)
		_ = stream.Close()
		// 写中途断连属于瞬时失败
		return 0, pkgif.MarkTransient(fmt.Errorf("quic: write envelope: %w", err))
	}
	// FIN：写方向结束，对端读到 EOF 即知帧完整
	if err := stream.Close(); err != nil {
		return 0, pkgif.MarkTransient(fmt.Errorf("quic: close stream: %w", err))
	}

	ack, err := transport.ReadAck(stream)
	if err != nil {
		return 0, pkgif.MarkTransient(fmt.Errorf("quic: read ack: %w", err))
	}
	if ack == transport.AckRejected {
		return 0, fmt.Errorf("quic: remote rejected message %s", env.MessageID)
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
//
// 复用或建立连接并计量一次流往返。
func (b *Backend) TestConnectivity(ctx context.Context, target types.TransportTarget) types.ConnectivityResult {
	if err := b.state.CheckRunning(); err != nil {
		return types.ConnectivityResult{Error: err.Error()}
	}
	if !b.CanReach(target) {
		return types.ConnectivityResult{Error: pkgif.ErrUnreachable.Error()}
	}

	start := time.Now()
	conn, err := b.conn(ctx, target.Address)
	if err != nil {
		return types.ConnectivityResult{Error: err.Error()}
	}
	rtt := time.Since(start)
	if rtt == 0 {
		rtt = time.Millisecond
	}

	return types.ConnectivityResult{
		Connected: true,
		RTT:       rtt,
		Quality:   1.0 - float64(rtt)/float64(rtt+100*time.Millisecond),
		Details: map[string]string{
			"remote_addr": conn.RemoteAddr().String(),
			"alpn":        alpnProtocol,
		},
	}
}

// quicConfig 构造 quic-go 连接配置
func (b *Backend) quicConfig() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:     b.cfg.MaxIdleTimeout.Duration(),
		KeepAlivePeriod:    b.cfg.KeepAlivePeriod.Duration(),
		MaxIncomingStreams: b.cfg.MaxIncomingStreams,
	}
}

// Start 启动后端
func (b *Backend) Start(_ context.Context) error {
	if !b.state.BeginStart() {
		return nil
	}

	tlsConf, err := generateTLSConfig()
	if err != nil {
		b.state.AbortStart()
		return err
	}

	addr := net.JoinHostPort(b.cfg.ListenAddr, fmt.Sprintf("%d", b.cfg.ListenPort))
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		b.state.AbortStart()
		return fmt.Errorf("quic: resolve %s: %w", addr, err)
	}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		b.state.AbortStart()
		return fmt.Errorf("quic: listen udp %s: %w", addr, err)
	}

	tr := &quic.Transport{Conn: udpConn}
	ln, err := tr.Listen(tlsConf, b.quicConfig())
	if err != nil {
		_ = udpConn.Close()
		b.state.AbortStart()
		return fmt.Errorf("quic: listen: %w", err)
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.mu.Lock()
	b.tr = tr
	b.listener = ln
	b.tlsConf = tlsConf
	b.mu.Unlock()

	b.wg.Add(1)
	go b.acceptLoop(ln)

	b.state.FinishStart()
	logger.Info("QUIC 后端已启动", "listen_addr", ln.Addr().String())
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
	conns := b.conns
	b.conns = make(map[string]quic.Connection)
	ln := b.listener
	tr := b.tr
	b.listener = nil
	b.tr = nil
	b.mu.Unlock()

	for _, conn := range conns {
		errs = multierr.Append(errs, conn.CloseWithError(closeCodeShutdown, "shutdown"))
	}
	if ln != nil {
		errs = multierr.Append(errs, ln.Close())
	}
	if tr != nil {
		errs = multierr.Append(errs, tr.Close())
	}

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

	b.metrics.SetActiveConnections(types.TransportQUIC, 0)
	logger.Info("QUIC 后端已停止")
	return errs
}

// Stats 返回统计快照
func (b *Backend) Stats() types.TransportStats {
	st := b.metrics.Stats(types.TransportQUIC)
	st.Custom = map[string]float64{
		"inbound_queue_len": float64(b.inbound.Len()),
		"inbound_dropped":   float64(b.inbound.Dropped()),
	}
	return st
}

// ListenAddr 返回实际监听地址
func (b *Backend) ListenAddr() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}

// activeConn 返回指定地址的存活连接
func (b *Backend) activeConn(addr string) quic.Connection {
	b.mu.RLock()
	conn := b.conns[addr]
	b.mu.RUnlock()
	if conn == nil {
		return nil
	}
	select {
	case <-conn.Context().Done():
		return nil
	default:
		return conn
	}
}

// conn 获取或建立到指定地址的连接
//
// 握手在 mu 之外进行：同目标的并发拨号经 singleflight 合并为一次，
// 慢目标不会阻塞其他地址的发送与评估路径。
func (b *Backend) conn(ctx context.Context, addr string) (quic.Connection, error) {
	if conn := b.activeConn(addr); conn != nil {
		return conn, nil
	}

	v, err, _ := b.dialGroup.Do(addr, func() (interface{}, error) {
		// double-check：前一次合并调用可能已建好连接
		if conn := b.activeConn(addr); conn != nil {
			return conn, nil
		}

		b.mu.RLock()
		tr := b.tr
		tlsConf := b.tlsConf
		b.mu.RUnlock()
		if tr == nil {
			return nil, pkgif.ErrNotRunning
		}

		udpAddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", pkgif.ErrUnreachable, err)
		}

		dialCtx, cancel := context.WithTimeout(ctx, b.dialTimeout)
		defer cancel()

		conn, err := tr.Dial(dialCtx, udpAddr, tlsConf.Clone(), b.quicConfig())
		if err != nil {
			return nil, pkgif.MarkTransient(fmt.Errorf("quic: dial %s: %w", addr, err))
		}

		b.mu.Lock()
		b.conns[addr] = conn
		b.metrics.SetActiveConnections(types.TransportQUIC, int64(len(b.conns)))
		b.mu.Unlock()

		// 出站连接同样接受对端回推的流
		b.wg.Add(1)
		go b.serveConn(conn)
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(quic.Connection), nil
}

// removeConn 移除失效连接
func (b *Backend) removeConn(addr string, conn quic.Connection) {
	b.mu.Lock()
	if b.conns[addr] == conn {
		delete(b.conns, addr)
	}
	b.metrics.SetActiveConnections(types.TransportQUIC, int64(len(b.conns)))
	b.mu.Unlock()
}

// acceptLoop 接受入站连接
func (b *Backend) acceptLoop(ln *quic.Listener) {
	defer b.wg.Done()

	for {
		conn, err := ln.Accept(b.ctx)
		if err != nil {
			if b.ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return
			}
			logger.Warn("accept 失败", "error", err)
			continue
		}

		b.wg.Add(1)
		go b.serveConn(conn)
	}
}

// serveConn 服务一条连接：逐流接收消息
func (b *Backend) serveConn(conn quic.Connection) {
	defer b.wg.Done()

	remote := conn.RemoteAddr().String()
	for {
		stream, err := conn.AcceptStream(b.ctx)
		if err != nil {
			// 连接结束（关闭、空闲超时或停机）
			return
		}

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.handleStream(stream, remote)
		}()
	}
}

// handleStream 处理一个入站流：读帧、入队、回确认
func (b *Backend) handleStream(stream quic.Stream, remote string) {
	_ = stream.SetDeadline(time.Now().Add(b.cfg.ConnectionTimeout.Duration()))

	env, err := b.codec.ReadEnvelope(stream)
	if err != nil {
		b.metrics.RecordReceiveFailure(types.TransportQUIC)
		_ = transport.WriteAck(stream, transport.AckRejected)
		_ = stream.Close()
		logger.Debug("入站帧解码失败", "remote", remote, "error", err)
		return
	}
	if err := env.Validate(); err != nil {
		b.metrics.RecordReceiveFailure(types.TransportQUIC)
		_ = transport.WriteAck(stream, transport.AckRejected)
		_ = stream.Close()
		return
	}

	if !b.inbound.Push(types.IncomingMessage{
		Envelope:      *env,
		Transport:     types.TransportQUIC,
		SourceAddress: remote,
		ReceivedAt:    time.Now(),
	}) {
		b.metrics.RecordReceiveFailure(types.TransportQUIC)
	}
	b.metrics.RecordReceive(types.TransportQUIC, env.PayloadSize())

	_ = transport.WriteAck(stream, transport.AckAccepted)
	_ = stream.Close()
}
