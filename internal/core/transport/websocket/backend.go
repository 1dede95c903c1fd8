// Package websocket 提供基于 WebSocket 的 HTTP 兼容传输后端
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/couriernet/go-courier/config"
	"github.com/couriernet/go-courier/internal/core/codec"
	"github.com/couriernet/go-courier/internal/core/transport"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/lib/log"
	"github.com/couriernet/go-courier/pkg/types"
)

var logger = log.Logger("transport/websocket")

// 确保实现了接口
var _ pkgif.Backend = (*Backend)(nil)

// Backend WebSocket 传输后端
//
// 每个目标维护一条持久连接，二进制消息承载编码后的信封帧。
// gorilla 要求单写者，写入由每连接互斥锁串行化。
// 无应用层确认，回执级别为 Sent。
type Backend struct {
	cfg         config.WebSocketConfig
	dialTimeout time.Duration
	codec       *codec.Codec
	metrics     pkgif.MetricsReporter

	state   transport.RunState
	inbound *transport.InboundQueue

	mu       sync.RWMutex
	conns    map[string]*wsConn // 地址 → 出站连接
	server   *http.Server
	listener net.Listener

	// 同目标并发拨号合并；握手期间不持有 mu
	dialGroup singleflight.Group

	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// wsConn 单写者连接包装
type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

// writeBinary 串行化写出一条二进制消息
func (w *wsConn) writeBinary(frame []byte, deadline time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(deadline)
	return w.c.WriteMessage(websocket.BinaryMessage, frame)
}

// New 创建 WebSocket 后端
func New(cfg config.WebSocketConfig, dialTimeout time.Duration, metrics pkgif.MetricsReporter) *Backend {
	return &Backend{
		cfg:         cfg,
		dialTimeout: dialTimeout,
		codec:       codec.New(cfg.MaxMessageSize, codec.WithCompression(0)),
		metrics:     metrics,
		inbound:     transport.NewInboundQueue(0),
		conns:       make(map[string]*wsConn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			EnableCompression: cfg.EnableCompression,
			// 联邦节点间调用，不做浏览器同源检查
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Type 返回传输类型
func (b *Backend) Type() types.TransportType {
	return types.TransportWebSocket
}

// Capabilities 返回静态能力描述
func (b *Backend) Capabilities() types.TransportCapabilities {
	return types.TransportCapabilities{
		MaxMessageSize:  b.cfg.MaxMessageSize,
		Reliable:        false,
		RealTime:        false,
		Bidirectional:   true,
		NetworkSpanning: true,
		SupportedUrgencies: []types.Urgency{
			types.UrgencyBackground,
			types.UrgencyInteractive,
		},
		Features: []string{"http-upgrade", "compression"},
	}
}

// CanReach 检查是否可能到达目标
func (b *Backend) CanReach(target types.TransportTarget) bool {
	if !target.HasAddress() {
		return false
	}
	_, err := b.targetURL(target.Address)
	return err == nil
}

// targetURL 将目标地址规整为 WebSocket URL
//
// 接受 "host:port" 或完整 ws:// URL；host:port 形式补全本端配置的路径。
func (b *Backend) targetURL(addr string) (string, error) {
	if u, err := url.Parse(addr); err == nil && (u.Scheme == "ws" || u.Scheme == "wss") {
		return addr, nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", fmt.Errorf("%w: %v", pkgif.ErrUnreachable, err)
	}
	return (&url.URL{Scheme: "ws", Host: addr, Path: b.cfg.Path}).String(), nil
}

// Estimate 评估到目标的当前传输质量
func (b *Backend) Estimate(ctx context.Context, target types.TransportTarget) (types.TransportEstimate, error) {
	if err := b.state.CheckRunning(); err != nil {
		return types.Unavailable(), err
	}
	if !b.CanReach(target) {
		return types.Unavailable(), nil
	}

	stats := b.metrics.Stats(types.TransportWebSocket)
	if b.activeConn(target.Address) != nil {
		latency := time.Duration(stats.AverageLatencyMs * float64(time.Millisecond))
		if latency <= 0 {
			latency = 40 * time.Millisecond
		}
		return types.TransportEstimate{
			Latency:     latency,
			Reliability: stats.ReliabilityScore,
			Cost:        0.5,
			Available:   true,
			Confidence:  0.7,
		}.Clamp(), nil
	}

	return types.TransportEstimate{
		Latency:     80 * time.Millisecond,
		Reliability: 0.85,
		Cost:        0.5,
		Available:   true,
		Confidence:  0.4,
	}, nil
}

// Send 投递一条信封
//
// 写入完成即返回，无对端确认，回执级别为 Sent。
func (b *Backend) Send(ctx context.Context, target types.TransportTarget, env *types.SecureEnvelope) (*types.DeliveryReceipt, error) {
	if err := b.state.CheckRunning(); err != nil {
		return nil, err
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if !b.Capabilities().FitsMessage(env.WireSize()) {
		return nil, fmt.Errorf("%w: %d bytes over websocket limit %d",
			pkgif.ErrMessageTooLarge, env.WireSize(), b.cfg.MaxMessageSize)
	}
	if !target.HasAddress() {
		return nil, pkgif.ErrUnreachable
	}

	frame, err := b.codec.Encode(env)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	conn, err := b.conn(ctx, target.Address)
	if err != nil {
		b.metrics.RecordSendFailure(types.TransportWebSocket)
		return nil, err
	}

	deadline := time.Now().Add(b.cfg.ConnectionTimeout.Duration())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.writeBinary(frame, deadline); err != nil {
		b.removeConn(target.Address, conn)
		b.metrics.RecordSendFailure(types.TransportWebSocket)
		return nil, pkgif.MarkTransient(fmt.Errorf("websocket: write: %w", err))
	}
	b.metrics.RecordSend(types.TransportWebSocket, int64(len(frame)), time.Since(start))

	return &types.DeliveryReceipt{
		MessageID:     env.MessageID,
		TransportUsed: types.TransportWebSocket,
		DeliveryTime:  time.Now(),
		TargetReached: target.Identifier,
		Confirmation:  types.ConfirmationSent,
		Metadata:      map[string]string{"remote_addr": target.Address},
	}, nil
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
	if !b.CanReach(target) {
		return types.ConnectivityResult{Error: pkgif.ErrUnreachable.Error()}
	}

	start := time.Now()
	conn, err := b.conn(ctx, target.Address)
	if err != nil {
		return types.ConnectivityResult{Error: err.Error()}
	}
	rtt := time.Since(start)

	// 已有连接时用 Ping 控制帧实测
	conn.mu.Lock()
	err = conn.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(b.cfg.ConnectionTimeout.Duration()))
	conn.mu.Unlock()
	if err != nil {
		b.removeConn(target.Address, conn)
		return types.ConnectivityResult{Error: fmt.Sprintf("ping: %v", err)}
	}
	if rtt == 0 {
		rtt = time.Millisecond
	}

	return types.ConnectivityResult{
		Connected: true,
		RTT:       rtt,
		Quality:   1.0 - float64(rtt)/float64(rtt+100*time.Millisecond),
		Details:   map[string]string{"remote_addr": target.Address},
	}
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
		return fmt.Errorf("websocket: listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(b.cfg.Path, b.handleUpgrade)
	srv := &http.Server{Handler: mux}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.mu.Lock()
	b.listener = ln
	b.server = srv
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("HTTP 服务退出", "error", err)
		}
	}()

	b.state.FinishStart()
	logger.Info("WebSocket 后端已启动", "listen_addr", ln.Addr().String(), "path", b.cfg.Path)
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
	b.conns = make(map[string]*wsConn)
	srv := b.server
	b.server = nil
	b.listener = nil
	b.mu.Unlock()

	for _, conn := range conns {
		errs = multierr.Append(errs, conn.c.Close())
	}
	if srv != nil {
		errs = multierr.Append(errs, srv.Shutdown(ctx))
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

	b.metrics.SetActiveConnections(types.TransportWebSocket, 0)
	logger.Info("WebSocket 后端已停止")
	return errs
}

// Stats 返回统计快照
func (b *Backend) Stats() types.TransportStats {
	st := b.metrics.Stats(types.TransportWebSocket)
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
