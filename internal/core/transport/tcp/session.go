package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/yamux"
	"golang.org/x/time/rate"

	"github.com/couriernet/go-courier/internal/core/transport"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/types"
)

// yamuxConfig 构造 yamux 会话配置
func (b *Backend) yamuxConfig() *yamux.Config {
	cfg := yamux.DefaultConfig()
	cfg.AcceptBacklog = b.cfg.MaxConcurrentStreams
	if b.cfg.KeepAlive {
		cfg.EnableKeepAlive = true
		cfg.KeepAliveInterval = b.cfg.KeepAlivePeriod.Duration()
	} else {
		cfg.EnableKeepAlive = false
	}
	cfg.LogOutput = nil
	cfg.Logger = yamuxLogger{}
	return cfg
}

// yamuxLogger 把 yamux 内部日志引到组件 logger
type yamuxLogger struct{}

func (yamuxLogger) Print(v ...interface{})   { logger.Debug(fmt.Sprint(v...)) }
func (yamuxLogger) Println(v ...interface{}) { logger.Debug(fmt.Sprint(v...)) }

func (yamuxLogger) Printf(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...))
}

// activeSession 返回指定地址的存活会话
func (b *Backend) activeSession(addr string) *yamux.Session {
	b.mu.RLock()
	sess := b.sessions[addr]
	b.mu.RUnlock()
	if sess == nil || sess.IsClosed() {
		return nil
	}
	return sess
}

// session 获取或建立到指定地址的会话
//
// 拨号在 mu 之外进行：同目标的并发拨号经 singleflight 合并为一次，
// 慢目标不会阻塞其他地址的发送与评估路径。
func (b *Backend) session(ctx context.Context, addr string) (*yamux.Session, error) {
	if sess := b.activeSession(addr); sess != nil {
		return sess, nil
	}

	v, err, _ := b.dialGroup.Do(addr, func() (interface{}, error) {
		// double-check：前一次合并调用可能已建好会话
		if sess := b.activeSession(addr); sess != nil {
			return sess, nil
		}

		sess, err := b.dial(ctx, addr)
		if err != nil {
			b.dialFailures.Add(addr, time.Now())
			return nil, err
		}
		b.dialFailures.Remove(addr)

		b.mu.Lock()
		b.sessions[addr] = sess
		b.metrics.SetActiveConnections(types.TransportTCP, int64(len(b.sessions)))
		b.mu.Unlock()

		// 出站会话同样可以承载对端回推的流
		b.wg.Add(1)
		go b.serveSession(sess, addr)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*yamux.Session), nil
}

// dial 建立 TCP 连接并升级为 yamux 客户端会话
func (b *Backend) dial(ctx context.Context, addr string) (*yamux.Session, error) {
	d := net.Dialer{Timeout: b.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, pkgif.MarkTransient(fmt.Errorf("tcp: dial %s: %w", addr, err))
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(b.cfg.NoDelay)
		if b.cfg.KeepAlive {
			_ = tc.SetKeepAlive(true)
			_ = tc.SetKeepAlivePeriod(b.cfg.KeepAlivePeriod.Duration())
		}
	}

	sess, err := yamux.Client(conn, b.yamuxConfig())
	if err != nil {
		_ = conn.Close()
		return nil, pkgif.MarkTransient(fmt.Errorf("tcp: yamux client %s: %w", addr, err))
	}
	return sess, nil
}

// removeSession 移除并关闭失效会话
func (b *Backend) removeSession(addr string, sess *yamux.Session) {
	b.mu.Lock()
	if b.sessions[addr] == sess {
		delete(b.sessions, addr)
	}
	b.metrics.SetActiveConnections(types.TransportTCP, int64(len(b.sessions)))
	b.mu.Unlock()
	_ = sess.Close()
}

// acceptLoop 接受入站连接
//
// 瞬时 accept 错误经速率限制后重试，避免错误风暴占满 CPU。
func (b *Backend) acceptLoop(ln net.Listener) {
	defer b.wg.Done()

	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 1)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if b.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("accept 失败", "error", err)
			if err := limiter.Wait(b.ctx); err != nil {
				return
			}
			continue
		}

		sess, err := yamux.Server(conn, b.yamuxConfig())
		if err != nil {
			logger.Warn("入站连接升级失败", "remote", conn.RemoteAddr(), "error", err)
			_ = conn.Close()
			continue
		}

		b.wg.Add(1)
		go b.serveSession(sess, conn.RemoteAddr().String())
	}
}

// serveSession 服务一条会话：逐流接收消息
func (b *Backend) serveSession(sess *yamux.Session, remote string) {
	defer b.wg.Done()
	defer sess.Close()

	for {
		stream, err := sess.AcceptStream()
		if err != nil {
			// 会话结束（关闭或对端断开）
			return
		}

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer stream.Close()
			b.handleStream(stream, remote)
		}()
	}
}

// handleStream 处理一个入站流：读帧、入队、回确认
func (b *Backend) handleStream(stream *yamux.Stream, remote string) {
	_ = stream.SetDeadline(time.Now().Add(b.cfg.ConnectionTimeout.Duration()))

	env, err := b.codec.ReadEnvelope(stream)
	if err != nil {
		b.metrics.RecordReceiveFailure(types.TransportTCP)
		_ = transport.WriteAck(stream, transport.AckRejected)
		logger.Debug("入站帧解码失败", "remote", remote, "error", err)
		return
	}
	if err := env.Validate(); err != nil {
		b.metrics.RecordReceiveFailure(types.TransportTCP)
		_ = transport.WriteAck(stream, transport.AckRejected)
		return
	}

	if !b.inbound.Push(types.IncomingMessage{
		Envelope:      *env,
		Transport:     types.TransportTCP,
		SourceAddress: remote,
		ReceivedAt:    time.Now(),
	}) {
		b.metrics.RecordReceiveFailure(types.TransportTCP)
	}
	b.metrics.RecordReceive(types.TransportTCP, env.PayloadSize())

	_ = transport.WriteAck(stream, transport.AckAccepted)
}
