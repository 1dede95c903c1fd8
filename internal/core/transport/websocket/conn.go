package websocket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/types"
)

// activeConn 返回指定地址的存活连接
func (b *Backend) activeConn(addr string) *wsConn {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.conns[addr]
}

// conn 获取或建立到指定地址的持久连接
//
// 握手在 mu 之外进行：同目标的并发拨号经 singleflight 合并为一次，
// 慢目标不会阻塞其他地址的发送与评估路径。
func (b *Backend) conn(ctx context.Context, addr string) (*wsConn, error) {
	if conn := b.activeConn(addr); conn != nil {
		return conn, nil
	}

	v, err, _ := b.dialGroup.Do(addr, func() (interface{}, error) {
		// double-check：前一次合并调用可能已建好连接
		if conn := b.activeConn(addr); conn != nil {
			return conn, nil
		}

		conn, err := b.dialConn(ctx, addr)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.conns[addr] = conn
		b.metrics.SetActiveConnections(types.TransportWebSocket, int64(len(b.conns)))
		b.mu.Unlock()

		// 出站连接同样接收对端回推的消息
		b.wg.Add(1)
		go b.readPump(conn, addr)
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*wsConn), nil
}

// dialConn 完成一次 WebSocket 拨号与升级握手
func (b *Backend) dialConn(ctx context.Context, addr string) (*wsConn, error) {
	u, err := b.targetURL(addr)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, b.dialTimeout)
	defer cancel()

	dialer := websocket.Dialer{
		HandshakeTimeout:  b.cfg.ConnectionTimeout.Duration(),
		ReadBufferSize:    b.cfg.ReadBufferSize,
		WriteBufferSize:   b.cfg.WriteBufferSize,
		EnableCompression: b.cfg.EnableCompression,
	}
	c, _, err := dialer.DialContext(dialCtx, u, nil)
	if err != nil {
		return nil, pkgif.MarkTransient(fmt.Errorf("websocket: dial %s: %w", u, err))
	}
	c.SetReadLimit(b.cfg.MaxMessageSize)
	return &wsConn{c: c}, nil
}

// removeConn 移除并关闭失效连接
func (b *Backend) removeConn(addr string, conn *wsConn) {
	b.mu.Lock()
	if b.conns[addr] == conn {
		delete(b.conns, addr)
	}
	b.metrics.SetActiveConnections(types.TransportWebSocket, int64(len(b.conns)))
	b.mu.Unlock()
	_ = conn.c.Close()
}

// handleUpgrade 处理入站 HTTP 升级请求
func (b *Backend) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	c, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("升级失败", "remote", r.RemoteAddr, "error", err)
		return
	}
	c.SetReadLimit(b.cfg.MaxMessageSize)

	conn := &wsConn{c: c}
	b.wg.Add(1)
	go b.readPump(conn, r.RemoteAddr)
}

// readPump 连接读循环：逐消息解码入队
//
// gorilla 要求读操作单 goroutine，每连接恰好一个 readPump。
func (b *Backend) readPump(conn *wsConn, remote string) {
	defer b.wg.Done()
	defer conn.c.Close()

	for {
		if b.ctx.Err() != nil {
			return
		}

		msgType, data, err := conn.c.ReadMessage()
		if err != nil {
			// 连接结束（关闭、超限或网络错误）
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		env, err := b.codec.Decode(data)
		if err != nil {
			b.metrics.RecordReceiveFailure(types.TransportWebSocket)
			logger.Debug("入站帧解码失败", "remote", remote, "error", err)
			continue
		}
		if err := env.Validate(); err != nil {
			b.metrics.RecordReceiveFailure(types.TransportWebSocket)
			continue
		}

		if !b.inbound.Push(types.IncomingMessage{
			Envelope:      *env,
			Transport:     types.TransportWebSocket,
			SourceAddress: remote,
			ReceivedAt:    time.Now(),
		}) {
			b.metrics.RecordReceiveFailure(types.TransportWebSocket)
		}
		b.metrics.RecordReceive(types.TransportWebSocket, env.PayloadSize())
	}
}
