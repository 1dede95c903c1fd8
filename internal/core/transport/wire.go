package transport

import (
	"fmt"
	"io"
)

// 应用层确认字节（stream 型后端在帧后回写一个字节）
const (
	// AckAccepted 对端已接收并入队
	AckAccepted byte = 0x01
	// AckRejected 对端明确拒收（解码失败、超限）
	AckRejected byte = 0x02
)

// WriteAck 写出确认字节
func WriteAck(w io.Writer, ack byte) error {
	_, err := w.Write([]byte{ack})
	return err
}

// ReadAck 读取确认字节
func ReadAck(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	switch buf[0] {
	case AckAccepted, AckRejected:
		return buf[0], nil
	default:
		return 0, fmt.Errorf("unknown ack byte 0x%02x", buf[0])
	}
}
