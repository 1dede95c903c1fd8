// Package codec 实现信封的线格式编解码
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/multiformats/go-varint"

	"github.com/couriernet/go-courier/pkg/types"
)

// 帧标志位
const (
	// flagGzip 帧体为 gzip 压缩的 CBOR
	flagGzip byte = 1 << 0
)

// DefaultCompressionThreshold 默认压缩阈值（字节）
//
// 编码后不足该尺寸的信封不压缩：小消息压缩收益为负。
const DefaultCompressionThreshold = 1024

// CBOR 编解码模式在包初始化时固定
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: init enc mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 65536,
		MaxMapPairs:      65536,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: init dec mode: %v", err))
	}
}

// Codec 信封编解码器
//
// 线格式（所有传输共用）：
//
//	uvarint(帧体长度) | flags(1 字节) | CBOR 信封（可选 gzip）
//
// 帧体长度覆盖 flags 与其后的全部字节。maxFrame 同时约束
// 编码输出与解码输入，超限在触碰网络前报错。
type Codec struct {
	maxFrame  int64
	compress  bool
	threshold int
}

// Option 编解码器选项
type Option func(*Codec)

// WithCompression 启用 gzip 压缩
//
// 编码体超过 threshold 字节时压缩；threshold <= 0 使用默认值。
func WithCompression(threshold int) Option {
	return func(c *Codec) {
		c.compress = true
		if threshold > 0 {
			c.threshold = threshold
		}
	}
}

// New 创建编解码器
//
// maxFrame 为单帧最大字节数（含 flags），通常取传输的 MaxMessageSize。
func New(maxFrame int64, opts ...Option) *Codec {
	c := &Codec{
		maxFrame:  maxFrame,
		threshold: DefaultCompressionThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode 编码信封为完整帧
func (c *Codec) Encode(env *types.SecureEnvelope) ([]byte, error) {
	body, err := encMode.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	flags := byte(0)
	if c.compress && len(body) >= c.threshold {
		compressed, err := gzipBytes(body)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrEncode, err)
		}
		// 压缩无收益时保留原文
		if len(compressed) < len(body) {
			body = compressed
			flags |= flagGzip
		}
	}

	frameLen := int64(1 + len(body))
	if c.maxFrame > 0 && frameLen > c.maxFrame {
		return nil, fmt.Errorf("%w: frame %d bytes exceeds %d", ErrFrameTooLarge, frameLen, c.maxFrame)
	}

	out := make([]byte, 0, varint.UvarintSize(uint64(frameLen))+int(frameLen))
	out = append(out, varint.ToUvarint(uint64(frameLen))...)
	out = append(out, flags)
	out = append(out, body...)
	return out, nil
}

// Decode 解码完整帧为信封
//
// buf 必须恰好包含一帧；尾部多余字节报 ErrTrailingData。
func (c *Codec) Decode(buf []byte) (*types.SecureEnvelope, error) {
	r := bytes.NewReader(buf)
	env, err := c.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}
	if r.Len() > 0 {
		return nil, fmt.Errorf("%w: %d bytes after frame", ErrTrailingData, r.Len())
	}
	return env, nil
}

// WriteEnvelope 编码信封并写入 w
//
// 返回写出的字节数。
func (c *Codec) WriteEnvelope(w io.Writer, env *types.SecureEnvelope) (int, error) {
	frame, err := c.Encode(env)
	if err != nil {
		return 0, err
	}
	return w.Write(frame)
}

// ReadEnvelope 从 r 读取一帧并解码
//
// 帧长超过 maxFrame 时在读取帧体前返回 ErrFrameTooLarge。
func (c *Codec) ReadEnvelope(r io.Reader) (*types.SecureEnvelope, error) {
	frameLen, err := varint.ReadUvarint(byteReaderOf(r))
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: frame length: %v", ErrDecode, err)
	}
	if frameLen < 1 {
		return nil, fmt.Errorf("%w: empty frame", ErrDecode)
	}
	if c.maxFrame > 0 && int64(frameLen) > c.maxFrame {
		return nil, fmt.Errorf("%w: frame %d bytes exceeds %d", ErrFrameTooLarge, frameLen, c.maxFrame)
	}

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, fmt.Errorf("%w: frame body: %v", ErrTruncated, err)
	}

	flags := frame[0]
	body := frame[1:]

	if flags&flagGzip != 0 {
		body, err = gunzipBytes(body, c.maxFrame)
		if err != nil {
			return nil, fmt.Errorf("%w: gunzip: %v", ErrDecode, err)
		}
	}

	var env types.SecureEnvelope
	if err := decMode.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &env, nil
}

// gzipBytes 压缩
func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// gunzipBytes 解压，限制解压后尺寸防止解压炸弹
func gunzipBytes(data []byte, limit int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var r io.Reader = zr
	if limit > 0 {
		r = io.LimitReader(zr, limit+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(out)) > limit {
		return nil, fmt.Errorf("decompressed size exceeds %d", limit)
	}
	return out, nil
}

// byteReaderOf 包装为 io.ByteReader（varint 读取需要）
func byteReaderOf(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return &singleByteReader{r: r}
}

type singleByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (s *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}
