package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/multiformats/go-varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couriernet/go-courier/pkg/types"
)

func sampleEnvelope() *types.SecureEnvelope {
	return &types.SecureEnvelope{
		MessageID: "msg-001",
		To:        "entity-b",
		From:      "entity-a",
		Payload:   []byte("opaque ciphertext"),
		Signature: []byte("sig"),
		Security:  types.SecurityPrivate,
		Metadata:  map[string]string{"trace": "abc"},
	}
}

// TestCodec_RoundTrip 测试编解码往返
func TestCodec_RoundTrip(t *testing.T) {
	c := New(1 << 20)
	env := sampleEnvelope()

	frame, err := c.Encode(env)
	require.NoError(t, err)

	got, err := c.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, env, got)
}

// TestCodec_StreamRoundTrip 测试流式读写（多帧连续）
func TestCodec_StreamRoundTrip(t *testing.T) {
	c := New(1 << 20)

	var buf bytes.Buffer
	first := sampleEnvelope()
	second := sampleEnvelope()
	second.MessageID = "msg-002"

	_, err := c.WriteEnvelope(&buf, first)
	require.NoError(t, err)
	_, err = c.WriteEnvelope(&buf, second)
	require.NoError(t, err)

	got1, err := c.ReadEnvelope(&buf)
	require.NoError(t, err)
	assert.Equal(t, "msg-001", got1.MessageID)

	got2, err := c.ReadEnvelope(&buf)
	require.NoError(t, err)
	assert.Equal(t, "msg-002", got2.MessageID)

	_, err = c.ReadEnvelope(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

// TestCodec_CompressionRoundTrip 测试压缩往返
func TestCodec_CompressionRoundTrip(t *testing.T) {
	c := New(1<<20, WithCompression(64))

	env := sampleEnvelope()
	env.Payload = bytes.Repeat([]byte("abcdefgh"), 1024) // 高度可压缩

	frame, err := c.Encode(env)
	require.NoError(t, err)
	assert.Less(t, len(frame), len(env.Payload), "可压缩载荷帧显著缩小")

	got, err := c.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, env.Payload, got.Payload)
}

// TestCodec_CompressionSkipsSmall 测试小消息不压缩
func TestCodec_CompressionSkipsSmall(t *testing.T) {
	plain := New(1 << 20)
	compressing := New(1<<20, WithCompression(DefaultCompressionThreshold))

	env := sampleEnvelope() // 远小于阈值
	a, err := plain.Encode(env)
	require.NoError(t, err)
	b, err := compressing.Encode(env)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// TestCodec_CrossConfigDecode 测试压缩端到非压缩端互通
func TestCodec_CrossConfigDecode(t *testing.T) {
	sender := New(1<<20, WithCompression(16))
	receiver := New(1 << 20) // 接收端不启用压缩，但必须能解压

	env := sampleEnvelope()
	env.Payload = bytes.Repeat([]byte("x"), 4096)

	frame, err := sender.Encode(env)
	require.NoError(t, err)

	got, err := receiver.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, env.Payload, got.Payload)
}

// TestCodec_EncodeOversize 测试编码超限
func TestCodec_EncodeOversize(t *testing.T) {
	c := New(128)
	env := sampleEnvelope()
	env.Payload = bytes.Repeat([]byte("z"), 1024)

	_, err := c.Encode(env)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

// TestCodec_DecodeOversizeHeader 测试解码超限（未读帧体即拒绝）
func TestCodec_DecodeOversizeHeader(t *testing.T) {
	c := New(128)

	// 声称 1MB 的帧头
	hdr := varint.ToUvarint(1 << 20)
	_, err := c.ReadEnvelope(bytes.NewReader(hdr))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

// TestCodec_Truncated 测试截断帧
func TestCodec_Truncated(t *testing.T) {
	c := New(1 << 20)
	frame, err := c.Encode(sampleEnvelope())
	require.NoError(t, err)

	_, err = c.Decode(frame[:len(frame)/2])
	assert.ErrorIs(t, err, ErrTruncated)
}

// TestCodec_Garbage 测试非法帧体
func TestCodec_Garbage(t *testing.T) {
	c := New(1 << 20)

	body := []byte{0x00, 0xde, 0xad, 0xbe, 0xef} // flags=0 + 非 CBOR
	frame := append(varint.ToUvarint(uint64(len(body))), body...)

	_, err := c.Decode(frame)
	assert.ErrorIs(t, err, ErrDecode)
}

// TestCodec_TrailingData 测试帧后多余字节
func TestCodec_TrailingData(t *testing.T) {
	c := New(1 << 20)
	frame, err := c.Encode(sampleEnvelope())
	require.NoError(t, err)

	_, err = c.Decode(append(frame, 0x01))
	assert.ErrorIs(t, err, ErrTrailingData)
}
