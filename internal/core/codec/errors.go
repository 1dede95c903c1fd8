package codec

import "errors"

// 编解码错误（均为永久性失败，不触发重试）
var (
	// ErrEncode 信封编码失败
	ErrEncode = errors.New("codec: encode envelope")

	// ErrDecode 帧解码失败
	ErrDecode = errors.New("codec: decode frame")

	// ErrFrameTooLarge 帧长超过上限
	ErrFrameTooLarge = errors.New("codec: frame too large")

	// ErrTruncated 帧体不完整
	ErrTruncated = errors.New("codec: truncated frame")

	// ErrTrailingData 帧后存在多余字节
	ErrTrailingData = errors.New("codec: trailing data")
)
