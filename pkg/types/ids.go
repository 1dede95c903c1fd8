package types

import "github.com/google/uuid"

// ============================================================================
//                              ID 生成
// ============================================================================

// NewMessageID 生成新的消息 ID
//
// 使用 UUID v4，全局唯一。MessageID 由调用方在构造信封时填充，
// 缺失时信封无法通过校验。
func NewMessageID() string {
	return uuid.NewString()
}
