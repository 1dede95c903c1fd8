// Package interfaces 定义 Courier 公共接口
//
// 本文件定义 AddressResolver 接口，外部身份系统的协作契约。
package interfaces

import (
	"context"

	"github.com/couriernet/go-courier/pkg/types"
)

// AddressResolver 定义地址解析接口
//
// 由外部身份/联邦组件实现。目标未携带地址时，
// 引擎在候选过滤前调用一次解析；解析失败不终止投递，
// 仅导致需要地址的后端被排除。
type AddressResolver interface {
	// Resolve 将实体标识解析为传输层地址（host:port 或 URL）
	Resolve(ctx context.Context, id types.EntityID) (string, error)
}

// ResolverFunc 函数式 AddressResolver 适配器
type ResolverFunc func(ctx context.Context, id types.EntityID) (string, error)

// Resolve 实现 AddressResolver 接口
func (f ResolverFunc) Resolve(ctx context.Context, id types.EntityID) (string, error) {
	return f(ctx, id)
}
