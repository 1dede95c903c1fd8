package types

// ============================================================================
//                              TransportTarget - 投递目标
// ============================================================================

// TransportTarget 投递目标
//
// Address 为可选字段：为空时引擎尝试通过 AddressResolver 解析，
// 解析失败则候选过滤阶段直接排除需要地址的后端。
type TransportTarget struct {
	// Identifier 目标实体标识
	Identifier EntityID `json:"identifier"`

	// Address 传输层地址（host:port 或 URL，可为空）
	Address string `json:"address,omitempty"`

	// Hints 路由提示（如首选传输、区域标签）
	Hints map[string]string `json:"hints,omitempty"`
}

// HasAddress 检查目标是否携带可拨号地址
func (t TransportTarget) HasAddress() bool {
	return t.Address != ""
}

// Hint 返回指定键的提示值
func (t TransportTarget) Hint(key string) (string, bool) {
	if t.Hints == nil {
		return "", false
	}
	v, ok := t.Hints[key]
	return v, ok
}

// PreferredTransport 返回目标提示的首选传输类型
//
// 提示键为 "preferred_transport"，值为传输类型名。
// 未设置或值非法时返回 false。
func (t TransportTarget) PreferredTransport() (TransportType, bool) {
	v, ok := t.Hint(HintPreferredTransport)
	if !ok {
		return "", false
	}
	tt := TransportType(v)
	if !tt.Valid() {
		return "", false
	}
	return tt, true
}

// 常用提示键
const (
	// HintPreferredTransport 首选传输类型提示
	HintPreferredTransport = "preferred_transport"
	// HintRegion 区域标签提示
	HintRegion = "region"
)
