package config

import (
	"errors"
	"time"
)

// ============================================================================
//                              SelectorConfig - 传输选择器配置
// ============================================================================

// SelectorConfig 传输选择器配置
type SelectorConfig struct {
	// EstimateTimeout 单个后端质量评估的超时
	//
	// 评估允许轻量探测，行为异常的网络可能令探测悬挂，
	// 选择器用该超时兜底。
	EstimateTimeout Duration `json:"estimate_timeout"`

	// ConnectivityTimeout 主动连通性检测的超时
	ConnectivityTimeout Duration `json:"connectivity_timeout"`

	// PreferredBonus 目标提示首选传输时的评分加成
	PreferredBonus float64 `json:"preferred_bonus"`
}

// DefaultSelectorConfig 返回默认选择器配置
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		EstimateTimeout:     Duration(2 * time.Second),
		ConnectivityTimeout: Duration(5 * time.Second),
		PreferredBonus:      0.1,
	}
}

// Validate 验证选择器配置
func (c SelectorConfig) Validate() error {
	if c.EstimateTimeout <= 0 {
		return errors.New("selector estimate timeout must be positive")
	}
	if c.ConnectivityTimeout <= 0 {
		return errors.New("selector connectivity timeout must be positive")
	}
	if c.PreferredBonus < 0 {
		return errors.New("selector preferred bonus must be >= 0")
	}
	return nil
}
