package prompt

import (
	"errors"
	"fmt"
)

// ═══════════════════════════════════════════════════════════════════════════
// 错误定义
// ═══════════════════════════════════════════════════════════════════════════

var (
	// ErrNoSource 既没有内联模板也没有可用 loader
	ErrNoSource = errors.New("prompt: no template source configured")

	// ErrNoProvider 未配置 LLM Provider，无法执行生成调用
	ErrNoProvider = errors.New("prompt: no provider configured")

	// ErrEmptyRace race 分组内没有任何 loader
	ErrEmptyRace = errors.New("prompt: race group has no loaders")
)

// ConfigError 配置校验错误
//
// 配置错误是致命的：工厂在合并之后校验配置，校验失败直接返回给
// 调用方，没有重试或恢复路径。
type ConfigError struct {
	Field  string // 出错字段，可为空
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "prompt config: " + e.Reason
	}
	return fmt.Sprintf("prompt config: %s: %s", e.Field, e.Reason)
}

// ValidateConfig validates an effective (already merged) configuration.
//
// Merge 本身对任意输入都有定义，不做校验；工厂在合并之后调用本函数。
// 多个问题通过 errors.Join 聚合返回。
func ValidateConfig(cfg Config) error {
	var errs []error

	if cfg.MaxTokens() < 0 {
		errs = append(errs, &ConfigError{Field: KeyMaxTokens, Reason: "must be non-negative"})
	}
	if t := cfg.Temperature(); t < 0 || t > 2 {
		errs = append(errs, &ConfigError{Field: KeyTemperature, Reason: "must be within [0, 2]"})
	}
	if cfg.Template() != "" && len(cfg.Loaders()) > 0 {
		errs = append(errs, &ConfigError{Field: KeyTemplate, Reason: "template and loader are mutually exclusive"})
	}

	return errors.Join(errs...)
}
