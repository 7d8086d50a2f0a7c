package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ═══════════════════════════════════════════════════════════════════════════
// 模板引擎边界
// ═══════════════════════════════════════════════════════════════════════════

// Engine 模板引擎（外部协作方）
//
// 本包只负责把配置合并出来的模板源与过滤器交给引擎，模板语法本身
// 不在本包职责内。默认实现基于 Go 模板，见 [NewTextEngine]。
type Engine interface {
	Compile(source string, filters map[string]FilterFunc) (Template, error)
}

// Template 编译后的模板
type Template interface {
	Render(data map[string]any) (string, error)
}

// ═══════════════════════════════════════════════════════════════════════════
// 默认引擎（Go 模板）
// ═══════════════════════════════════════════════════════════════════════════

// textEngine 基于 text/template 的默认引擎
type textEngine struct{}

// NewTextEngine 创建 Go 模板引擎
//
// 过滤器注册为模板函数，可在模板中以 {{ upper .topic }} 形式调用。
func NewTextEngine() Engine {
	return textEngine{}
}

// Compile 实现 Engine
func (textEngine) Compile(source string, filters map[string]FilterFunc) (Template, error) {
	funcs := make(template.FuncMap, len(filters))
	for name, fn := range filters {
		funcs[name] = fn
	}
	tpl, err := template.New("prompt").Option("missingkey=zero").Funcs(funcs).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("compile template: %w", err)
	}
	return &textTemplate{tpl: tpl}, nil
}

type textTemplate struct {
	tpl *template.Template
}

// Render 实现 Template
func (t *textTemplate) Render(data map[string]any) (string, error) {
	var sb strings.Builder
	if err := t.tpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return sb.String(), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 模板源解析
// ═══════════════════════════════════════════════════════════════════════════

// resolveSource 从生效配置解析模板源
//
// 内联 template 字段优先；否则把合成后的 loader 链解包为平坦链，
// 按顺序逐个尝试（链上每个条目本身可能是一场竞速），首个成功者
// 胜出。全部失败时聚合所有错误返回。
func resolveSource(ctx context.Context, cfg Config) (string, error) {
	if tpl := cfg.Template(); tpl != "" {
		return tpl, nil
	}

	chain := Flatten(cfg.Loaders())
	if len(chain) == 0 {
		return "", ErrNoSource
	}

	errs := make([]error, 0, len(chain))
	for _, l := range chain {
		source, err := l.Load(ctx)
		if err == nil {
			return source, nil
		}
		errs = append(errs, err)
	}
	return "", fmt.Errorf("prompt: all loaders failed: %w", errors.Join(errs...))
}
