package prompt

import (
	"context"
	"os"
)

// ═══════════════════════════════════════════════════════════════════════════
// L0: 函数式 API - 极简一次性调用
// ═══════════════════════════════════════════════════════════════════════════

// Quick 一次性渲染并生成（零配置）
//
// 自动从环境变量读取 API 密钥和模型配置，适合脚本和快速原型。
//
// 环境变量探测顺序：
//   - API Key: OPENAI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY, LLM_API_KEY, API_KEY
//   - Model: LLM_MODEL, OPENAI_MODEL, MODEL (默认: gpt-4o-mini)
//
// 使用示例：
//
//	// 最简单的调用（使用环境变量）
//	result, err := prompt.Quick(ctx, "Translate to French: {{.text}}",
//	    map[string]any{"text": "Hello"},
//	)
//
//	// 自定义配置
//	result, err := prompt.Quick(ctx, "Write a poem about {{.topic}}",
//	    map[string]any{"topic": "the sea"},
//	    prompt.WithQuickModel("gpt-4"),
//	    prompt.WithQuickSystem("You are a poet."),
//	)
func Quick(ctx context.Context, source string, vars map[string]any, opts ...QuickOption) (*Result, error) {
	cfg := &quickConfig{
		model:  detectModel(),
		apiKey: detectAPIKey(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	b := New().
		Model(cfg.model).
		APIKey(cfg.apiKey).
		Template(source)
	if cfg.system != "" {
		b.System(cfg.system)
	}
	if cfg.maxTokens > 0 {
		b.MaxTokens(cfg.maxTokens)
	}
	return b.Generate(ctx, vars)
}

// QuickRender 一次性渲染模板，不触发生成调用
//
// 只依赖默认引擎，不需要任何环境变量。
func QuickRender(ctx context.Context, source string, vars map[string]any) (string, error) {
	return New().Template(source).Render(ctx, vars)
}

// ═══════════════════════════════════════════════════════════════════════════
// 配置选项
// ═══════════════════════════════════════════════════════════════════════════

// quickConfig 快速调用的配置
type quickConfig struct {
	model     string
	apiKey    string
	system    string
	maxTokens int
}

// QuickOption 快速调用的配置选项
type QuickOption func(*quickConfig)

// WithQuickModel 设置模型
func WithQuickModel(model string) QuickOption {
	return func(c *quickConfig) { c.model = model }
}

// WithQuickAPIKey 设置 API 密钥
func WithQuickAPIKey(apiKey string) QuickOption {
	return func(c *quickConfig) { c.apiKey = apiKey }
}

// WithQuickSystem 设置系统提示词
func WithQuickSystem(system string) QuickOption {
	return func(c *quickConfig) { c.system = system }
}

// WithQuickMaxTokens 设置最大 token 数
func WithQuickMaxTokens(n int) QuickOption {
	return func(c *quickConfig) { c.maxTokens = n }
}

// ═══════════════════════════════════════════════════════════════════════════
// 环境变量探测
// ═══════════════════════════════════════════════════════════════════════════

// detectModel 探测模型配置
func detectModel() string {
	for _, name := range []string{"LLM_MODEL", "OPENAI_MODEL", "MODEL"} {
		if model := os.Getenv(name); model != "" {
			return model
		}
	}
	return "gpt-4o-mini"
}

// detectAPIKey 探测 API 密钥
func detectAPIKey() string {
	// 按常见程度排序
	envs := []string{
		"OPENAI_API_KEY",
		"ANTHROPIC_API_KEY",
		"OPENROUTER_API_KEY",
		"LLM_API_KEY",
		"API_KEY",
	}
	for _, name := range envs {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}
