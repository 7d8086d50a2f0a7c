package prompt

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lwmacct/251215-go-pkg-llm/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-tool/pkg/tool"
)

// ═══════════════════════════════════════════════════════════════════════════
// L1: Fluent Builder API
// ═══════════════════════════════════════════════════════════════════════════

// Builder Prompt 链式构建器
//
// 内部复用 promptBuilder（functional options 的底层实现），避免重复逻辑。
//
// 使用示例：
//
//	p, err := prompt.New().
//	    Model("gpt-4").
//	    System("You are a translator.").
//	    Template("Translate to {{.lang}}: {{.text}}").
//	    ContextValue("lang", "French").
//	    Build()
type Builder struct {
	inner *promptBuilder

	// 延迟构建
	prompt *Prompt
	built  bool
	mu     sync.Mutex
}

// New 创建新的 Builder，这是 L1 API 的入口点
func New() *Builder {
	return &Builder{inner: newPromptBuilder()}
}

// From 从现有 Prompt 创建 Builder
//
// 复制 Prompt 的生效配置，但不共享运行时依赖。
// 如需继承式合并（而非复制），使用 [Builder.Extend]。
func From(src *Prompt) *Builder {
	b := New()
	b.inner.config = src.Config()
	return b
}

// ═══════════════════════════════════════════════════════════════════════════
// 基础字段
// ═══════════════════════════════════════════════════════════════════════════

// ID 设置 Prompt ID
func (b *Builder) ID(id string) *Builder { return b.apply(WithID(id)) }

// Name 设置名称
func (b *Builder) Name(name string) *Builder { return b.apply(WithName(name)) }

// Model 设置模型
func (b *Builder) Model(model string) *Builder { return b.apply(WithModel(model)) }

// System 设置系统提示词
func (b *Builder) System(system string) *Builder { return b.apply(WithSystem(system)) }

// APIKey 设置 API 密钥
func (b *Builder) APIKey(apiKey string) *Builder { return b.apply(WithAPIKey(apiKey)) }

// APIKeyFromEnv 从环境变量读取 API 密钥
func (b *Builder) APIKeyFromEnv(envName string) *Builder { return b.apply(WithAPIKeyFromEnv(envName)) }

// BaseURL 设置 API 端点
func (b *Builder) BaseURL(baseURL string) *Builder { return b.apply(WithBaseURL(baseURL)) }

// MaxTokens 设置最大 token 数
func (b *Builder) MaxTokens(n int) *Builder { return b.apply(WithMaxTokens(n)) }

// Temperature 设置采样温度
func (b *Builder) Temperature(t float64) *Builder { return b.apply(WithTemperature(t)) }

// Template 设置内联模板源
func (b *Builder) Template(source string) *Builder { return b.apply(WithTemplate(source)) }

// ═══════════════════════════════════════════════════════════════════════════
// 合并字段
// ═══════════════════════════════════════════════════════════════════════════

// Context 叠加渲染上下文
func (b *Builder) Context(ctx map[string]any) *Builder { return b.apply(WithContext(ctx)) }

// ContextValue 设置单个上下文变量
func (b *Builder) ContextValue(key string, value any) *Builder {
	return b.apply(WithContextValue(key, value))
}

// Filter 注册模板过滤器
func (b *Builder) Filter(name string, fn FilterFunc) *Builder { return b.apply(WithFilter(name, fn)) }

// Tools 添加工具定义
func (b *Builder) Tools(tools ...tool.Tool) *Builder { return b.apply(WithTools(tools...)) }

// GlobalTools 从全局注册表按名称引用工具
func (b *Builder) GlobalTools(names ...string) *Builder { return b.apply(WithGlobalTools(names...)) }

// Messages 追加对话历史
func (b *Builder) Messages(messages ...llm.Message) *Builder {
	return b.apply(WithMessages(messages...))
}

// User 追加用户消息（便捷方法）
func (b *Builder) User(text string) *Builder { return b.Messages(UserMessage(text)) }

// Assistant 追加助手消息（便捷方法）
func (b *Builder) Assistant(text string) *Builder { return b.Messages(AssistantMessage(text)) }

// ═══════════════════════════════════════════════════════════════════════════
// Loader 链
// ═══════════════════════════════════════════════════════════════════════════

// Loader 追加 loader 链条目
func (b *Builder) Loader(loaders ...Loader) *Builder { return b.apply(WithLoader(loaders...)) }

// File 追加文件 loader（便捷方法）
func (b *Builder) File(path string) *Builder { return b.Loader(NewFileLoader(path)) }

// HTTP 追加 HTTP loader（便捷方法）
func (b *Builder) HTTP(url string) *Builder { return b.Loader(NewHTTPLoader(url)) }

// Race 追加匿名 race 分组：成员并发竞速，最先成功者胜出
func (b *Builder) Race(loaders ...Loader) *Builder { return b.Loader(Race(loaders...)) }

// NamedRace 追加命名 race 分组：同名分组跨继承层级合并为一场竞速
func (b *Builder) NamedRace(group string, loaders ...Loader) *Builder {
	return b.Loader(NamedRace(group, loaders...))
}

// ═══════════════════════════════════════════════════════════════════════════
// 继承与依赖
// ═══════════════════════════════════════════════════════════════════════════

// Extend 设置父级配置来源
func (b *Builder) Extend(parent ConfigProvider) *Builder { return b.apply(WithParent(parent)) }

// Config 叠加一份完整配置
func (b *Builder) Config(cfg Config) *Builder { return b.apply(WithConfig(cfg)) }

// Engine 设置模板引擎
func (b *Builder) Engine(engine Engine) *Builder { return b.apply(WithEngine(engine)) }

// Provider 设置生成调用方
func (b *Builder) Provider(p Completer) *Builder { return b.apply(WithProvider(p)) }

// Logger 设置日志器
func (b *Builder) Logger(logger *slog.Logger) *Builder { return b.apply(WithLogger(logger)) }

// Retry 设置重试配置
func (b *Builder) Retry(cfg *RetryConfig) *Builder { return b.apply(WithRetryConfig(cfg)) }

// MaxRetries 设置最大重试次数
func (b *Builder) MaxRetries(n int) *Builder { return b.apply(WithMaxRetries(n)) }

// ═══════════════════════════════════════════════════════════════════════════
// 构建与执行
// ═══════════════════════════════════════════════════════════════════════════

// Build 构建 Prompt
//
// 幂等：首次调用完成合并与校验并缓存结果，此后返回同一实例。
func (b *Builder) Build() (*Prompt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return b.prompt, nil
	}

	p, err := newPromptFromBuilder(b.inner)
	if err != nil {
		return nil, err
	}
	b.prompt = p
	b.built = true
	return p, nil
}

// Render 构建并渲染（便捷方法）
func (b *Builder) Render(ctx context.Context, vars map[string]any) (string, error) {
	p, err := b.Build()
	if err != nil {
		return "", err
	}
	return p.Render(ctx, vars)
}

// Generate 构建并分发（便捷方法）
func (b *Builder) Generate(ctx context.Context, vars map[string]any) (*Result, error) {
	p, err := b.Build()
	if err != nil {
		return nil, err
	}
	return p.Generate(ctx, vars)
}

// apply 应用一个选项并返回自身
func (b *Builder) apply(opt Option) *Builder {
	opt(b.inner)
	return b
}
