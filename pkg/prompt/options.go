package prompt

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lwmacct/251215-go-pkg-llm/pkg/llm"
	llmprovider "github.com/lwmacct/251215-go-pkg-llm/pkg/llm/provider"
	"github.com/lwmacct/251215-go-pkg-tool/pkg/tool"
	"github.com/lwmacct/251215-go-pkg-tool/pkg/tool/builtin"
)

// DefaultConfig 返回默认配置
//
// 默认值只补齐生效配置中缺失的字段，不会覆盖父级或调用方显式
// 设置的值。
func DefaultConfig() Config {
	return Config{
		KeyMaxTokens:   4096,
		KeyTemperature: 0.7,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Builder 模式
// ═══════════════════════════════════════════════════════════════════════════

// promptBuilder Prompt 构建器（functional options 的底层实现）
type promptBuilder struct {
	config Config
	parent ConfigProvider

	engine      Engine
	provider    Completer
	retryConfig *RetryConfig
	logger      *slog.Logger
}

// newPromptBuilder 创建构建器
func newPromptBuilder() *promptBuilder {
	return &promptBuilder{config: Config{}}
}

// Option Prompt 配置选项
type Option func(*promptBuilder)

// newPromptFromBuilder 从 builder 构建 Prompt（内部共享逻辑）
func newPromptFromBuilder(b *promptBuilder) (*Prompt, error) {
	// 合并父子配置，再补齐缺失的默认值
	effective := Resolve(b.parent, b.config)
	for key, value := range DefaultConfig() {
		if !effective.Has(key) {
			effective[key] = value
		}
	}

	// 配置错误是致命的，直接返回
	if err := ValidateConfig(effective); err != nil {
		return nil, err
	}

	id := effective.String(KeyID)
	if id == "" {
		id = generatePromptID()
	}

	engine := b.engine
	if engine == nil {
		engine = NewTextEngine()
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// 自动创建 Provider（配置了 API 密钥且未手动注入时）
	completer := b.provider
	if completer == nil && effective.String(KeyAPIKey) != "" {
		p, err := llmprovider.New(&llm.Config{
			APIKey:  effective.String(KeyAPIKey),
			Model:   effective.Model(),
			BaseURL: effective.String(KeyBaseURL),
		})
		if err != nil {
			return nil, fmt.Errorf("auto-create provider: %w", err)
		}
		completer = p
	}

	return &Prompt{
		id:          id,
		config:      effective,
		engine:      engine,
		provider:    completer,
		retryConfig: b.retryConfig,
		logger:      logger,
	}, nil
}

// NewPrompt 通过 functional options 创建 Prompt
//
// 这是 L2 API，适合动态配置。链式风格见 [New]。
//
// 示例：
//
//	p, err := prompt.NewPrompt(
//	    prompt.WithModel("gpt-4"),
//	    prompt.WithTemplate("Translate to {{.lang}}: {{.text}}"),
//	    prompt.WithContext(map[string]any{"lang": "French"}),
//	)
func NewPrompt(opts ...Option) (*Prompt, error) {
	b := newPromptBuilder()
	for _, opt := range opts {
		opt(b)
	}
	return newPromptFromBuilder(b)
}

// ═══════════════════════════════════════════════════════════════════════════
// 基础字段选项
// ═══════════════════════════════════════════════════════════════════════════

// WithID 设置 Prompt ID
func WithID(id string) Option {
	return func(b *promptBuilder) { b.config[KeyID] = id }
}

// WithName 设置名称
func WithName(name string) Option {
	return func(b *promptBuilder) { b.config[KeyName] = name }
}

// WithModel 设置模型
func WithModel(model string) Option {
	return func(b *promptBuilder) { b.config[KeyModel] = model }
}

// WithSystem 设置系统提示词
func WithSystem(system string) Option {
	return func(b *promptBuilder) { b.config[KeySystem] = system }
}

// WithAPIKey 设置 API 密钥
func WithAPIKey(apiKey string) Option {
	return func(b *promptBuilder) { b.config[KeyAPIKey] = apiKey }
}

// WithAPIKeyFromEnv 从环境变量读取 API 密钥
func WithAPIKeyFromEnv(envName string) Option {
	return func(b *promptBuilder) { b.config[KeyAPIKey] = os.Getenv(envName) }
}

// WithBaseURL 设置 API 端点
func WithBaseURL(baseURL string) Option {
	return func(b *promptBuilder) { b.config[KeyBaseURL] = baseURL }
}

// WithMaxTokens 设置最大 token 数
func WithMaxTokens(maxTokens int) Option {
	return func(b *promptBuilder) { b.config[KeyMaxTokens] = maxTokens }
}

// WithTemperature 设置采样温度
func WithTemperature(temperature float64) Option {
	return func(b *promptBuilder) { b.config[KeyTemperature] = temperature }
}

// WithTemplate 设置内联模板源
func WithTemplate(source string) Option {
	return func(b *promptBuilder) { b.config[KeyTemplate] = source }
}

// ═══════════════════════════════════════════════════════════════════════════
// 合并字段选项
// ═══════════════════════════════════════════════════════════════════════════

// WithContext 叠加模板渲染上下文（逐键合并，后设置的胜出）
func WithContext(ctx map[string]any) Option {
	return func(b *promptBuilder) {
		b.config[KeyContext] = mergeAnyMap(b.config[KeyContext], ctx)
	}
}

// WithContextValue 设置单个上下文变量
func WithContextValue(key string, value any) Option {
	return WithContext(map[string]any{key: value})
}

// WithFilter 注册模板过滤器
func WithFilter(name string, fn FilterFunc) Option {
	return func(b *promptBuilder) {
		b.config[KeyFilters] = mergeAnyMap(b.config[KeyFilters], map[string]any{name: fn})
	}
}

// WithTools 添加工具定义
func WithTools(tools ...tool.Tool) Option {
	return func(b *promptBuilder) {
		add := make(map[string]any, len(tools))
		for _, t := range tools {
			add[t.Name()] = t
		}
		b.config[KeyTools] = mergeAnyMap(b.config[KeyTools], add)
	}
}

// WithGlobalTools 从全局注册表按名称引用工具
//
// 工具需要先通过 tool.Register() 注册；未注册的名称跳过。
func WithGlobalTools(names ...string) Option {
	return func(b *promptBuilder) {
		registry := builtin.Default()
		add := make(map[string]any, len(names))
		for _, name := range names {
			if t, ok := registry.Get(name); ok {
				add[name] = t
			}
		}
		b.config[KeyTools] = mergeAnyMap(b.config[KeyTools], add)
	}
}

// WithMessages 追加对话历史
func WithMessages(messages ...llm.Message) Option {
	return func(b *promptBuilder) {
		b.config[KeyMessages] = concatMessages(b.config[KeyMessages], messages)
	}
}

// WithLoader 追加 loader 链条目（普通 loader 或 race 分组）
func WithLoader(loaders ...Loader) Option {
	return func(b *promptBuilder) {
		chain := NormalizeChain(b.config[KeyLoader])
		b.config[KeyLoader] = append(chain, loaders...)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 配置与继承选项
// ═══════════════════════════════════════════════════════════════════════════

// WithConfig 叠加一份完整配置（按 Merge 策略合并到已有配置之上）
func WithConfig(cfg Config) Option {
	return func(b *promptBuilder) {
		if cfg == nil {
			return
		}
		b.config = Merge(b.config, cfg)
	}
}

// WithParent 设置父级配置来源
//
// 构建时父配置与本级配置按 [Merge] 合并；任何 [ConfigProvider]
// 均可作为父级，包括另一个 Prompt。
func WithParent(parent ConfigProvider) Option {
	return func(b *promptBuilder) { b.parent = parent }
}

// ═══════════════════════════════════════════════════════════════════════════
// 依赖注入选项
// ═══════════════════════════════════════════════════════════════════════════

// WithEngine 设置模板引擎
func WithEngine(engine Engine) Option {
	return func(b *promptBuilder) { b.engine = engine }
}

// WithProvider 设置生成调用方
//
// 不设置时，若配置携带 API 密钥则自动创建 llm.Provider；
// 否则构建出仅可 Render 的 Prompt。
func WithProvider(p Completer) Option {
	return func(b *promptBuilder) { b.provider = p }
}

// WithLogger 设置日志器
func WithLogger(logger *slog.Logger) Option {
	return func(b *promptBuilder) { b.logger = logger }
}

// ═══════════════════════════════════════════════════════════════════════════
// 重试配置选项
// ═══════════════════════════════════════════════════════════════════════════

// WithRetryConfig 设置 Provider 调用重试配置
func WithRetryConfig(cfg *RetryConfig) Option {
	return func(b *promptBuilder) { b.retryConfig = cfg }
}

// WithMaxRetries 设置最大重试次数（便捷方法）
func WithMaxRetries(maxRetries int) Option {
	return func(b *promptBuilder) {
		if b.retryConfig == nil {
			b.retryConfig = DefaultRetryConfig()
		}
		b.retryConfig.MaxRetries = maxRetries
	}
}

// DisableRetry 禁用重试（便捷方法）
func DisableRetry() Option {
	return WithMaxRetries(0)
}
