package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lwmacct/251215-go-pkg-llm/pkg/llm"
)

// Completer 文本生成调用方（外部协作方）
//
// llm.Provider 满足该接口；测试中可以用任意实现替换。
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, opts *llm.Options) (*llm.Response, error)
	Stream(ctx context.Context, messages []llm.Message, opts *llm.Options) (<-chan *llm.Event, error)
}

// ═══════════════════════════════════════════════════════════════════════════
// Prompt
// ═══════════════════════════════════════════════════════════════════════════

// Prompt 生效配置 + 分发能力的不可变组合
//
// Prompt 在构建时完成父子配置合并与校验，之后不再持有合并状态。
// 它实现 [ConfigProvider]，因此可以继续作为下一级 Prompt 的父级。
//
// 核心方法：
//   - Render(): 解析模板源并渲染
//   - Generate(): 渲染后分发给 Provider，阻塞返回
//   - Stream(): 渲染后流式分发，返回事件流
type Prompt struct {
	id     string
	config Config

	engine      Engine
	provider    Completer
	retryConfig *RetryConfig
	logger      *slog.Logger
}

// ID 返回 Prompt ID
func (p *Prompt) ID() string { return p.id }

// Name 返回配置中的名称
func (p *Prompt) Name() string { return p.config.String(KeyName) }

// Config 返回生效配置的副本，实现 [ConfigProvider]
func (p *Prompt) Config() Config {
	return p.config.Clone()
}

// Extend 以当前 Prompt 为父级构建子 Prompt
//
// 子配置按 [Merge] 的策略叠加：context/filters/tools 逐键深合并，
// messages 拼接，loader 链合成（命名 race 分组跨层级收拢），
// 其余字段子配置覆盖。引擎、Provider、日志器等运行时依赖继承。
//
// 使用示例：
//
//	base, _ := prompt.New().Model("gpt-4").ContextValue("lang", "en").Build()
//	child, err := base.Extend(prompt.Config{
//	    prompt.KeyContext: map[string]any{"topic": "AI"},
//	})
func (p *Prompt) Extend(child Config, opts ...Option) (*Prompt, error) {
	allOpts := make([]Option, 0, len(opts)+2)
	allOpts = append(allOpts, WithParent(p), WithConfig(child))
	allOpts = append(allOpts, opts...)

	b := newPromptBuilder()
	b.engine = p.engine
	b.provider = p.provider
	b.logger = p.logger
	// 重试配置按值继承：选项会原地修改 retryConfig，共享指针会让
	// 子级的修改穿透到父级
	if p.retryConfig != nil {
		cp := *p.retryConfig
		b.retryConfig = &cp
	}
	for _, opt := range allOpts {
		opt(b)
	}
	return newPromptFromBuilder(b)
}

// ═══════════════════════════════════════════════════════════════════════════
// 渲染
// ═══════════════════════════════════════════════════════════════════════════

// Render 解析模板源并渲染
//
// 模板数据 = 配置的 context 逐键叠加调用方 vars（vars 胜出）。
// 模板源来自内联 template 字段或 loader 链（顺序回退，条目内竞速）。
func (p *Prompt) Render(ctx context.Context, vars map[string]any) (string, error) {
	source, err := resolveSource(ctx, p.config)
	if err != nil {
		return "", err
	}
	return p.render(source, vars)
}

// render 编译并渲染已解析的模板源
func (p *Prompt) render(source string, vars map[string]any) (string, error) {
	tpl, err := p.engine.Compile(source, p.config.Filters())
	if err != nil {
		return "", err
	}

	base := p.config.Context()
	data := make(map[string]any, len(base)+len(vars))
	for k, v := range base {
		data[k] = v
	}
	for k, v := range vars {
		data[k] = v
	}
	return tpl.Render(data)
}

// ═══════════════════════════════════════════════════════════════════════════
// 分发
// ═══════════════════════════════════════════════════════════════════════════

// Generate 渲染并分发给 Provider，阻塞直到完成
//
// 渲染结果作为用户消息追加在配置 messages 之后发送。没有模板源
// 但配置了 messages 时跳过渲染，直接分发对话历史。
func (p *Prompt) Generate(ctx context.Context, vars map[string]any) (*Result, error) {
	if p.provider == nil {
		return nil, ErrNoProvider
	}

	messages, rendered, err := p.buildMessages(ctx, vars)
	if err != nil {
		return nil, err
	}

	opts := p.buildProviderOptions()
	resp, attempts, err := p.completeWithRetry(ctx, messages, opts)
	if err != nil {
		p.logger.Warn("generate failed", "prompt", p.id, "attempts", attempts, "error", err)
		return nil, err
	}

	text := resp.Message.GetContent()
	round := append(messages, resp.Message)
	p.logger.Info("generate done", "prompt", p.id, "model", p.config.Model(), "attempts", attempts)

	return &Result{
		Text:     text,
		Source:   rendered,
		Messages: round,
		Model:    p.config.Model(),
		Attempts: attempts,
	}, nil
}

// Stream 渲染并流式分发，返回事件流
//
// 事件序列：若干 Text 增量，随后一个携带 Result 的 Done；
// 任何阶段出错发送 Error 事件后结束。
//
// 使用示例：
//
//	for event := range p.Stream(ctx, map[string]any{"topic": "Go"}) {
//	    switch event.Type {
//	    case llm.EventTypeText:
//	        fmt.Print(event.Text)
//	    case llm.EventTypeError:
//	        log.Fatal(event.Error)
//	    }
//	}
func (p *Prompt) Stream(ctx context.Context, vars map[string]any) <-chan *Event {
	eventCh := make(chan *Event, 16)

	go func() {
		defer close(eventCh)
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("panic in Stream goroutine", "panic", r, "prompt", p.id)
				eventCh <- &Event{Type: llm.EventTypeError, Error: fmt.Errorf("prompt panic: %v", r)}
			}
		}()

		if p.provider == nil {
			eventCh <- &Event{Type: llm.EventTypeError, Error: ErrNoProvider}
			return
		}

		messages, rendered, err := p.buildMessages(ctx, vars)
		if err != nil {
			eventCh <- &Event{Type: llm.EventTypeError, Error: err}
			return
		}

		chunkCh, err := p.provider.Stream(ctx, messages, p.buildProviderOptions())
		if err != nil {
			eventCh <- &Event{Type: llm.EventTypeError, Error: err}
			return
		}

		var textBuilder strings.Builder
		for chunk := range chunkCh {
			// 工具调用与推理增量属于 Agent 层的职责，这里只聚合文本
			if chunk == nil || chunk.Type != llm.EventTypeText || chunk.TextDelta == "" {
				continue
			}
			textBuilder.WriteString(chunk.TextDelta)
			eventCh <- &Event{Type: llm.EventTypeText, Text: chunk.TextDelta}
		}

		text := textBuilder.String()
		round := append(messages, AssistantMessage(text))
		eventCh <- &Event{
			Type: llm.EventTypeDone,
			Result: &Result{
				Text:     text,
				Source:   rendered,
				Messages: round,
				Model:    p.config.Model(),
				Attempts: 1,
			},
		}
	}()

	return eventCh
}

// ═══════════════════════════════════════════════════════════════════════════
// 内部构建
// ═══════════════════════════════════════════════════════════════════════════

// buildMessages 组装本次调用的消息序列
func (p *Prompt) buildMessages(ctx context.Context, vars map[string]any) ([]llm.Message, string, error) {
	history := p.config.Messages()

	source, err := resolveSource(ctx, p.config)
	if err != nil {
		// 没有模板源但有对话历史时直接分发历史
		if errors.Is(err, ErrNoSource) && len(history) > 0 {
			return history, "", nil
		}
		return nil, "", err
	}

	rendered, err := p.render(source, vars)
	if err != nil {
		return nil, "", err
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, UserMessage(rendered))
	return messages, rendered, nil
}

// buildProviderOptions 从生效配置组装 Provider 选项
//
// 工具定义表转换为按名称排序的 schema 列表，保证请求确定性。
func (p *Prompt) buildProviderOptions() *llm.Options {
	opts := &llm.Options{
		System:      p.config.System(),
		MaxTokens:   p.config.MaxTokens(),
		Temperature: p.config.Temperature(),
	}

	tools := p.config.Tools()
	if len(tools) > 0 {
		names := make([]string, 0, len(tools))
		for name := range tools {
			names = append(names, name)
		}
		sort.Strings(names)

		schemas := make([]llm.ToolSchema, 0, len(names))
		for _, name := range names {
			t := tools[name]
			schemas = append(schemas, llm.ToolSchema{
				Name:        t.Name(),
				Description: t.Description(),
				InputSchema: t.InputSchema(),
			})
		}
		opts.Tools = schemas
	}
	return opts
}

// generatePromptID 生成 Prompt ID
func generatePromptID() string {
	return "pmt-" + uuid.New().String()
}
