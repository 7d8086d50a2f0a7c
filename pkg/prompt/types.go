package prompt

import (
	"slices"

	"github.com/go-viper/mapstructure/v2"

	"github.com/lwmacct/251215-go-pkg-llm/pkg/llm"
)

// ═══════════════════════════════════════════════════════════════════════════
// Filters
// ═══════════════════════════════════════════════════════════════════════════

// FilterFunc is a template filter: it receives the piped value (and any
// extra arguments) and returns the transformed value.
//
// Filters live in the `filters` config field and are handed to the template
// engine at compile time.
type FilterFunc func(args ...any) (any, error)

// ═══════════════════════════════════════════════════════════════════════════
// Messages
// ═══════════════════════════════════════════════════════════════════════════

// UserMessage 构造纯文本用户消息
func UserMessage(text string) llm.Message {
	return llm.Message{
		Role:          llm.RoleUser,
		ContentBlocks: []llm.ContentBlock{&llm.TextBlock{Text: text}},
	}
}

// AssistantMessage 构造纯文本助手消息
func AssistantMessage(text string) llm.Message {
	return llm.Message{
		Role:          llm.RoleAssistant,
		ContentBlocks: []llm.ContentBlock{&llm.TextBlock{Text: text}},
	}
}

// messageSpec 配置文件中的消息形态（role/content 映射）
type messageSpec struct {
	Role    string `koanf:"role" mapstructure:"role"`
	Content string `koanf:"content" mapstructure:"content"`
}

// decodeMessages 把 messages 字段值解码为消息序列
//
// 支持三种形态：代码直接放入的 []llm.Message、单条 llm.Message、
// 以及文件来源的 role/content 映射序列。无法解码的值返回 nil。
func decodeMessages(v any) []llm.Message {
	switch m := v.(type) {
	case nil:
		return nil
	case []llm.Message:
		return slices.Clone(m)
	case llm.Message:
		return []llm.Message{m}
	}

	var specs []messageSpec
	if err := mapstructure.Decode(v, &specs); err != nil {
		return nil
	}
	out := make([]llm.Message, 0, len(specs))
	for _, s := range specs {
		if s.Role == "assistant" {
			out = append(out, AssistantMessage(s.Content))
			continue
		}
		out = append(out, UserMessage(s.Content))
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// Result and Event
// ═══════════════════════════════════════════════════════════════════════════

// Result 一次生成调用的结果
type Result struct {
	Text     string         `json:"text"`               // 完整响应文本
	Source   string         `json:"source,omitempty"`   // 渲染后的提示词
	Messages []llm.Message  `json:"messages,omitempty"` // 本次调用发送的消息
	Model    string         `json:"model,omitempty"`    // 实际使用的模型
	Attempts int            `json:"attempts"`           // Provider 调用次数（含重试）
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Event 流式生成事件
//
// 与 llm.Event 的区别：llm.Event 是 Provider 的原生增量事件，
// Event 是 Prompt 层聚合后的事件（文本增量、最终结果、错误）。
type Event struct {
	Type llm.EventType `json:"type"`

	// llm.EventTypeText
	Text string `json:"text,omitempty"`

	// llm.EventTypeDone
	Result *Result `json:"result,omitempty"`

	// llm.EventTypeError
	Error error `json:"error,omitempty"`
}
