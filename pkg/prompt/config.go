package prompt

import (
	"maps"
	"reflect"
	"slices"

	"github.com/mitchellh/copystructure"

	"github.com/lwmacct/251215-go-pkg-llm/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-tool/pkg/tool"
)

// Config Prompt 配置
//
// 配置是开放的键值映射：除下列保留字段外，任何字段都会原样透传给
// 下游的生成函数（下游忽略不认识的字段）。保留字段拥有专门的合并
// 策略，见 [Merge]。
//
// 字段值约定：
//   - context:  map[string]any，模板渲染上下文
//   - filters:  map[string]FilterFunc，模板过滤器
//   - tools:    map[string]tool.Tool，工具定义
//   - messages: []llm.Message，对话历史
//   - loader:   Loader、[]Loader 或 race 分组，见 [Race]/[NamedRace]
type Config map[string]any

// 保留字段名（koanf 风格的 kebab-case 键名）
const (
	KeyID          = "id"
	KeyName        = "name"
	KeyModel       = "model"
	KeySystem      = "system"
	KeyAPIKey      = "api-key"
	KeyBaseURL     = "base-url"
	KeyMaxTokens   = "max-tokens"
	KeyTemperature = "temperature"
	KeyTemplate    = "template"
	KeyContext     = "context"
	KeyFilters     = "filters"
	KeyTools       = "tools"
	KeyMessages    = "messages"
	KeyLoader      = "loader"
	KeyMetadata    = "metadata"
)

// ═══════════════════════════════════════════════════════════════════════════
// 取值辅助
// ═══════════════════════════════════════════════════════════════════════════

// Has 判断字段是否存在
func (c Config) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// String 返回字符串字段，类型不符时返回空串
func (c Config) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Int 返回整数字段，兼容 JSON 反序列化产生的 float64
func (c Config) Int(key string) int {
	switch n := c[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Float 返回浮点字段
func (c Config) Float(key string) float64 {
	switch n := c[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

// Model 返回模型名
func (c Config) Model() string { return c.String(KeyModel) }

// System 返回系统提示词
func (c Config) System() string { return c.String(KeySystem) }

// Template 返回内联模板源码
func (c Config) Template() string { return c.String(KeyTemplate) }

// MaxTokens 返回最大 token 数
func (c Config) MaxTokens() int { return c.Int(KeyMaxTokens) }

// Temperature 返回采样温度
func (c Config) Temperature() float64 { return c.Float(KeyTemperature) }

// Context 返回模板渲染上下文
func (c Config) Context() map[string]any {
	return toAnyMap(c[KeyContext])
}

// Filters 返回模板过滤器表
//
// 值支持 [FilterFunc] 或裸函数 func(args ...any) (any, error)，
// 其余类型跳过。
func (c Config) Filters() map[string]FilterFunc {
	raw := toAnyMap(c[KeyFilters])
	if raw == nil {
		return nil
	}
	out := make(map[string]FilterFunc, len(raw))
	for name, v := range raw {
		switch fn := v.(type) {
		case FilterFunc:
			out[name] = fn
		case func(args ...any) (any, error):
			out[name] = fn
		}
	}
	return out
}

// Tools 返回工具定义表
func (c Config) Tools() map[string]tool.Tool {
	raw := toAnyMap(c[KeyTools])
	if raw == nil {
		return nil
	}
	out := make(map[string]tool.Tool, len(raw))
	for name, v := range raw {
		if t, ok := v.(tool.Tool); ok {
			out[name] = t
		}
	}
	return out
}

// Messages 返回对话历史
//
// 来自代码的配置直接携带 []llm.Message；来自 YAML/JSON 文件的配置
// 携带 role/content 映射的序列，在这里解码为文本消息。
func (c Config) Messages() []llm.Message {
	return decodeMessages(c[KeyMessages])
}

// Loaders 返回规范化后的 loader 链
func (c Config) Loaders() []Loader {
	return NormalizeChain(c[KeyLoader])
}

// With 返回设置了指定字段的新配置（写时复制，不修改原配置）
func (c Config) With(key string, value any) Config {
	out := c.Clone()
	out[key] = value
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// 复制
// ═══════════════════════════════════════════════════════════════════════════

// Clone 复制配置
//
// 顶层浅拷贝；context/metadata 这类纯数据字段深拷贝，保证继承链上的
// 子配置修改不会穿透到父配置。filters/tools/loader 持有的是不透明句柄，
// 按引用复制（句柄可能有状态，复制语义由持有者决定）。
func (c Config) Clone() Config {
	if c == nil {
		return Config{}
	}
	out := make(Config, len(c))
	maps.Copy(out, c)

	for _, key := range []string{KeyContext, KeyMetadata} {
		if v, ok := out[key]; ok && v != nil {
			if dup, err := copystructure.Copy(v); err == nil {
				out[key] = dup
			}
		}
	}
	if msgs, ok := out[KeyMessages].([]llm.Message); ok {
		out[KeyMessages] = slices.Clone(msgs)
	}
	if chain, ok := out[KeyLoader].([]Loader); ok {
		out[KeyLoader] = slices.Clone(chain)
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// 内部转换
// ═══════════════════════════════════════════════════════════════════════════

// toAnyMap 把任意 string 键的 map 归一化为 map[string]any
func toAnyMap(v any) map[string]any {
	switch m := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return m
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	out := make(map[string]any, rv.Len())
	for _, k := range rv.MapKeys() {
		out[k.String()] = rv.MapIndex(k).Interface()
	}
	return out
}
