package prompt

import (
	"maps"
	"reflect"
	"slices"

	"github.com/lwmacct/251215-go-pkg-llm/pkg/llm"
)

// ConfigProvider 暴露自身配置的对象（父级配置来源）
//
// Prompt 实现了该接口，因此任何 Prompt 都可以作为子 Prompt 的父级。
type ConfigProvider interface {
	Config() Config
}

// ═══════════════════════════════════════════════════════════════════════════
// 字段合并策略表
// ═══════════════════════════════════════════════════════════════════════════

// mergeStrategy 保留字段的合并策略
type mergeStrategy int

const (
	// strategyMergeMap 逐键深合并：父条目在前，子条目按键覆盖
	strategyMergeMap mergeStrategy = iota
	// strategyConcat 顺序拼接：父序列在前，子序列在后，不去重
	strategyConcat
	// strategyCompose loader 链合成，见 ComposeLoaders
	strategyCompose
)

// fieldStrategy 枚举所有需要特殊合并的字段；
// 表外字段一律浅覆盖（子配置整体替换父配置的值）。
var fieldStrategy = map[string]mergeStrategy{
	KeyContext:  strategyMergeMap,
	KeyFilters:  strategyMergeMap,
	KeyTools:    strategyMergeMap,
	KeyMessages: strategyConcat,
	KeyLoader:   strategyCompose,
}

// ═══════════════════════════════════════════════════════════════════════════
// 合并
// ═══════════════════════════════════════════════════════════════════════════

// Merge 把父配置与子配置合并为一份生效配置
//
// 纯函数，不修改任何一侧输入。任一侧为 nil 时返回另一侧的副本。
// 两侧都存在时：先做浅并集（键冲突子配置胜出），再按 fieldStrategy
// 对保留字段重算。合并不做校验，畸形输入原样透传，由工厂在合并后
// 调用 [ValidateConfig]。
//
// 多级继承（祖父 → 父 → 子）通过两两合并前推实现，见 [MergeAll]。
func Merge(parent, child Config) Config {
	if parent == nil {
		return child.Clone()
	}
	if child == nil {
		return parent.Clone()
	}

	out := make(Config, len(parent)+len(child))
	maps.Copy(out, parent)
	maps.Copy(out, child)

	for key, strategy := range fieldStrategy {
		pv, pok := parent[key]
		cv, cok := child[key]
		if !pok && !cok {
			continue
		}
		switch strategy {
		case strategyMergeMap:
			out[key] = mergeAnyMap(pv, cv)
		case strategyConcat:
			out[key] = concatMessages(pv, cv)
		case strategyCompose:
			out[key] = mergeLoaderField(pv, cv)
		}
	}
	return out
}

// MergeAll 从左到右折叠合并多级配置
//
// MergeAll(grandparent, parent, child) 等价于
// Merge(Merge(grandparent, parent), child)。
func MergeAll(configs ...Config) Config {
	var out Config
	for _, cfg := range configs {
		out = Merge(out, cfg)
	}
	if out == nil {
		return Config{}
	}
	return out
}

// Resolve 合并父级提供者与子配置
//
// parent 为 nil 时等价于 child 的副本。
func Resolve(parent ConfigProvider, child Config) Config {
	if parent == nil {
		return Merge(nil, child)
	}
	return Merge(parent.Config(), child)
}

// ═══════════════════════════════════════════════════════════════════════════
// 字段级合并
// ═══════════════════════════════════════════════════════════════════════════

// mergeAnyMap 逐键合并两个映射：父条目在前，子条目按键覆盖。
// 任一侧不是 string 键映射时退化为浅覆盖（子值胜出）。
func mergeAnyMap(pv, cv any) any {
	p := toAnyMap(pv)
	c := toAnyMap(cv)
	if p == nil && c == nil {
		if cv != nil {
			return cv
		}
		return pv
	}
	out := make(map[string]any, len(p)+len(c))
	maps.Copy(out, p)
	maps.Copy(out, c)
	return out
}

// concatMessages 顺序拼接对话历史：父消息在前，子消息在后。
// 对话历史的顺序有语义，不去重。
func concatMessages(pv, cv any) any {
	p := decodeMessages(pv)
	c := decodeMessages(cv)
	if p == nil && c == nil {
		if cv != nil {
			return cv
		}
		return pv
	}
	out := make([]llm.Message, 0, len(p)+len(c))
	out = append(out, p...)
	out = append(out, c...)
	return out
}

// mergeLoaderField 合并 loader 字段
//
// 两侧都不含 race 分组时走简单路径：子链在前拼接父链，并按引用
// 恒等去重。任一侧含分组时交给 [ComposeLoaders]（分组内部不去重）。
func mergeLoaderField(pv, cv any) any {
	p := NormalizeChain(pv)
	c := NormalizeChain(cv)
	if !hasGroups(p) && !hasGroups(c) {
		chain := make([]Loader, 0, len(p)+len(c))
		chain = append(chain, c...)
		chain = append(chain, p...)
		return dedupeLoaders(chain)
	}
	return ComposeLoaders(p, c)
}

// hasGroups 判断链上是否出现 race 分组或合并标记
func hasGroups(chain []Loader) bool {
	return slices.ContainsFunc(chain, func(l Loader) bool {
		return kindOf(l) != kindLoader
	})
}

// dedupeLoaders 按引用恒等去重，保留首次出现的位置
//
// 去重基于引用而非结构相等：loader 可能是有状态句柄，同构不等于
// 同一。不可比较的 loader（函数适配器等）没有恒等可言，总是保留。
func dedupeLoaders(chain []Loader) []Loader {
	seen := make(map[Loader]struct{}, len(chain))
	out := make([]Loader, 0, len(chain))
	for _, l := range chain {
		if l == nil {
			continue
		}
		if !reflect.TypeOf(l).Comparable() {
			out = append(out, l)
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
