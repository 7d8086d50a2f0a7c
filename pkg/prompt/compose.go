package prompt

import "slices"

// ═══════════════════════════════════════════════════════════════════════════
// 链条目的变体类型
// ═══════════════════════════════════════════════════════════════════════════

// loader 链上的条目通过具体类型区分变体：
// 普通 Loader、匿名 race 分组、命名 race 分组、合并标记。
// kindOf 给出判别值，保证 switch 分支穷尽。
type entryKind int

const (
	kindLoader entryKind = iota
	kindAnonymousRace
	kindNamedRace
	kindMergedGroup
)

// kindOf 返回链条目的变体判别值
func kindOf(l Loader) entryKind {
	switch v := l.(type) {
	case *RaceGroup:
		if v.Group == "" {
			return kindAnonymousRace
		}
		return kindNamedRace
	case *MergedGroup:
		return kindMergedGroup
	default:
		return kindLoader
	}
}

// RaceGroup 一组并发竞速的 loader：最先成功的结果胜出
//
// Group 为空时是匿名分组：只在自己出现的位置参与竞速，不同继承层级
// 的匿名分组彼此独立。Group 非空时是命名分组：合并时同名分组会被
// 收拢成单一竞速，见 [ComposeLoaders]。
//
// RaceGroup 自身也实现 Loader，可以不经合并直接加载。
type RaceGroup struct {
	Group   string
	Loaders []Loader
}

// Race 声明匿名 race 分组
func Race(loaders ...Loader) *RaceGroup {
	return &RaceGroup{Loaders: loaders}
}

// NamedRace 声明命名 race 分组
//
// 同名分组跨继承层级合并为一场竞速：子级只需向分组追加 loader，
// 无需知道父级分组中已有哪些成员。
func NamedRace(group string, loaders ...Loader) *RaceGroup {
	return &RaceGroup{Group: group, Loaders: loaders}
}

// MergedGroup 已收拢的命名分组标记
//
// 命名分组在一次合并中被收拢为单个竞速 loader 后，用原分组名重新
// 打上标记，使更高层级的合并仍能识别并继续扩展该分组。链条交给
// 模板引擎之前由 [Flatten] 解包。
type MergedGroup struct {
	Group  string
	Loader Loader
}

// Unwrap 返回标记包裹的竞速 loader
func (m *MergedGroup) Unwrap() Loader { return m.Loader }

// ═══════════════════════════════════════════════════════════════════════════
// 链规范化
// ═══════════════════════════════════════════════════════════════════════════

// NormalizeChain 把 loader 字段值规范化为链
//
// 规则：nil → 空链；单个 Loader（含分组/标记）→ 单元素链；
// []Loader → 其副本；[]any → 逐元素断言，忽略非 Loader 值。
func NormalizeChain(v any) []Loader {
	switch chain := v.(type) {
	case nil:
		return nil
	case []Loader:
		return slices.Clone(chain)
	case []any:
		out := make([]Loader, 0, len(chain))
		for _, e := range chain {
			if l, ok := e.(Loader); ok {
				out = append(out, l)
			}
		}
		return out
	case Loader:
		return []Loader{chain}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 链合成
// ═══════════════════════════════════════════════════════════════════════════

// ComposeLoaders 合成父子 loader 链
//
// 输入链拼接为子链在前、父链在后（子 loader 先被尝试）。单趟扫描：
//
//   - 普通 loader 原位保留。
//   - 匿名分组原位收拢为单个竞速 loader，从不与其他分组合并。
//   - 命名分组首次出现时占住位置并开始收集成员；再次出现只追加
//     成员，不产生新位置。
//   - 合并标记重新打开同名分组：其包裹的竞速 loader 的成员被摊平
//     追加进收集，保证跨三层以上的继承合并出来仍是一场平坦的竞速。
//
// 扫描结束后，每个收集到至少一个成员的命名分组在首次出现的位置
// 收拢为竞速 loader，并用 [MergedGroup] 重新标记；空分组丢弃。
// nil 条目与分组内的 nil 成员一律过滤。分组内不按恒等去重（去重
// 只发生在 Merge 的简单路径上）。
func ComposeLoaders(parent, child []Loader) []Loader {
	chain := make([]Loader, 0, len(parent)+len(child))
	chain = append(chain, child...)
	chain = append(chain, parent...)

	type groupState struct {
		pos     int // 首次出现在 out 中的占位下标
		loaders []Loader
	}
	groups := make(map[string]*groupState)

	out := make([]Loader, 0, len(chain))
	for _, entry := range chain {
		if entry == nil {
			continue
		}
		switch kindOf(entry) {
		case kindLoader:
			out = append(out, entry)

		case kindAnonymousRace:
			g := entry.(*RaceGroup)
			members := compactLoaders(g.Loaders)
			if len(members) == 0 {
				continue
			}
			out = append(out, newRaceLoader(members))

		case kindNamedRace:
			g := entry.(*RaceGroup)
			st, ok := groups[g.Group]
			if !ok {
				st = &groupState{pos: len(out)}
				groups[g.Group] = st
				out = append(out, nil) // 占位，结束后回填
			}
			st.loaders = append(st.loaders, compactLoaders(g.Loaders)...)

		case kindMergedGroup:
			m := entry.(*MergedGroup)
			st, ok := groups[m.Group]
			if !ok {
				st = &groupState{pos: len(out)}
				groups[m.Group] = st
				out = append(out, nil)
			}
			st.loaders = append(st.loaders, raceMembers(m.Loader)...)
		}
	}

	for group, st := range groups {
		if len(st.loaders) == 0 {
			continue
		}
		out[st.pos] = &MergedGroup{Group: group, Loader: newRaceLoader(st.loaders)}
	}

	// 去掉空分组残留的占位
	final := make([]Loader, 0, len(out))
	for _, entry := range out {
		if entry != nil {
			final = append(final, entry)
		}
	}
	return final
}

// Flatten 解包合并标记，得到可交给模板引擎的平坦链
//
// 继承链顶端的调用方在把链交给引擎之前调用；链中间层级保留标记，
// 以便更高层级继续扩展命名分组。
func Flatten(chain []Loader) []Loader {
	out := make([]Loader, 0, len(chain))
	for _, entry := range chain {
		if entry == nil {
			continue
		}
		if m, ok := entry.(*MergedGroup); ok {
			out = append(out, m.Loader)
			continue
		}
		out = append(out, entry)
	}
	return out
}

// compactLoaders 过滤分组成员中的 nil
func compactLoaders(loaders []Loader) []Loader {
	out := make([]Loader, 0, len(loaders))
	for _, l := range loaders {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

// raceMembers 摊平一个已收拢的竞速 loader 的成员
//
// 合并标记包裹的一定是竞速 loader，此时返回其成员副本；
// 防御性地兼容被手工构造的标记包裹任意 loader 的情况。
func raceMembers(l Loader) []Loader {
	switch v := l.(type) {
	case nil:
		return nil
	case *raceLoader:
		return slices.Clone(v.loaders)
	}
	return []Loader{l}
}
