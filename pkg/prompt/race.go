package prompt

import (
	"context"
	"errors"
)

// ═══════════════════════════════════════════════════════════════════════════
// 竞速执行
// ═══════════════════════════════════════════════════════════════════════════

// raceLoader 并发竞速多个 loader，最先成功的结果胜出
//
// 这是 race 分组收拢后的具体形态。合并阶段只是静态声明，真正的
// 并发发生在 Load 被调用时：胜出后取消剩余分支的 ctx。
type raceLoader struct {
	loaders []Loader
}

// newRaceLoader 创建竞速 loader，成员中的 nil 已由调用方过滤
func newRaceLoader(loaders []Loader) *raceLoader {
	return &raceLoader{loaders: loaders}
}

// Load 实现 Loader
//
// 全部分支失败时返回 errors.Join 聚合的错误。
func (r *raceLoader) Load(ctx context.Context) (string, error) {
	if len(r.loaders) == 0 {
		return "", ErrEmptyRace
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		source string
		err    error
	}
	results := make(chan outcome, len(r.loaders))
	for _, l := range r.loaders {
		go func(l Loader) {
			source, err := l.Load(ctx)
			results <- outcome{source: source, err: err}
		}(l)
	}

	errs := make([]error, 0, len(r.loaders))
	for range r.loaders {
		o := <-results
		if o.err == nil {
			return o.source, nil
		}
		errs = append(errs, o.err)
	}
	return "", errors.Join(errs...)
}

// Load 实现 Loader：未经过合并的分组直接按声明竞速
func (g *RaceGroup) Load(ctx context.Context) (string, error) {
	return newRaceLoader(compactLoaders(g.Loaders)).Load(ctx)
}

// Load 实现 Loader：标记透传给包裹的竞速 loader
func (m *MergedGroup) Load(ctx context.Context) (string, error) {
	if m.Loader == nil {
		return "", ErrEmptyRace
	}
	return m.Loader.Load(ctx)
}
