// Package prompt 提供 Prompt 配置组合与分发层
//
// 本包位于用户声明的配置对象与外部模板/LLM 调用运行时之间：
// 负责父子配置的继承合并、loader 链的合成（含命名 race 分组的
// 跨层级收拢），以及合并结果向模板引擎与 Provider 的分发。
//
// # 三层 API 设计
//
//   - L0: [Quick] / [QuickRender] - 零配置一次性调用
//   - L1: Fluent Builder (推荐) - 链式配置，IDE 友好，参见 [New]
//   - L2: Functional Options - 完全控制，动态配置，参见 [NewPrompt]
//
// # 配置合并
//
// [Merge] 是纯函数：浅并集之上对保留字段应用专门策略——
// context/filters/tools 逐键深合并，messages 顺序拼接，
// loader 链交给 [ComposeLoaders] 合成。多级继承通过两两合并
// 前推实现，参见 [MergeAll]。
//
// # Loader 与 race 分组
//
// [Loader] 是模板源的不透明句柄。[Race] 声明一组并发竞速的
// loader（最先成功者胜出）；[NamedRace] 额外携带分组名，同名
// 分组在继承链的不同层级出现时被收拢为一场竞速——子级只管向
// 分组追加成员，无需知道父级已有哪些。已收拢的分组以
// [MergedGroup] 标记保留身份，供更高层级继续扩展；交给模板
// 引擎之前用 [Flatten] 解包。
//
// # 配置加载
//
// 支持多种配置方式：
//   - [LoadFile] / [LoadFiles]: YAML/JSON 配置文件（koanf）
//   - [FromYAML] / [FromJSON]: 字节串配置
//   - [ConfigFromCmd]: CLI flags 覆盖
//
// # 外部协作方
//
// 模板语法由 [Engine] 负责（默认 Go 模板实现），生成调用由
// [Completer] 负责（llm.Provider 满足该接口）。两者都可替换，
// 本包不关心其内部行为。
//
// # 包文件组织
//
//   - config.go: Config 类型与取值辅助
//   - merge.go: 配置合并（策略表 + Merge/MergeAll）
//   - compose.go: loader 链合成（race 分组收拢）
//   - race.go: 竞速执行
//   - loader*.go: 内置 loader（文件/HTTP/缓存）
//   - prompt.go: Prompt 核心类型与分发
//   - builder.go / options.go / quick.go: 三层 API
package prompt
