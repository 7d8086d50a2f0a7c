package prompt

import (
	"fmt"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// ═══════════════════════════════════════════════════════════════════════════
// Config Loading (Koanf)
// ═══════════════════════════════════════════════════════════════════════════

// LoadFile 从 YAML/JSON 文件加载配置
//
// 按扩展名选择解析器：.yaml/.yml → YAML，.json → JSON。
// 文件来源的配置只携带数据字段；loader、filters 这类句柄字段
// 由代码侧通过 [Merge] 或构建器叠加。
//
// 示例：
//
//	base, err := prompt.LoadFile("prompts/translate.yaml")
//	p, err := prompt.New().Config(base).Filter("upper", upperFn).Build()
func LoadFile(path string) (Config, error) {
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return Config(k.Raw()), nil
}

// LoadFiles 依次加载并叠加多个配置文件
//
// 后加载的文件按 [Merge] 的策略覆盖先加载的（等价于把每个文件
// 当作前一级的子配置）。
func LoadFiles(paths ...string) (Config, error) {
	var out Config
	for _, path := range paths {
		cfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		out = Merge(out, cfg)
	}
	if out == nil {
		return Config{}, nil
	}
	return out, nil
}

// FromYAML 从 YAML 字节加载配置
func FromYAML(data []byte) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), kyaml.Parser()); err != nil {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}
	return Config(k.Raw()), nil
}

// FromJSON 从 JSON 字节加载配置
func FromJSON(data []byte) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("parse json config: %w", err)
	}
	return Config(k.Raw()), nil
}

// parserFor 按文件扩展名选择 koanf 解析器
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return kyaml.Parser(), nil
	case ".json":
		return kjson.Parser(), nil
	}
	return nil, fmt.Errorf("load config %s: unsupported file format", path)
}
