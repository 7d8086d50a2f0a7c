package prompt

import (
	"github.com/urfave/cli/v3"
)

// ═══════════════════════════════════════════════════════════════════════════
// CLI 覆盖
// ═══════════════════════════════════════════════════════════════════════════

// ConfigFromCmd 从 CLI flags 提取配置覆盖
//
// 仅当用户显式指定 flag 时才产生对应字段，保持「默认值 < 配置文件 <
// CLI flags」的优先级：把返回值作为最后一级子配置 [Merge] 即可。
//
// 识别的 flags（与保留字段同名）：
// model, system, template, api-key, base-url, max-tokens, temperature。
//
// 示例：
//
//	cmd := &cli.Command{
//	    Flags: []cli.Flag{
//	        &cli.StringFlag{Name: "model"},
//	        &cli.IntFlag{Name: "max-tokens"},
//	    },
//	    Action: func(ctx context.Context, cmd *cli.Command) error {
//	        cfg := prompt.Merge(base, prompt.ConfigFromCmd(cmd))
//	        // ...
//	    },
//	}
func ConfigFromCmd(cmd *cli.Command) Config {
	out := Config{}

	for _, key := range []string{KeyModel, KeySystem, KeyTemplate, KeyAPIKey, KeyBaseURL} {
		if cmd.IsSet(key) {
			out[key] = cmd.String(key)
		}
	}
	if cmd.IsSet(KeyMaxTokens) {
		out[KeyMaxTokens] = int(cmd.Int(KeyMaxTokens))
	}
	if cmd.IsSet(KeyTemperature) {
		out[KeyTemperature] = float64(cmd.Float(KeyTemperature))
	}

	return out
}
