package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextEngine(t *testing.T) {
	engine := NewTextEngine()

	t.Run("render", func(t *testing.T) {
		tpl, err := engine.Compile("Hello {{ .name }}", nil)
		require.NoError(t, err)

		got, err := tpl.Render(map[string]any{"name": "Go"})

		require.NoError(t, err)
		assert.Equal(t, "Hello Go", got)
	})

	t.Run("missing_key_renders_zero", func(t *testing.T) {
		tpl, err := engine.Compile("[{{ .missing }}]", nil)
		require.NoError(t, err)

		got, err := tpl.Render(map[string]any{})

		require.NoError(t, err)
		assert.Equal(t, "[<no value>]", got)
	})

	t.Run("compile_error", func(t *testing.T) {
		_, err := engine.Compile("{{ .unclosed", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "compile template")
	})

	t.Run("filters_as_functions", func(t *testing.T) {
		filters := map[string]FilterFunc{
			"upper": func(args ...any) (any, error) {
				return strings.ToUpper(args[0].(string)), nil
			},
		}
		tpl, err := engine.Compile("{{ upper .word }}", filters)
		require.NoError(t, err)

		got, err := tpl.Render(map[string]any{"word": "go"})

		require.NoError(t, err)
		assert.Equal(t, "GO", got)
	})
}

// staticEngine 忽略模板语法、返回固定文本的引擎
type staticEngine struct{ output string }

func (e staticEngine) Compile(source string, filters map[string]FilterFunc) (Template, error) {
	return staticTemplate{output: e.output}, nil
}

type staticTemplate struct{ output string }

func (t staticTemplate) Render(data map[string]any) (string, error) {
	return t.output, nil
}

func TestPrompt_CustomEngine(t *testing.T) {
	p, err := NewPrompt(
		WithTemplate("ignored {{ by custom engine"),
		WithEngine(staticEngine{output: "engine output"}),
	)
	require.NoError(t, err)

	got, err := p.Render(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "engine output", got)
}
