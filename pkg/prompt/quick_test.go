package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuickRender(t *testing.T) {
	got, err := QuickRender(context.Background(), "Hello {{ .name }}", map[string]any{"name": "Go"})

	require.NoError(t, err)
	assert.Equal(t, "Hello Go", got)
}

func TestQuick_NoAPIKey(t *testing.T) {
	// 清掉所有被探测的环境变量，保证没有 Provider 被自动创建
	for _, name := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "LLM_API_KEY", "API_KEY",
	} {
		t.Setenv(name, "")
	}

	_, err := Quick(context.Background(), "hi", nil)

	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestDetectModel(t *testing.T) {
	t.Run("env_override", func(t *testing.T) {
		t.Setenv("LLM_MODEL", "custom-model")

		assert.Equal(t, "custom-model", detectModel())
	})

	t.Run("default", func(t *testing.T) {
		for _, name := range []string{"LLM_MODEL", "OPENAI_MODEL", "MODEL"} {
			t.Setenv(name, "")
		}

		assert.Equal(t, "gpt-4o-mini", detectModel())
	})
}

func TestDetectAPIKey_Priority(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "first")
	t.Setenv("API_KEY", "last")

	assert.Equal(t, "first", detectAPIKey())
}
