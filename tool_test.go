package mcpcli_test

import (
	"testing"

	"github.com/fwojciec/mcpcli"
	"github.com/stretchr/testify/assert"
)

func TestToolResult_Text(t *testing.T) {
	t.Parallel()

	t.Run("nil result", func(t *testing.T) {
		t.Parallel()
		var r *mcpcli.ToolResult
		assert.Empty(t, r.Text())
	})

	t.Run("string value is returned verbatim", func(t *testing.T) {
		t.Parallel()
		r := &mcpcli.ToolResult{Value: "Hello, World!"}
		assert.Equal(t, "Hello, World!", r.Text())
	})

	t.Run("structured value is rendered as json", func(t *testing.T) {
		t.Parallel()
		r := &mcpcli.ToolResult{Value: map[string]any{"count": 2}}
		assert.JSONEq(t, `{"count":2}`, r.Text())
	})
}

func TestFindTool(t *testing.T) {
	t.Parallel()
	tools := []mcpcli.Tool{
		{Name: "say_hello", Mode: mcpcli.ModeLocal},
		{Name: "list_algorithms", Mode: mcpcli.ModeLocal},
	}

	got, ok := mcpcli.FindTool(tools, "list_algorithms")
	assert.True(t, ok)
	assert.Equal(t, "list_algorithms", got.Name)

	_, ok = mcpcli.FindTool(tools, "List_Algorithms")
	assert.False(t, ok, "lookup is exact")
}

func TestRole_Values(t *testing.T) {
	t.Parallel()
	assert.Equal(t, mcpcli.Role("user"), mcpcli.RoleUser)
	assert.Equal(t, mcpcli.Role("assistant"), mcpcli.RoleAssistant)
	assert.Equal(t, mcpcli.Role("tool"), mcpcli.RoleTool)
	assert.Equal(t, mcpcli.RoleTool, mcpcli.ToolMessage{}.Role())
}

func TestUsage_Total(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, mcpcli.Usage{}.Total())
	assert.Equal(t, 12, mcpcli.Usage{InputTokens: 5, OutputTokens: 7}.Total())
}

func TestDefaultTheme(t *testing.T) {
	t.Parallel()

	theme := mcpcli.DefaultTheme()

	assert.Equal(t, 4, theme.UserMsg)
	assert.Equal(t, 1, theme.Error)
	assert.Equal(t, 3, theme.ToolCall)
	assert.Equal(t, 2, theme.Success)
	assert.Equal(t, 8, theme.Muted)
	assert.Equal(t, 0, theme.CodeBg)
	assert.Equal(t, 5, theme.Accent)
}
