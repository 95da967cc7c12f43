package mcpcli_test

import (
	"testing"

	"github.com/fwojciec/mcpcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory(t *testing.T) {
	t.Parallel()

	t.Run("zero value is empty", func(t *testing.T) {
		t.Parallel()
		var h mcpcli.History
		assert.Equal(t, 0, h.Len())
		assert.Empty(t, h.Messages())
		_, ok := h.Last()
		assert.False(t, ok)
	})

	t.Run("append preserves order", func(t *testing.T) {
		t.Parallel()
		var h mcpcli.History
		h.Append(mcpcli.UserMessage{Content: "hi"})
		h.Append(mcpcli.AssistantMessage{Content: "hello"}, mcpcli.UserMessage{Content: "bye"})

		msgs := h.Messages()
		require.Len(t, msgs, 3)
		assert.Equal(t, mcpcli.RoleUser, msgs[0].Role())
		assert.Equal(t, mcpcli.RoleAssistant, msgs[1].Role())
		last, ok := h.Last()
		require.True(t, ok)
		assert.Equal(t, mcpcli.UserMessage{Content: "bye"}, last)
	})

	t.Run("messages returns a copy", func(t *testing.T) {
		t.Parallel()
		var h mcpcli.History
		h.Append(mcpcli.UserMessage{Content: "original"})

		msgs := h.Messages()
		msgs[0] = mcpcli.UserMessage{Content: "replaced"}

		assert.Equal(t, mcpcli.UserMessage{Content: "original"}, h.Messages()[0])
	})
}
