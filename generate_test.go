package mcpcli_test

import (
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deltaStream returns a mock stream yielding one delta per fragment and
// then endErr (io.EOF for a clean end).
func deltaStream(endErr error, fragments ...string) (*mock.Stream, *bool) {
	i := 0
	closed := false
	var text string
	s := &mock.Stream{
		NextFn: func() (mcpcli.Event, error) {
			if i >= len(fragments) {
				return nil, endErr
			}
			text += fragments[i]
			i++
			return mcpcli.EventTextDelta{Delta: fragments[i-1]}, nil
		},
		ResponseFn: func() (mcpcli.GenerateResponse, error) {
			return mcpcli.GenerateResponse{Text: text, Done: endErr == io.EOF}, nil
		},
		CloseFn: func() error {
			closed = true
			return nil
		},
	}
	return s, &closed
}

func TestCollect(t *testing.T) {
	t.Parallel()

	t.Run("forwards deltas in order and concatenates", func(t *testing.T) {
		t.Parallel()
		s, closed := deltaStream(io.EOF, "Hel", "lo", "!")

		var got []string
		resp, err := mcpcli.Collect(s, func(e mcpcli.Event) {
			got = append(got, e.(mcpcli.EventTextDelta).Delta)
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"Hel", "lo", "!"}, got)
		assert.Equal(t, "Hello!", resp.Text)
		assert.True(t, resp.Done)
		assert.True(t, *closed)
	})

	t.Run("nil handler", func(t *testing.T) {
		t.Parallel()
		s, _ := deltaStream(io.EOF, "full text")
		resp, err := mcpcli.Collect(s, nil)
		require.NoError(t, err)
		assert.Equal(t, "full text", resp.Text)
	})

	t.Run("stream error returns partial response", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("connection reset")
		s, closed := deltaStream(wantErr, "part")

		resp, err := mcpcli.Collect(s, nil)

		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, "part", resp.Text)
		assert.True(t, *closed)
	})
}

func TestGenerateRequest_Messages(t *testing.T) {
	t.Parallel()

	t.Run("prompt becomes a user message", func(t *testing.T) {
		t.Parallel()
		req := mcpcli.GenerateRequest{Prompt: "hi"}
		assert.Equal(t, []mcpcli.Message{mcpcli.UserMessage{Content: "hi"}}, req.Messages())
	})

	t.Run("history wins over prompt", func(t *testing.T) {
		t.Parallel()
		h := []mcpcli.Message{mcpcli.UserMessage{Content: "a"}, mcpcli.AssistantMessage{Content: "b"}}
		req := mcpcli.GenerateRequest{Prompt: "ignored", History: h}
		assert.Equal(t, h, req.Messages())
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, mcpcli.GenerateRequest{}.Messages())
	})
}

func TestTranscript(t *testing.T) {
	t.Parallel()
	got := mcpcli.Transcript([]mcpcli.Message{
		mcpcli.UserMessage{Content: "list algorithms"},
		mcpcli.ToolMessage{ToolName: "list_algorithms", Content: `["green-alg"]`},
		mcpcli.AssistantMessage{Content: "There is one."},
	})
	want := "User: list algorithms\n\nTool list_algorithms returned: [\"green-alg\"]\n\nAssistant: There is one."
	assert.Equal(t, want, got)
}

func TestTranscript_SkipsFailedAssistantTurns(t *testing.T) {
	t.Parallel()
	got := mcpcli.Transcript([]mcpcli.Message{
		mcpcli.AssistantMessage{Content: "GenerationError: ollama: HTTP 502", IsError: true},
		mcpcli.UserMessage{Content: "hi"},
		mcpcli.AssistantMessage{Content: "GenerationError: ollama: HTTP 502: bad gateway", IsError: true},
		mcpcli.UserMessage{Content: "/tool list_pipelines"},
		mcpcli.ToolMessage{ToolName: "list_pipelines", Content: "RemoteToolError: HTTP 503", IsError: true},
	})
	want := "User: hi\n\nUser: /tool list_pipelines\n\nTool list_pipelines returned: RemoteToolError: HTTP 503"
	assert.Equal(t, want, got)
}
