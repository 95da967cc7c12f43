package gemini_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// mockChunks returns a genai-style streaming iterator from pre-built chunks.
func mockChunks(chunks []*genai.GenerateContentResponse) func(func(*genai.GenerateContentResponse, error) bool) {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func failingChunks(err error, before ...*genai.GenerateContentResponse) func(func(*genai.GenerateContentResponse, error) bool) {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range before {
			if !yield(c, nil) {
				return
			}
		}
		yield(nil, err)
	}
}

func textChunk(text string, reason genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		ModelVersion: "gemini-2.5-flash",
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: reason,
		}},
	}
}

func collectStreamEvents(t *testing.T, s mcpcli.Stream) []mcpcli.Event {
	t.Helper()
	var events []mcpcli.Event
	for {
		evt, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, evt)
	}
	return events
}

func TestStream_TextDelta(t *testing.T) {
	t.Parallel()
	last := textChunk(" world", genai.FinishReasonStop)
	last.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     10,
		CandidatesTokenCount: 5,
	}
	s := gemini.NewStreamFromIter(context.Background(), mockChunks([]*genai.GenerateContentResponse{
		textChunk("Hello", ""),
		last,
	}))
	defer s.Close()

	events := collectStreamEvents(t, s)
	assert.Equal(t, []mcpcli.Event{
		mcpcli.EventTextDelta{Delta: "Hello"},
		mcpcli.EventTextDelta{Delta: " world"},
	}, events)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "Hello world", resp.Text)
	assert.True(t, resp.Done)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Equal(t, mcpcli.StopEndTurn, resp.StopReason)
	assert.Equal(t, mcpcli.Usage{InputTokens: 10, OutputTokens: 5}, resp.Usage)
	assert.Equal(t, mcpcli.StreamStateComplete, s.State())
}

func TestStream_MultiplePartsInOneChunk(t *testing.T) {
	t.Parallel()
	chunk := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "a"},
				{Text: "b"},
			}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
	s := gemini.NewStreamFromIter(context.Background(), mockChunks([]*genai.GenerateContentResponse{chunk}))
	defer s.Close()

	events := collectStreamEvents(t, s)
	assert.Equal(t, []mcpcli.Event{
		mcpcli.EventTextDelta{Delta: "a"},
		mcpcli.EventTextDelta{Delta: "b"},
	}, events, "thought parts are not surfaced")
}

func TestStream_MaxTokens(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), mockChunks([]*genai.GenerateContentResponse{
		textChunk("trunc", genai.FinishReasonMaxTokens),
	}))
	defer s.Close()
	collectStreamEvents(t, s)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, mcpcli.StopLength, resp.StopReason)
}

func TestStream_SafetyBlock(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), mockChunks([]*genai.GenerateContentResponse{
		textChunk("", genai.FinishReasonSafety),
	}))
	defer s.Close()

	_, err := s.Next()
	assert.ErrorIs(t, err, mcpcli.ErrGeneration)
	assert.Equal(t, mcpcli.StreamStateError, s.State())
}

func TestStream_PromptBlocked(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), mockChunks([]*genai.GenerateContentResponse{{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}}))
	defer s.Close()

	_, err := s.Next()
	assert.ErrorIs(t, err, mcpcli.ErrGeneration)
}

func TestStream_IteratorError(t *testing.T) {
	t.Parallel()
	apiErr := errors.New("quota exceeded")
	s := gemini.NewStreamFromIter(context.Background(), failingChunks(apiErr, textChunk("par", "")))
	defer s.Close()

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, mcpcli.EventTextDelta{Delta: "par"}, evt)

	_, err = s.Next()
	assert.ErrorIs(t, err, mcpcli.ErrGeneration)
	assert.ErrorIs(t, err, apiErr)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "par", resp.Text)
	assert.Equal(t, mcpcli.StopError, resp.StopReason)
}

func TestStream_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := gemini.NewStreamFromIter(ctx, failingChunks(context.Canceled))
	defer s.Close()

	_, err := s.Next()
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, mcpcli.ErrGeneration)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, mcpcli.StopAborted, resp.StopReason)
}

func TestStream_ResponseBeforeNext(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), mockChunks(nil))
	defer s.Close()
	_, err := s.Response()
	assert.ErrorIs(t, err, mcpcli.ErrStreamNotReady)
}

func TestStream_CloseBeforeComplete(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), mockChunks([]*genai.GenerateContentResponse{
		textChunk("a", ""),
		textChunk("b", genai.FinishReasonStop),
	}))
	_, err := s.Next()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, mcpcli.StreamStateClosed, s.State())
	_, err = s.Next()
	assert.ErrorIs(t, err, mcpcli.ErrStreamClosed)
}
