package ollama_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string, check func(r *http.Request, req map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(raw, &req)
		if check != nil {
			check(r, req)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func generate(t *testing.T, srv *httptest.Server, req mcpcli.GenerateRequest) (mcpcli.GenerateResponse, []string, error) {
	t.Helper()
	c := ollama.New(srv.URL)
	s, err := c.Generate(context.Background(), req)
	if err != nil {
		return mcpcli.GenerateResponse{}, nil, err
	}
	var deltas []string
	resp, err := mcpcli.Collect(s, func(e mcpcli.Event) {
		deltas = append(deltas, e.(mcpcli.EventTextDelta).Delta)
	})
	return resp, deltas, err
}

func TestClient_RequestFormat(t *testing.T) {
	t.Parallel()

	srv := serve(t, http.StatusOK, `{"model":"gpt-oss:20b","response":"hi","done":true}`, func(r *http.Request, req map[string]any) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, map[string]any{"model": "gpt-oss:20b", "prompt": "Hello", "stream": false}, req)
	})

	_, _, err := generate(t, srv, mcpcli.GenerateRequest{Model: "gpt-oss:20b", Prompt: "Hello"})
	require.NoError(t, err)
}

func TestClient_SingleShot(t *testing.T) {
	t.Parallel()

	srv := serve(t, http.StatusOK,
		`{"model":"gpt-oss:20b","response":"The answer is 42.","done":true,"done_reason":"stop","prompt_eval_count":7,"eval_count":5}`, nil)

	resp, deltas, err := generate(t, srv, mcpcli.GenerateRequest{Model: "gpt-oss:20b", Prompt: "q"})
	require.NoError(t, err)

	assert.Equal(t, []string{"The answer is 42."}, deltas, "one fragment carries the full text")
	assert.Equal(t, "The answer is 42.", resp.Text)
	assert.True(t, resp.Done)
	assert.Equal(t, "gpt-oss:20b", resp.Model)
	assert.Equal(t, mcpcli.StopEndTurn, resp.StopReason)
	assert.Equal(t, mcpcli.Usage{InputTokens: 7, OutputTokens: 5}, resp.Usage)
}

func TestClient_SingleShotWithoutDoneFlag(t *testing.T) {
	t.Parallel()

	srv := serve(t, http.StatusOK, `{"response":"plain"}`, nil)
	resp, _, err := generate(t, srv, mcpcli.GenerateRequest{Model: "m", Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "plain", resp.Text)
	assert.True(t, resp.Done)
}

func TestClient_Streaming(t *testing.T) {
	t.Parallel()

	ndjson := strings.Join([]string{
		`{"model":"m","response":"Hel","done":false}`,
		`{"model":"m","response":"","done":false}`,
		`{"model":"m","response":"lo","done":false}`,
		`{"model":"m","response":"!","done":false}`,
		`{"model":"m","response":"","done":true,"done_reason":"length","eval_count":3}`,
	}, "\n")
	srv := serve(t, http.StatusOK, ndjson, func(_ *http.Request, req map[string]any) {
		assert.Equal(t, true, req["stream"])
	})

	resp, deltas, err := generate(t, srv, mcpcli.GenerateRequest{Model: "m", Prompt: "q", Stream: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "lo", "!"}, deltas)
	assert.Equal(t, "Hello!", resp.Text)
	assert.Equal(t, strings.Join(deltas, ""), resp.Text)
	assert.Equal(t, mcpcli.StopLength, resp.StopReason)
	assert.Equal(t, 3, resp.Usage.OutputTokens)
}

func TestClient_StreamedMatchesSingleShot(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		assert.Equal(t, "gpt-4o", req["model"])
		assert.Equal(t, "say hello", req["prompt"])
		if req["stream"] == true {
			_, _ = io.WriteString(w, `{"model":"gpt-4o","response":"Hel","done":false}`+"\n"+
				`{"model":"gpt-4o","response":"lo","done":false}`+"\n"+
				`{"model":"gpt-4o","response":"","done":true,"done_reason":"stop"}`+"\n")
			return
		}
		_, _ = io.WriteString(w, `{"model":"gpt-4o","response":"Hello","done":true,"done_reason":"stop"}`)
	}))
	t.Cleanup(srv.Close)

	single, singleDeltas, err := generate(t, srv, mcpcli.GenerateRequest{Model: "gpt-4o", Prompt: "say hello"})
	require.NoError(t, err)
	streamed, streamedDeltas, err := generate(t, srv, mcpcli.GenerateRequest{Model: "gpt-4o", Prompt: "say hello", Stream: true})
	require.NoError(t, err)

	assert.Equal(t, "Hello", single.Text)
	assert.Equal(t, single.Text, streamed.Text)
	assert.Equal(t, []string{"Hello"}, singleDeltas)
	assert.Equal(t, []string{"Hel", "lo"}, streamedDeltas)
	assert.Equal(t, single.Text, strings.Join(streamedDeltas, ""))
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	t.Run("non-success status", func(t *testing.T) {
		t.Parallel()
		srv := serve(t, http.StatusNotFound, `{"error":"model 'nope' not found"}`, nil)
		_, _, err := generate(t, srv, mcpcli.GenerateRequest{Model: "nope", Prompt: "q"})
		require.ErrorIs(t, err, mcpcli.ErrGeneration)
		assert.Contains(t, err.Error(), "model 'nope' not found")
	})

	t.Run("plain text error body", func(t *testing.T) {
		t.Parallel()
		srv := serve(t, http.StatusBadGateway, "upstream down", nil)
		_, _, err := generate(t, srv, mcpcli.GenerateRequest{Model: "m", Prompt: "q"})
		require.ErrorIs(t, err, mcpcli.ErrGeneration)
		assert.Contains(t, err.Error(), "upstream down")
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		srv := serve(t, http.StatusOK, `<html>oops</html>`, nil)
		_, _, err := generate(t, srv, mcpcli.GenerateRequest{Model: "m", Prompt: "q"})
		assert.ErrorIs(t, err, mcpcli.ErrGeneration)
	})

	t.Run("in-band error object", func(t *testing.T) {
		t.Parallel()
		srv := serve(t, http.StatusOK, `{"response":"par","done":false}`+"\n"+`{"error":"out of memory"}`, nil)
		resp, _, err := generate(t, srv, mcpcli.GenerateRequest{Model: "m", Prompt: "q", Stream: true})
		require.ErrorIs(t, err, mcpcli.ErrGeneration)
		assert.Contains(t, err.Error(), "out of memory")
		assert.Equal(t, "par", resp.Text, "partial text is kept")
		assert.Equal(t, mcpcli.StopError, resp.StopReason)
	})

	t.Run("stream ends before done", func(t *testing.T) {
		t.Parallel()
		srv := serve(t, http.StatusOK, `{"response":"a","done":false}`, nil)
		_, _, err := generate(t, srv, mcpcli.GenerateRequest{Model: "m", Prompt: "q", Stream: true})
		assert.ErrorIs(t, err, mcpcli.ErrGeneration)
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		_, _, err := generate(t, srv, mcpcli.GenerateRequest{Model: "m", Prompt: "q"})
		assert.ErrorIs(t, err, mcpcli.ErrGeneration)
	})

	t.Run("invalid request", func(t *testing.T) {
		t.Parallel()
		c := ollama.New("http://localhost:1")
		_, err := c.Generate(context.Background(), mcpcli.GenerateRequest{Prompt: "q"})
		assert.ErrorIs(t, err, mcpcli.ErrValidation)
	})
}

func TestStream_StateTransitions(t *testing.T) {
	t.Parallel()

	srv := serve(t, http.StatusOK, `{"response":"a","done":false}`+"\n"+`{"response":"b","done":true}`, nil)
	c := ollama.New(srv.URL)
	s, err := c.Generate(context.Background(), mcpcli.GenerateRequest{Model: "m", Prompt: "q", Stream: true})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, mcpcli.StreamStateNew, s.State())
	_, err = s.Response()
	assert.ErrorIs(t, err, mcpcli.ErrStreamNotReady)

	_, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, mcpcli.StreamStateStreaming, s.State())

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, mcpcli.EventTextDelta{Delta: "b"}, evt)
	assert.Equal(t, mcpcli.StreamStateComplete, s.State())

	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF, "completed stream cannot be restarted")
}

func TestStream_CloseBeforeComplete(t *testing.T) {
	t.Parallel()

	srv := serve(t, http.StatusOK, `{"response":"a","done":false}`+"\n"+`{"response":"b","done":true}`, nil)
	c := ollama.New(srv.URL)
	s, err := c.Generate(context.Background(), mcpcli.GenerateRequest{Model: "m", Prompt: "q", Stream: true})
	require.NoError(t, err)

	_, err = s.Next()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, mcpcli.StreamStateClosed, s.State())
	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, mcpcli.StopAborted, resp.StopReason)
	_, err = s.Next()
	assert.ErrorIs(t, err, mcpcli.ErrStreamClosed)
}

func TestConvertPrompt(t *testing.T) {
	t.Parallel()

	t.Run("single user message is sent verbatim", func(t *testing.T) {
		t.Parallel()
		got := ollama.ConvertPrompt([]mcpcli.Message{mcpcli.UserMessage{Content: "list pipelines"}})
		assert.Equal(t, "list pipelines", got)
	})

	t.Run("conversation becomes a transcript", func(t *testing.T) {
		t.Parallel()
		got := ollama.ConvertPrompt([]mcpcli.Message{
			mcpcli.UserMessage{Content: "hi"},
			mcpcli.AssistantMessage{Content: "hello"},
			mcpcli.UserMessage{Content: "how are you?"},
		})
		assert.Equal(t, "User: hi\n\nAssistant: hello\n\nUser: how are you?\n\nAssistant:", got)
	})

	t.Run("failed assistant turns are not replayed", func(t *testing.T) {
		t.Parallel()
		got := ollama.ConvertPrompt([]mcpcli.Message{
			mcpcli.UserMessage{Content: "hi"},
			mcpcli.AssistantMessage{Content: "GenerationError: ollama: HTTP 502: bad gateway: generation error", IsError: true},
			mcpcli.UserMessage{Content: "hi again"},
		})
		assert.Equal(t, "User: hi\n\nUser: hi again\n\nAssistant:", got)
	})
}
