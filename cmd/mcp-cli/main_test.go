package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// ollamaServer answers every generate call with reply.
func ollamaServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-oss:20b","response":"` + reply + `","done":true,"done_reason":"stop"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testEnv(stdin string) (env, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return env{
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
		getenv: func(string) string { return "" },
	}, &stdout, &stderr
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("single-shot prompt", func(t *testing.T) {
		t.Parallel()
		srv := ollamaServer(t, "Hello there")
		e, stdout, _ := testEnv("")
		err := run(context.Background(), []string{
			"-url", srv.URL,
			"-prompt", "hi",
			"-resources", t.TempDir(),
		}, e)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Hello there")
	})

	t.Run("transcript is written", func(t *testing.T) {
		t.Parallel()
		srv := ollamaServer(t, "Hello there")
		path := filepath.Join(t.TempDir(), "out", "transcript.json")
		e, _, _ := testEnv("")
		err := run(context.Background(), []string{
			"-url", srv.URL,
			"-prompt", "hi",
			"-resources", t.TempDir(),
			"-transcript", path,
		}, e)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "ollama", gjson.GetBytes(data, "provider").String())
		assert.Equal(t, "gpt-oss:20b", gjson.GetBytes(data, "model").String())
		assert.Equal(t, int64(2), gjson.GetBytes(data, "messages.#").Int())
		assert.Equal(t, "Hello there", gjson.GetBytes(data, "messages.1.content").String())
	})

	t.Run("tool without a source fails the turn", func(t *testing.T) {
		t.Parallel()
		e, stdout, _ := testEnv("")
		err := run(context.Background(), []string{
			"-tool", "list_algorithms",
			"-resources", t.TempDir(),
		}, e)
		require.ErrorIs(t, err, errTurnFailed)
		assert.Contains(t, stdout.String(), "ToolNotFound")
	})

	t.Run("local tools single-shot", func(t *testing.T) {
		t.Parallel()
		e, stdout, _ := testEnv("")
		err := run(context.Background(), []string{
			"-local-tools",
			"-tool", "say_hello",
			"-args", "name=HKube",
			"-resources", t.TempDir(),
		}, e)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Hello, HKube!")
	})

	t.Run("local tool pairs keep string arguments", func(t *testing.T) {
		t.Parallel()
		e, stdout, _ := testEnv("")
		err := run(context.Background(), []string{
			"-local-tools",
			"-tool", "say_hello",
			"-args", `name="Ada 2024"`,
			"-resources", t.TempDir(),
		}, e)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Hello, Ada 2024!")

		e, stdout, _ = testEnv("")
		err = run(context.Background(), []string{
			"-local-tools",
			"-tool", "say_hello",
			"-args", "name=2024",
			"-resources", t.TempDir(),
		}, e)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Hello, 2024!")
	})

	t.Run("chat reads until quit", func(t *testing.T) {
		t.Parallel()
		srv := ollamaServer(t, "unused")
		e, stdout, _ := testEnv("/help\n/quit\nnever read\n")
		err := run(context.Background(), []string{
			"-url", srv.URL,
			"-chat",
			"-resources", t.TempDir(),
		}, e)
		require.NoError(t, err)
		out := stdout.String()
		assert.Contains(t, out, "Starting interactive chat against: "+srv.URL)
		assert.Contains(t, out, "Type /quit or Ctrl-C to exit.")
		assert.Contains(t, out, "/retry")
		assert.NotContains(t, out, "unused")
	})

	t.Run("no mode is a usage error", func(t *testing.T) {
		t.Parallel()
		e, _, _ := testEnv("")
		err := run(context.Background(), []string{"-resources", t.TempDir()}, e)
		require.ErrorIs(t, err, errUsage)
	})

	t.Run("invalid config fails before the first turn", func(t *testing.T) {
		t.Parallel()
		e, _, _ := testEnv("")
		err := run(context.Background(), []string{"-url", "not a url", "-prompt", "hi"}, e)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Config.URL")
	})
}

func TestRunOnce_GenerationFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	e, stdout, _ := testEnv("")
	err := run(context.Background(), []string{
		"-url", srv.URL,
		"-prompt", "hi",
		"-resources", t.TempDir(),
	}, e)
	require.ErrorIs(t, err, errTurnFailed)
	assert.Contains(t, stdout.String(), "GenerationError")
}

func TestToolInput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/tool add a=1", toolInput(options{tool: "add", args: "a=1"}))
	assert.Equal(t, `/tool add {"a":1}`, toolInput(options{tool: "add", prompt: `{"a":1}`}))
	assert.Equal(t, "/tool list_algorithms", toolInput(options{tool: "list_algorithms"}))
}
