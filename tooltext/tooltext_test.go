package tooltext_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/mcpcli/tooltext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"color codes", "\x1b[31mhello\x1b[0m", "hello"},
		{"bold and underline", "\x1b[1mbold\x1b[22m", "bold"},
		{"tabs and newlines", "a\tb\nc", "a\tb\nc"},
		{"control characters", "a\x01b\x02c\x07", "abc"},
		{"delete character", "a\x7fb", "ab"},
		{"CRLF", "a\r\nb\r\n", "a\nb\n"},
		{"lone CR overwrites", "progress 50%\rprogress done", "progress done"},
		{"several CRs", "10%\r50%\rdone", "done"},
		{"shorter segment keeps tail", "abcdef\rxy", "xycdef"},
		{"CR on one line only", "a\rb\nkeep", "b\nkeep"},
		{"empty", "", ""},
		{"unicode", "héllo 世界", "héllo 世界"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tooltext.Sanitize(tt.in))
		})
	}
}

func TestTruncateHead(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		r := tooltext.TruncateHead("", 10, 100)
		assert.False(t, r.Truncated)
		assert.Empty(t, r.Content)
	})

	t.Run("within limits", func(t *testing.T) {
		t.Parallel()
		r := tooltext.TruncateHead("a\nb\nc\n", 10, 100)
		assert.False(t, r.Truncated)
		assert.Equal(t, "a\nb\nc\n", r.Content)
		assert.Equal(t, 3, r.TotalLines)
		assert.Equal(t, 3, r.OutputLines)
	})

	t.Run("line limit keeps the head", func(t *testing.T) {
		t.Parallel()
		r := tooltext.TruncateHead("1\n2\n3\n4\n5", 2, 100)
		require.True(t, r.Truncated)
		assert.Equal(t, "lines", r.TruncatedBy)
		assert.Equal(t, "1\n2", r.Content)
		assert.Equal(t, 5, r.TotalLines)
		assert.Equal(t, 2, r.OutputLines)
	})

	t.Run("byte limit cuts at a line end", func(t *testing.T) {
		t.Parallel()
		r := tooltext.TruncateHead("aaaa\nbbbb\ncccc", 100, 10)
		require.True(t, r.Truncated)
		assert.Equal(t, "bytes", r.TruncatedBy)
		assert.Equal(t, "aaaa\nbbbb", r.Content)
		assert.Equal(t, 9, r.OutputBytes)
	})

	t.Run("oversized first line is cut at a rune boundary", func(t *testing.T) {
		t.Parallel()
		r := tooltext.TruncateHead("ab世界", 100, 4)
		require.True(t, r.Truncated)
		assert.True(t, r.FirstLinePartial)
		assert.Equal(t, "ab", r.Content)
	})
}

func TestClean(t *testing.T) {
	t.Parallel()

	t.Run("short output passes through sanitized", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "ok", tooltext.Clean("\x1b[1mok\x1b[0m"))
	})

	t.Run("long output gets a marker", func(t *testing.T) {
		t.Parallel()
		in := strings.Repeat("line\n", tooltext.DefaultMaxLines+10)
		out := tooltext.Clean(in)
		lines := strings.Split(out, "\n")
		require.Len(t, lines, tooltext.DefaultMaxLines+1)
		assert.Contains(t, lines[len(lines)-1], "[output truncated by lines: showing 2000 of 2010 lines")
	})
}
