package tooltext

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxLines = 2000
	DefaultMaxBytes = 50 * 1024
)

// Result describes the outcome of head truncation.
type Result struct {
	Content     string
	Truncated   bool
	TruncatedBy string // "lines" or "bytes"
	TotalLines  int
	TotalBytes  int
	OutputLines int
	OutputBytes int
	// FirstLinePartial is set when even the first line exceeded maxBytes
	// and was cut.
	FirstLinePartial bool
}

// TruncateHead keeps the first maxLines lines or maxBytes bytes of s,
// whichever limit is hit first, cutting only at line ends. A first line
// longer than maxBytes is cut at the last rune boundary that fits.
func TruncateHead(s string, maxLines, maxBytes int) Result {
	if s == "" {
		return Result{}
	}
	lines := splitLines(s)
	total := Result{TotalLines: len(lines), TotalBytes: len(s)}
	if len(lines) <= maxLines && len(s) <= maxBytes {
		total.Content = s
		total.OutputLines = len(lines)
		total.OutputBytes = len(s)
		return total
	}

	r := total
	r.Truncated = true
	r.TruncatedBy = "lines"
	size := 0
	kept := 0
	for kept < len(lines) && kept < maxLines {
		n := len(lines[kept])
		if kept > 0 {
			n++ // separator
		}
		if size+n > maxBytes {
			r.TruncatedBy = "bytes"
			break
		}
		size += n
		kept++
	}

	if kept == 0 {
		head := lines[0]
		cut := min(maxBytes, len(head))
		for cut > 0 && !utf8.RuneStart(head[cut]) {
			cut--
		}
		r.Content = head[:cut]
		r.OutputLines = 1
		r.OutputBytes = cut
		r.FirstLinePartial = true
		return r
	}

	r.Content = strings.Join(lines[:kept], "\n")
	r.OutputLines = kept
	r.OutputBytes = len(r.Content)
	return r
}

// splitLines splits s into lines. A trailing newline does not produce an
// empty final element.
func splitLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
