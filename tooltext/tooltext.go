// Package tooltext prepares tool output for the terminal and for prompts:
// escape sequences and control bytes are removed and oversized results are
// cut to a bounded head.
package tooltext

import "fmt"

// Clean sanitizes s and truncates it to the default limits. A truncated
// result ends with a marker line naming what was dropped.
func Clean(s string) string {
	r := TruncateHead(Sanitize(s), DefaultMaxLines, DefaultMaxBytes)
	if !r.Truncated {
		return r.Content
	}
	return r.Content + fmt.Sprintf("\n[output truncated by %s: showing %d of %d lines, %d of %d bytes]",
		r.TruncatedBy, r.OutputLines, r.TotalLines, r.OutputBytes, r.TotalBytes)
}
