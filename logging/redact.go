package logging

import (
	"io"
	"regexp"
)

const redacted = "[REDACTED]"

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Redactor masks credentials in log output.
type Redactor struct {
	rules []rule
}

// NewRedactor returns a Redactor covering provider API keys, bearer
// tokens and key=value style secrets. Keys stay visible, values do not.
func NewRedactor() *Redactor {
	return &Redactor{
		rules: []rule{
			{regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`), redacted},
			{regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`), redacted},
			{regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`), redacted},
			{regexp.MustCompile(`Bearer\s+[A-Za-z0-9._~+/=-]+`), "Bearer " + redacted},
			{
				regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password)(["\s:=]+)[^\s",}\[]+`),
				"${1}${2}" + redacted,
			},
		},
	}
}

// AddPattern registers an extra expression whose matches are replaced
// entirely.
func (r *Redactor) AddPattern(expr string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return err
	}
	r.rules = append(r.rules, rule{re, redacted})
	return nil
}

// Redact returns s with every match replaced.
func (r *Redactor) Redact(s string) string {
	for _, rl := range r.rules {
		s = rl.re.ReplaceAllString(s, rl.repl)
	}
	return s
}

// Wrap returns a writer that redacts each write before passing it to w.
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{w: w, r: r}
}

type redactingWriter struct {
	w io.Writer
	r *Redactor
}

// Write reports len(p) on success so callers never see a short write when
// the redacted text is shorter than the input.
func (rw *redactingWriter) Write(p []byte) (int, error) {
	if _, err := rw.w.Write([]byte(rw.r.Redact(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
