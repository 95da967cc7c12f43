// Package term renders session events as plain scrolling terminal output
// for the line-mode REPL.
package term

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/markdown"
	"github.com/mattn/go-runewidth"
)

// Printer writes session events to an io.Writer. Streamed text is written
// as it arrives; the turn that completes it only ends the line.
type Printer struct {
	w        io.Writer
	width    int
	markdown *markdown.Renderer

	tool   lipgloss.Style
	err    lipgloss.Style
	muted  lipgloss.Style
	accent lipgloss.Style

	mu       sync.Mutex
	streamed bool
}

// Option configures a [Printer].
type Option func(*Printer)

// WithWidth sets the wrap width. Non-positive values use the markdown
// default.
func WithWidth(width int) Option {
	return func(p *Printer) { p.width = width }
}

// New creates a Printer writing to w.
func New(w io.Writer, theme mcpcli.Theme, opts ...Option) *Printer {
	p := &Printer{
		w:        w,
		width:    markdown.DefaultWidth,
		markdown: markdown.NewRenderer(theme),
		tool:     lipgloss.NewStyle().Foreground(markdown.Color(theme.ToolCall)),
		err:      lipgloss.NewStyle().Foreground(markdown.Color(theme.Error)),
		muted:    lipgloss.NewStyle().Foreground(markdown.Color(theme.Muted)).Faint(true),
		accent:   lipgloss.NewStyle().Foreground(markdown.Color(theme.Accent)).Bold(true),
	}
	for _, o := range opts {
		o(p)
	}
	if p.width <= 0 {
		p.width = markdown.DefaultWidth
	}
	return p
}

// Handle renders one event. It has the signature session handlers expect.
func (p *Printer) Handle(e mcpcli.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch e := e.(type) {
	case mcpcli.EventTextDelta:
		if !p.streamed {
			fmt.Fprint(p.w, p.accent.Render("Assistant:")+" ")
		}
		p.streamed = true
		fmt.Fprint(p.w, e.Delta)
	case mcpcli.EventNotice:
		p.endStream()
		fmt.Fprintln(p.w, p.muted.Render(e.Text))
	case mcpcli.EventTurn:
		p.turn(e.Message)
	}
}

func (p *Printer) turn(m mcpcli.Message) {
	switch m := m.(type) {
	case mcpcli.UserMessage:
		// The operator already sees what they typed.
	case mcpcli.AssistantMessage:
		streamed := p.streamed
		p.endStream()
		switch {
		case m.IsError:
			fmt.Fprintln(p.w, p.err.Render(m.Content))
		case !streamed:
			fmt.Fprintln(p.w, p.accent.Render("Assistant:"))
			fmt.Fprintln(p.w, p.markdown.Render(m.Content, p.width))
		}
	case mcpcli.ToolMessage:
		p.endStream()
		fmt.Fprintln(p.w, p.tool.Render(ToolHeader(m, p.width)))
		if m.IsError {
			fmt.Fprintln(p.w, p.err.Render(m.Content))
			return
		}
		fmt.Fprintln(p.w, m.Content)
	}
}

// endStream terminates a streamed line.
func (p *Printer) endStream() {
	if p.streamed {
		fmt.Fprintln(p.w)
		p.streamed = false
	}
}

// ToolHeader renders "⚙ name {args}" truncated to width display cells.
func ToolHeader(m mcpcli.ToolMessage, width int) string {
	header := "⚙ " + m.ToolName
	if len(m.Arguments) > 0 {
		if b, err := json.Marshal(m.Arguments); err == nil {
			header += " " + string(b)
		}
	}
	if width > 0 && runewidth.StringWidth(header) > width {
		header = runewidth.Truncate(header, width, "…")
	}
	return header
}
