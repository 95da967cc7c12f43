package markdown

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/mcpcli"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Renderer holds the styles derived from a theme.
type Renderer struct {
	parser    parser.Parser
	bold      lipgloss.Style
	italic    lipgloss.Style
	heading   lipgloss.Style
	muted     lipgloss.Style
	code      lipgloss.Style
	underline lipgloss.Style
}

// NewRenderer creates a Renderer for theme.
func NewRenderer(theme mcpcli.Theme) *Renderer {
	return &Renderer{
		parser:    goldmark.DefaultParser(),
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		heading:   lipgloss.NewStyle().Foreground(Color(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(Color(theme.Muted)).Faint(true),
		code:      lipgloss.NewStyle().Foreground(Color(theme.Accent)).Background(Color(theme.CodeBg)),
		underline: lipgloss.NewStyle().Underline(true),
	}
}

// Color maps an ANSI palette index to a lipgloss color. Negative indexes
// mean the terminal default.
func Color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// Render renders source at width.
func (r *Renderer) Render(source string, width int) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	src := []byte(source)
	doc := r.parser.Parse(text.NewReader(src))
	var buf bytes.Buffer
	r.blocks(doc, src, width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (r *Renderer) blocks(parent ast.Node, src []byte, width int, buf *bytes.Buffer) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.block(n, src, width, buf)
		if n.NextSibling() != nil && n.Kind() != ast.KindHTMLBlock {
			buf.WriteByte('\n')
		}
	}
}

func (r *Renderer) block(node ast.Node, src []byte, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		buf.WriteString(wrap(r.inline(n, src), width))
		buf.WriteByte('\n')
	case *ast.Heading:
		buf.WriteString(wrap(r.heading.Render(r.inline(n, src)), width))
		buf.WriteByte('\n')
	case *ast.FencedCodeBlock:
		if lang := n.Language(src); len(lang) > 0 {
			buf.WriteString(r.muted.Render(string(lang)))
			buf.WriteByte('\n')
		}
		r.codeLines(n, src, buf)
	case *ast.CodeBlock:
		r.codeLines(n, src, buf)
	case *ast.Blockquote:
		var inner bytes.Buffer
		r.blocks(n, src, width-2, &inner)
		bar := r.muted.Render("▌") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString(bar + line + "\n")
		}
	case *ast.List:
		r.list(n, src, width, buf, 0)
	case *ast.ThematicBreak:
		buf.WriteString(r.muted.Render(strings.Repeat("─", min(width, 40))))
		buf.WriteByte('\n')
	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
	default:
		r.blocks(n, src, width, buf)
	}
}

// codeLines writes the raw lines of a code block behind a gutter.
func (r *Renderer) codeLines(n ast.Node, src []byte, buf *bytes.Buffer) {
	gutter := r.muted.Render("│") + " "
	lines := n.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		buf.WriteString(gutter)
		buf.WriteString(strings.TrimRight(string(seg.Value(src)), "\n"))
		buf.WriteByte('\n')
	}
}

func (r *Renderer) list(l *ast.List, src []byte, width int, buf *bytes.Buffer, depth int) {
	indent := strings.Repeat("  ", depth)
	num := l.Start
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if l.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		var content bytes.Buffer
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				content.WriteString(r.inline(in, src))
			case *ast.List:
				if content.Len() > 0 {
					writeItem(buf, indent+marker, content.String(), width)
					content.Reset()
				}
				r.list(in, src, width, buf, depth+1)
				marker = strings.Repeat(" ", len(marker))
			default:
				r.block(ic, src, width, &content)
			}
		}
		if content.Len() > 0 {
			writeItem(buf, indent+marker, content.String(), width)
		}
	}
}

// writeItem wraps content so continuation lines align under the text
// rather than the marker.
func writeItem(buf *bytes.Buffer, prefix, content string, width int) {
	lines := strings.Split(wrap(content, max(width-len(prefix), 10)), "\n")
	pad := strings.Repeat(" ", len(prefix))
	for i, line := range lines {
		if i == 0 {
			buf.WriteString(prefix)
		} else {
			buf.WriteString(pad)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

func (r *Renderer) inline(parent ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		r.span(c, src, &buf)
	}
	return buf.String()
}

func (r *Renderer) span(node ast.Node, src []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(src))
		switch {
		case n.HardLineBreak():
			buf.WriteByte('\n')
		case n.SoftLineBreak():
			buf.WriteByte(' ')
		}
	case *ast.String:
		buf.Write(n.Value)
	case *ast.Emphasis:
		inner := r.inline(n, src)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
		} else {
			buf.WriteString(r.bold.Render(inner))
		}
	case *ast.CodeSpan:
		buf.WriteString(r.code.Render(r.inline(n, src)))
	case *ast.Link:
		buf.WriteString(r.underline.Render(r.inline(n, src)))
		buf.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))
	case *ast.Image:
		buf.WriteString(r.underline.Render(r.inline(n, src)))
		buf.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))
	case *ast.AutoLink:
		buf.WriteString(r.underline.Render(string(n.URL(src))))
	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(src))
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.span(c, src, buf)
		}
	}
}
