package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/markdown"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock renders assistant text as markdown. Text may arrive as
// a stream of deltas; paragraphs that can no longer change are rendered
// once per width and cached, so only the tail is re-rendered per delta.
type AssistantTextBlock struct {
	content  strings.Builder
	renderer *markdown.Renderer

	// stable is the prefix ending at the last paragraph break outside a
	// code fence.
	stable  string
	byWidth map[int]string
}

// NewAssistantTextBlock creates an empty block.
func NewAssistantTextBlock(theme mcpcli.Theme) *AssistantTextBlock {
	return &AssistantTextBlock{
		renderer: markdown.NewRenderer(theme),
		byWidth:  make(map[int]string),
	}
}

// Append adds streamed text.
func (b *AssistantTextBlock) Append(text string) {
	b.content.WriteString(text)
	b.advance()
}

// Text returns everything appended so far.
func (b *AssistantTextBlock) Text() string { return b.content.String() }

func (b *AssistantTextBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AssistantTextBlock) View(width int) string {
	head := b.renderStable(width)
	tail := b.tail()
	if hasUnclosedFence(tail) {
		tail += "\n```"
	}
	if strings.TrimSpace(tail) == "" {
		return head
	}
	rendered := b.renderer.Render(tail, width)
	if strings.TrimSpace(rendered) == "" {
		return head
	}
	if head == "" {
		return rendered
	}
	return strings.TrimRight(head, "\n") + "\n\n" + strings.TrimLeft(rendered, "\n")
}

// advance moves the stable prefix to the last "\n\n" that is not inside an
// open code fence.
func (b *AssistantTextBlock) advance() {
	raw := b.content.String()
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		if prefix := raw[:idx]; !hasUnclosedFence(prefix) {
			if prefix != b.stable {
				b.stable = prefix
				clear(b.byWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantTextBlock) renderStable(width int) string {
	if width <= 0 || b.stable == "" {
		return ""
	}
	if cached, ok := b.byWidth[width]; ok {
		return cached
	}
	out := b.renderer.Render(b.stable, width)
	b.byWidth[width] = out
	return out
}

func (b *AssistantTextBlock) tail() string {
	raw := b.content.String()
	if b.stable == "" {
		return raw
	}
	return strings.TrimPrefix(raw, b.stable+"\n\n")
}

// hasUnclosedFence counts "```" occurrences; inline spans containing a
// literal triple backtick are miscounted.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
