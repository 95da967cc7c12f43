package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/term"
	"github.com/mattn/go-runewidth"
)

var _ MessageBlock = (*ToolResultBlock)(nil)

const maxPreviewLen = 60

// ToolResultBlock renders one tool invocation with a collapsible body.
// Successful results start collapsed; failures are always expanded.
type ToolResultBlock struct {
	msg       mcpcli.ToolMessage
	collapsed bool
	styles    Styles
}

// NewToolResultBlock creates a ToolResultBlock for msg.
func NewToolResultBlock(msg mcpcli.ToolMessage, styles Styles) *ToolResultBlock {
	return &ToolResultBlock{
		msg:       msg,
		collapsed: !msg.IsError,
		styles:    styles,
	}
}

// IsError reports whether the invocation failed.
func (b *ToolResultBlock) IsError() bool { return b.msg.IsError }

// Collapsed reports whether only the header is shown.
func (b *ToolResultBlock) Collapsed() bool { return b.collapsed }

func (b *ToolResultBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if b.msg.IsError {
		return b, nil
	}
	switch msg := msg.(type) {
	case ToggleMsg:
		b.collapsed = !b.collapsed
	case SetCollapsedMsg:
		b.collapsed = msg.Collapsed
	}
	return b, nil
}

func (b *ToolResultBlock) View(width int) string {
	icon := b.styles.Success.Render("✓")
	if b.msg.IsError {
		icon = b.styles.Error.Render("✗")
	}
	arrow := "▼ "
	if b.collapsed {
		arrow = "▶ "
	}
	// Leave room for the arrow, the icon and the block padding.
	header := b.styles.ToolCall.Render(arrow+term.ToolHeader(b.msg, width-6)) + " " + icon

	body := b.msg.Content
	if b.msg.IsError {
		body = b.styles.Error.Render(body)
	}
	content := header
	switch {
	case body == "":
	case b.collapsed:
		content += "\n" + b.styles.Muted.Render(runewidth.Truncate(firstLine(b.msg.Content), maxPreviewLen, "…"))
	default:
		content += "\n" + body
	}
	return b.styles.CodeBg.Width(width).Render(content)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
