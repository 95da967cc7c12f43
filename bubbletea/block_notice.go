package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*NoticeBlock)(nil)

// NoticeBlock renders informational output such as help text or tool
// listings. It starts expanded; collapsed it shows only its first line.
type NoticeBlock struct {
	text      string
	collapsed bool
	styles    Styles
}

// NewNoticeBlock creates an expanded NoticeBlock.
func NewNoticeBlock(text string, styles Styles) *NoticeBlock {
	return &NoticeBlock{text: text, styles: styles}
}

func (b *NoticeBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	switch msg := msg.(type) {
	case ToggleMsg:
		b.collapsed = !b.collapsed
	case SetCollapsedMsg:
		b.collapsed = msg.Collapsed
	}
	return b, nil
}

func (b *NoticeBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	if b.collapsed {
		line := firstLine(b.text)
		if line != b.text {
			line += " …"
		}
		return b.styles.Muted.Render(wrap.Render(line))
	}
	return b.styles.Muted.Render(wrap.Render(b.text))
}
