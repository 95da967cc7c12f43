package bubbletea

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/markdown"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	UserMsg  lipgloss.Style
	ToolCall lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	CodeBg   lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t mcpcli.Theme) Styles {
	return Styles{
		UserMsg:  lipgloss.NewStyle().Foreground(markdown.Color(t.UserMsg)).Bold(true),
		ToolCall: lipgloss.NewStyle().Foreground(markdown.Color(t.ToolCall)),
		Error:    lipgloss.NewStyle().Foreground(markdown.Color(t.Error)),
		Success:  lipgloss.NewStyle().Foreground(markdown.Color(t.Success)),
		Muted:    lipgloss.NewStyle().Foreground(markdown.Color(t.Muted)).Faint(true),
		Accent:   lipgloss.NewStyle().Foreground(markdown.Color(t.Accent)).Bold(true),
		CodeBg:   lipgloss.NewStyle().Background(markdown.Color(t.CodeBg)).PaddingLeft(1),
	}
}
