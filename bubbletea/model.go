package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/mcpcli"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for an interactive session.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	dispatch DispatchFunc
	theme    mcpcli.Theme
	styles   Styles
	history  []mcpcli.Message

	blocks      []MessageBlock
	blockFocus  int // index of focused collapsible block (-1 = none)
	allExpanded bool

	// active is the assistant block receiving deltas in the current turn.
	// The assistant turn that follows the deltas finalizes it.
	active    *AssistantTextBlock
	activeIdx int

	running bool
	closed  bool
	cancel  context.CancelFunc
	eventCh chan mcpcli.Event
	doneCh  chan error
	err     error
	ready   bool
}

// Option configures a Model.
type Option func(*Model)

// WithHistory renders msgs as the conversation so far.
func WithHistory(msgs []mcpcli.Message) Option {
	return func(m *Model) { m.history = msgs }
}

// New creates a new TUI Model that sends submitted input to dispatch.
func New(dispatch DispatchFunc, theme mcpcli.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message or /help..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input:      ti,
		dispatch:   dispatch,
		theme:      theme,
		styles:     NewStyles(theme),
		blockFocus: -1,
		activeIdx:  -1,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Running returns whether a turn is in progress.
func (m Model) Running() bool { return m.running }

// Closed returns whether the session has ended.
func (m Model) Closed() bool { return m.closed }

// Err returns the last dispatch error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamEventMsg:
		m = m.processEvent(msg.Event)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.eventCh != nil {
			return m, listenForEvent(m.eventCh, m.doneCh)
		}
		return m, nil

	case DispatchDoneMsg:
		if m.cancel != nil {
			m.cancel()
		}
		m.running = false
		m.cancel = nil
		m.eventCh = nil
		m.doneCh = nil
		m.active = nil
		m.activeIdx = -1
		switch {
		case errors.Is(msg.Err, mcpcli.ErrSessionClosed), errors.Is(msg.Err, context.Canceled):
			// A cancelled turn closes the session too.
			m.closed = true
			return m, tea.Quit
		case msg.Err != nil:
			m.err = msg.Err
		}
		m = m.updateBlockFocus()
		return m, m.Input.Focus()
	}

	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	// Input and status lines plus the newlines between sections.
	vpHeight := msg.Height - 4
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.renderHistory()
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
		m.Viewport.SetContent(m.renderContent())
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		m.closed = true
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil

	case tea.KeyCtrlO:
		if !m.running {
			m.allExpanded = !m.allExpanded
			set := SetCollapsedMsg{Collapsed: !m.allExpanded}
			for i, b := range m.blocks {
				if collapsible(b) {
					m.blocks[i], _ = b.Update(set)
				}
			}
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	if m.running {
		return m, nil
	}
	// Only non-character keys scroll the viewport so typing "j" or "k"
	// stays in the input.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil

	m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles))
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.active = nil
	m.activeIdx = -1

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.eventCh = make(chan mcpcli.Event, 256)
	m.doneCh = make(chan error, 1)
	m.running = true

	m.Input.Blur()

	return m, tea.Batch(
		startDispatch(ctx, m.dispatch, text, m.eventCh, m.doneCh),
		listenForEvent(m.eventCh, m.doneCh),
	)
}

// renderHistory creates blocks for messages recorded before the TUI started.
func (m Model) renderHistory() Model {
	for _, msg := range m.history {
		switch msg := msg.(type) {
		case mcpcli.UserMessage:
			m.blocks = append(m.blocks, NewUserMessageBlock(msg.Content, m.styles))
		case mcpcli.AssistantMessage:
			m.blocks = append(m.blocks, m.assistantBlock(msg))
		case mcpcli.ToolMessage:
			m.blocks = append(m.blocks, NewToolResultBlock(msg, m.styles))
		}
	}
	return m.updateBlockFocus()
}

func (m Model) assistantBlock(msg mcpcli.AssistantMessage) MessageBlock {
	if msg.IsError {
		return NewErrorBlock(msg.Content, m.styles)
	}
	b := NewAssistantTextBlock(m.theme)
	b.Append(msg.Content)
	return b
}

func (m Model) renderContent() string {
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString(blockSeparator(m.blocks[i-1], block))
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// processEvent routes a session event to the appropriate block.
func (m Model) processEvent(evt mcpcli.Event) Model {
	switch e := evt.(type) {
	case mcpcli.EventTextDelta:
		if m.active == nil {
			m.active = NewAssistantTextBlock(m.theme)
			m.activeIdx = len(m.blocks)
			m.blocks = append(m.blocks, m.active)
		}
		m.active.Append(e.Delta)
	case mcpcli.EventNotice:
		m.blocks = append(m.blocks, NewNoticeBlock(e.Text, m.styles))
	case mcpcli.EventTurn:
		m = m.processTurn(e.Message)
	}
	return m.updateBlockFocus()
}

func (m Model) processTurn(msg mcpcli.Message) Model {
	switch msg := msg.(type) {
	case mcpcli.UserMessage:
		// Shown when submitted.
	case mcpcli.ToolMessage:
		// Turns are reported after the turn's deltas, so a tool result
		// belongs before the answer that is already streaming.
		block := NewToolResultBlock(msg, m.styles)
		if m.active == nil {
			m.blocks = append(m.blocks, block)
			break
		}
		m.blocks = slices.Insert(m.blocks, m.activeIdx, MessageBlock(block))
		m.activeIdx++
	case mcpcli.AssistantMessage:
		if m.active != nil && !msg.IsError {
			m.active = nil
			m.activeIdx = -1
			break
		}
		m.blocks = append(m.blocks, m.assistantBlock(msg))
		m.active = nil
		m.activeIdx = -1
	}
	return m
}

// updateBlockFocus focuses the last collapsible block. Only the focused
// block responds to Tab; ShiftTab cycles to earlier ones.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if collapsible(m.blocks[i]) {
			m.blockFocus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves blockFocus to the previous collapsible block, wrapping around.
func (m Model) cycleFocusPrev() Model {
	if len(m.blocks) == 0 {
		return m
	}
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		if collapsible(m.blocks[idx]) {
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

func (m Model) statusLine() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("%s: %v", mcpcli.KindOf(m.err), m.err))
	}
	if m.running {
		return m.styles.Muted.Render("Working... Ctrl+C to cancel")
	}
	return m.styles.Muted.Render("Enter to send, Tab to toggle, Ctrl+C to quit")
}

// startDispatch runs one turn in a goroutine and signals completion.
func startDispatch(ctx context.Context, dispatch DispatchFunc, input string, eventCh chan<- mcpcli.Event, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := dispatch(ctx, input, func(e mcpcli.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		close(eventCh)
		doneCh <- err
		return nil
	}
}

// listenForEvent waits for the next event from the channel.
// When the channel closes, it reads the error from doneCh and returns DispatchDoneMsg.
func listenForEvent(ch <-chan mcpcli.Event, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return DispatchDoneMsg{Err: <-doneCh}
		}
		return StreamEventMsg{Event: evt}
	}
}
