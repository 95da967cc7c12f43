// Package session drives one conversation: it owns the history and routes
// each operator input to the tool source or the generation endpoint.
package session

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/tooltext"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the loop's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateDispatching
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ReadResourceTool is the tool name recorded for /resource turns.
const ReadResourceTool = "read_resource"

// Loop is a single-user session. Dispatch may be called from any goroutine
// but never runs concurrently with itself.
type Loop struct {
	id        string
	gen       mcpcli.Generator
	tools     mcpcli.ToolSource
	resources mcpcli.ResourceStore
	model     string
	stream    bool
	autoTools bool
	onEvent   func(mcpcli.Event)
	prompt    io.Writer
	logger    zerolog.Logger

	mu      sync.Mutex
	state   State
	history mcpcli.History
	last    string // last input eligible for /retry
}

// Option configures a [Loop].
type Option func(*Loop)

// WithModel sets the model requested from the generator.
func WithModel(model string) Option {
	return func(l *Loop) { l.model = model }
}

// WithStream makes generation calls stream and forwards text deltas to
// the event handler.
func WithStream(stream bool) Option {
	return func(l *Loop) { l.stream = stream }
}

// WithAutoTools lets the model decide whether a free-text turn needs a tool.
func WithAutoTools(enabled bool) Option {
	return func(l *Loop) { l.autoTools = enabled }
}

// WithResources sets the store behind /resources and /resource.
func WithResources(rs mcpcli.ResourceStore) Option {
	return func(l *Loop) { l.resources = rs }
}

// WithEventHandler sets the default receiver of session events.
func WithEventHandler(h func(mcpcli.Event)) Option {
	return func(l *Loop) { l.onEvent = h }
}

// WithPrompt makes Run write "You: " to w before reading each line.
func WithPrompt(w io.Writer) Option {
	return func(l *Loop) { l.prompt = w }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// New creates a Loop. tools may be nil, in which case every /tool
// directive fails with ErrToolNotFound.
func New(gen mcpcli.Generator, tools mcpcli.ToolSource, opts ...Option) *Loop {
	l := &Loop{
		id:     uuid.NewString(),
		gen:    gen,
		tools:  tools,
		logger: zerolog.Nop(),
	}
	for _, o := range opts {
		o(l)
	}
	l.logger = l.logger.With().Str("session", l.id).Logger()
	return l
}

// ID returns the session's unique identifier.
func (l *Loop) ID() string { return l.id }

// State returns the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// History returns a copy of the conversation so far.
func (l *Loop) History() []mcpcli.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.history.Messages()
}

// Last returns the most recent message in the conversation.
func (l *Loop) Last() (mcpcli.Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.history.Last()
}

// Close moves the loop to StateClosed. Closing a dispatching loop takes
// effect when the dispatch returns.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateClosed
}

// DispatchOption configures a single Dispatch call.
type DispatchOption func(*dispatchConfig)

type dispatchConfig struct {
	onEvent func(mcpcli.Event)
}

// OnEvent replaces the loop's event handler for one dispatch.
func OnEvent(h func(mcpcli.Event)) DispatchOption {
	return func(c *dispatchConfig) { c.onEvent = h }
}

// turn is the state of one dispatch. Messages are collected in pending and
// appended only after every call of the turn has returned.
type turn struct {
	emit    func(mcpcli.Event)
	history []mcpcli.Message
	pending []mcpcli.Message
	exit    bool
}

func (t *turn) add(m mcpcli.Message) {
	t.pending = append(t.pending, m)
}

// conversation is the history a generation call should see.
func (t *turn) conversation() []mcpcli.Message {
	out := make([]mcpcli.Message, 0, len(t.history)+len(t.pending))
	out = append(out, t.history...)
	return append(out, t.pending...)
}

// Dispatch handles one operator input. Tool and generation failures are
// recorded as error turns and Dispatch returns nil. It returns
// ErrSessionClosed after the loop closed, ErrSessionBusy while another
// dispatch runs, and the context error when ctx ends mid-turn; in that
// case nothing is appended and the loop closes.
func (l *Loop) Dispatch(ctx context.Context, input string, opts ...DispatchOption) error {
	cfg := dispatchConfig{onEvent: l.onEvent}
	for _, o := range opts {
		o(&cfg)
	}

	l.mu.Lock()
	switch l.state {
	case StateClosed:
		l.mu.Unlock()
		return mcpcli.ErrSessionClosed
	case StateDispatching:
		l.mu.Unlock()
		return mcpcli.ErrSessionBusy
	}
	l.state = StateDispatching
	t := &turn{emit: cfg.onEvent, history: l.history.Messages()}
	d := Parse(input)
	retry := d.Kind == KindRetry
	if retry && l.last != "" {
		d = Parse(l.last)
	}
	if d.Kind == KindPrompt || d.Kind == KindTool || d.Kind == KindResource {
		l.last = d.Text
	}
	l.mu.Unlock()

	if t.emit == nil {
		t.emit = func(mcpcli.Event) {}
	}
	start := time.Now()
	if d.Kind == KindRetry {
		t.emit(mcpcli.EventNotice{Text: "Nothing to retry."})
	} else {
		l.handle(ctx, t, d)
	}

	l.mu.Lock()
	if err := ctx.Err(); err != nil {
		l.state = StateClosed
		l.mu.Unlock()
		l.logger.Debug().Err(err).Msg("dispatch cancelled, closing session")
		return err
	}
	l.history.Append(t.pending...)
	if t.exit || l.state == StateClosed {
		l.state = StateClosed
	} else {
		l.state = StateIdle
	}
	state := l.state
	l.mu.Unlock()

	l.logger.Debug().
		Bool("retry", retry).
		Int("appended", len(t.pending)).
		Dur("took", time.Since(start)).
		Str("state", state.String()).
		Msg("dispatch done")
	for _, m := range t.pending {
		t.emit(mcpcli.EventTurn{Message: m})
	}
	return nil
}

func (l *Loop) handle(ctx context.Context, t *turn, d Directive) {
	switch d.Kind {
	case KindExit:
		t.exit = true
	case KindHelp:
		t.emit(mcpcli.EventNotice{Text: helpText})
	case KindTools:
		t.emit(mcpcli.EventNotice{Text: l.toolListing()})
	case KindResources:
		t.emit(mcpcli.EventNotice{Text: l.resourceListing()})
	case KindResource:
		t.add(mcpcli.UserMessage{Content: d.Text, Timestamp: time.Now()})
		t.add(l.readResource(d.Name))
	case KindTool:
		t.add(mcpcli.UserMessage{Content: d.Text, Timestamp: time.Now()})
		if d.Err != nil {
			t.add(toolError(d.Name, d.Args, d.Err))
			return
		}
		t.add(l.invoke(ctx, d.Name, Retype(d.Args, d.Raw, l.schema(d.Name))))
	default:
		t.add(mcpcli.UserMessage{Content: d.Text, Timestamp: time.Now()})
		if l.autoTools && l.tools != nil && len(l.tools.Tools()) > 0 {
			l.orchestrate(ctx, t, d.Text)
			return
		}
		t.add(l.generate(ctx, t, t.conversation(), l.stream))
	}
}

// schema returns the parameter schema the tool source declares for name.
func (l *Loop) schema(name string) json.RawMessage {
	if l.tools == nil {
		return nil
	}
	for _, tool := range l.tools.Tools() {
		if tool.Name == name {
			return tool.Parameters
		}
	}
	return nil
}

func (l *Loop) invoke(ctx context.Context, name string, args map[string]any) mcpcli.ToolMessage {
	if l.tools == nil {
		return toolError(name, args, fmt.Errorf("%q: no tool source configured: %w", name, mcpcli.ErrToolNotFound))
	}
	start := time.Now()
	res, err := l.tools.Invoke(ctx, name, args)
	log := l.logger.Debug().Str("tool", name).Dur("took", time.Since(start))
	if err != nil {
		log.Err(err).Msg("tool failed")
		return toolError(name, args, err)
	}
	log.Msg("tool returned")
	return mcpcli.ToolMessage{
		CallID:    uuid.NewString(),
		ToolName:  name,
		Arguments: args,
		Result:    res.Value,
		Content:   tooltext.Clean(res.Text()),
		Timestamp: time.Now(),
	}
}

func (l *Loop) readResource(name string) mcpcli.ToolMessage {
	args := map[string]any{"name": name}
	if l.resources == nil {
		return toolError(ReadResourceTool, args, fmt.Errorf("%q: %w", name, mcpcli.ErrResourceNotFound))
	}
	doc, err := l.resources.Read(name)
	if err != nil {
		return toolError(ReadResourceTool, args, err)
	}
	return mcpcli.ToolMessage{
		CallID:    uuid.NewString(),
		ToolName:  ReadResourceTool,
		Arguments: args,
		Result:    doc,
		Content:   doc,
		Timestamp: time.Now(),
	}
}

// generate runs one generation over msgs. Deltas are forwarded only when
// stream is set, so non-streamed replies render once, as a turn.
func (l *Loop) generate(ctx context.Context, t *turn, msgs []mcpcli.Message, stream bool) mcpcli.AssistantMessage {
	resp, err := l.complete(ctx, mcpcli.GenerateRequest{
		Model:   l.model,
		History: msgs,
		Stream:  stream,
	}, t)
	if err != nil {
		return generationError(l.model, err)
	}
	return mcpcli.AssistantMessage{
		Content:    resp.Text,
		Model:      resp.Model,
		StopReason: resp.StopReason,
		Usage:      resp.Usage,
		Timestamp:  time.Now(),
	}
}

func (l *Loop) complete(ctx context.Context, req mcpcli.GenerateRequest, t *turn) (mcpcli.GenerateResponse, error) {
	s, err := l.gen.Generate(ctx, req)
	if err != nil {
		return mcpcli.GenerateResponse{}, err
	}
	var onEvent func(mcpcli.Event)
	if req.Stream && t != nil {
		onEvent = t.emit
	}
	return mcpcli.Collect(s, onEvent)
}

func (l *Loop) toolListing() string {
	if l.tools == nil {
		return "No tools available."
	}
	tools := l.tools.Tools()
	if len(tools) == 0 {
		return "No tools available."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tools (%s):", l.tools.Mode())
	for _, tool := range tools {
		b.WriteString("\n  ")
		b.WriteString(tool.Name)
		if tool.Description != "" {
			b.WriteString(": ")
			b.WriteString(tool.Description)
		}
	}
	return b.String()
}

func (l *Loop) resourceListing() string {
	if l.resources == nil {
		return "No resources available."
	}
	names := l.resources.List()
	if len(names) == 0 {
		return "No resources available."
	}
	sort.Strings(names)
	return "Resources:\n  " + strings.Join(names, "\n  ")
}

func toolError(name string, args map[string]any, err error) mcpcli.ToolMessage {
	return mcpcli.ToolMessage{
		CallID:    uuid.NewString(),
		ToolName:  name,
		Arguments: args,
		Content:   ErrorText(err),
		IsError:   true,
		Timestamp: time.Now(),
	}
}

func generationError(model string, err error) mcpcli.AssistantMessage {
	return mcpcli.AssistantMessage{
		Content:    ErrorText(err),
		Model:      model,
		StopReason: mcpcli.StopError,
		IsError:    true,
		Timestamp:  time.Now(),
	}
}

// ErrorText renders err as "<Kind>: <message>".
func ErrorText(err error) string {
	return mcpcli.KindOf(err) + ": " + err.Error()
}

// RunOnce dispatches input and closes the loop.
func (l *Loop) RunOnce(ctx context.Context, input string, opts ...DispatchOption) error {
	defer l.Close()
	return l.Dispatch(ctx, input, opts...)
}

// Run reads operator input line by line from in until end of input, an
// exit directive or ctx ending. Blank lines are skipped. End of input
// closes the loop and returns nil.
func (l *Loop) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		if l.State() == StateClosed {
			return nil
		}
		if l.prompt != nil {
			fmt.Fprint(l.prompt, "You: ")
		}
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			l.Close()
			select {
			case err := <-readErr:
				return err
			default:
				return nil
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		err := l.Dispatch(ctx, line)
		if errors.Is(err, mcpcli.ErrSessionClosed) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
