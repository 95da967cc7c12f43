package mcpcli

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Generator is a strategy pattern interface for text-generation endpoints.
// Generate returns a stream even for non-streamed requests; those yield a
// single delta carrying the full text.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (Stream, error)
}

// GenerateRequest carries one generation call. When History is non-empty it
// takes precedence over Prompt.
type GenerateRequest struct {
	Model   string
	Prompt  string
	History []Message
	Stream  bool
}

// Messages returns the conversation to send: History when set, otherwise
// Prompt as a single user message.
func (r GenerateRequest) Messages() []Message {
	if len(r.History) > 0 {
		return r.History
	}
	if r.Prompt == "" {
		return nil
	}
	return []Message{UserMessage{Content: r.Prompt}}
}

// GenerateResponse is the assembled result of a generation call.
type GenerateResponse struct {
	Model      string
	Text       string
	Done       bool
	StopReason StopReason
	Usage      Usage
}

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving deltas.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Generator.Generate(). A stream is finite and cannot be
// restarted.
//
// Response() returns the text assembled so far. Behavior by stream state:
//   - StreamStateComplete: complete response, Done set, nil error.
//   - StreamStateError: partial response, nil error. StopReason is StopError
//     for transport failures, StopAborted for context cancellation.
//   - StreamStateStreaming: partial response, nil error.
//   - StreamStateNew: zero-value response, ErrStreamNotReady.
//   - StreamStateClosed: partial response with StopReason = StopAborted.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Response() (GenerateResponse, error)
	Close() error
}

// Collect drains s, passing each event to onEvent (which may be nil), and
// returns the assembled response. The stream is closed before returning.
// On a stream error the partial response is returned with the error.
func Collect(s Stream, onEvent func(Event)) (GenerateResponse, error) {
	defer s.Close()
	var streamErr error
	for {
		evt, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		if onEvent != nil {
			onEvent(evt)
		}
	}
	resp, err := s.Response()
	if streamErr != nil {
		return resp, streamErr
	}
	return resp, err
}

// Transcript flattens msgs into a plain-text prompt for endpoints that take
// a single prompt string. Each turn is prefixed with its role. Failed
// assistant turns are left out; the model never produced them.
func Transcript(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if a, ok := m.(AssistantMessage); ok && a.IsError {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		switch m := m.(type) {
		case UserMessage:
			b.WriteString("User: ")
			b.WriteString(m.Content)
		case AssistantMessage:
			b.WriteString("Assistant: ")
			b.WriteString(m.Content)
		case ToolMessage:
			b.WriteString("Tool ")
			b.WriteString(m.ToolName)
			b.WriteString(" returned: ")
			b.WriteString(m.Content)
		}
	}
	return b.String()
}
