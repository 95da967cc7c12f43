package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/mcpcli"
)

// stream implements [mcpcli.Stream] by parsing SSE events from an HTTP
// response body.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	state   mcpcli.StreamState
	resp    mcpcli.GenerateResponse
	text    strings.Builder
	err     error // terminal error, if any
}

// Interface compliance check.
var _ mcpcli.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	return &stream{
		body:    body,
		scanner: bufio.NewScanner(body),
		ctx:     ctx,
		state:   mcpcli.StreamStateNew,
	}
}

// Next reads the next text delta from the SSE stream.
// Returns io.EOF when the stream completes normally.
func (s *stream) Next() (mcpcli.Event, error) {
	switch s.state {
	case mcpcli.StreamStateComplete:
		return nil, io.EOF
	case mcpcli.StreamStateError:
		return nil, s.err
	case mcpcli.StreamStateClosed:
		return nil, fmt.Errorf("anthropic: %w", mcpcli.ErrStreamClosed)
	}

	for {
		eventType, data, err := s.readSSEEvent()
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		s.state = mcpcli.StreamStateStreaming

		evt, err := s.processEvent(eventType, data)
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		// processEvent may set a terminal state (message_stop).
		if s.state == mcpcli.StreamStateComplete {
			return nil, io.EOF
		}

		if evt != nil {
			return evt, nil
		}
		// Non-text event (ping, message_start, etc.) - keep reading.
	}
}

// State returns the current stream state.
func (s *stream) State() mcpcli.StreamState {
	return s.state
}

// Response returns the text assembled so far.
func (s *stream) Response() (mcpcli.GenerateResponse, error) {
	if s.state == mcpcli.StreamStateNew {
		return mcpcli.GenerateResponse{}, fmt.Errorf("anthropic: %w", mcpcli.ErrStreamNotReady)
	}
	return s.resp, nil
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != mcpcli.StreamStateComplete && s.state != mcpcli.StreamStateError {
		s.state = mcpcli.StreamStateClosed
		s.resp.StopReason = mcpcli.StopAborted
	}
	return s.body.Close()
}

// terminate records a terminal error and sets the appropriate state and stop reason.
func (s *stream) terminate(err error) {
	s.state = mcpcli.StreamStateError
	if s.ctx.Err() != nil {
		s.err = fmt.Errorf("anthropic: %w", s.ctx.Err())
		s.resp.StopReason = mcpcli.StopAborted
		return
	}
	if err == io.EOF {
		// message_stop sets StreamStateComplete before we get here, so a raw
		// EOF means the stream ended early.
		err = fmt.Errorf("anthropic: unexpected end of stream")
	}
	s.err = fmt.Errorf("%w: %w", mcpcli.ErrGeneration, err)
	s.resp.StopReason = mcpcli.StopError
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *stream) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
		// Ignore comments (lines starting with ':') and unknown fields.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", fmt.Errorf("anthropic: %w", err)
	}

	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// processEvent maps an SSE event to an mcpcli.Event.
// Returns nil event for events that carry no text.
func (s *stream) processEvent(eventType, data string) (mcpcli.Event, error) {
	switch eventType {
	case "message_start":
		var evt sseMessageStart
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			return nil, fmt.Errorf("anthropic: failed to parse message_start: %w", err)
		}
		s.resp.Model = evt.Message.Model
		s.resp.Usage.InputTokens = evt.Message.Usage.InputTokens
		return nil, nil
	case "content_block_delta":
		var evt sseContentBlockDelta
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			return nil, fmt.Errorf("anthropic: failed to parse content_block_delta: %w", err)
		}
		if evt.Delta.Type != "text_delta" || evt.Delta.Text == "" {
			return nil, nil
		}
		s.text.WriteString(evt.Delta.Text)
		s.resp.Text = s.text.String()
		return mcpcli.EventTextDelta{Delta: evt.Delta.Text}, nil
	case "message_delta":
		var evt sseMessageDelta
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			return nil, fmt.Errorf("anthropic: failed to parse message_delta: %w", err)
		}
		s.resp.Usage.OutputTokens = evt.Usage.OutputTokens
		if evt.Delta.StopReason != nil {
			s.resp.StopReason = mapStopReason(*evt.Delta.StopReason)
		}
		return nil, nil
	case "message_stop":
		s.state = mcpcli.StreamStateComplete
		s.resp.Done = true
		return nil, nil
	case "error":
		var evt sseError
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			return nil, fmt.Errorf("anthropic: failed to parse error event: %w", err)
		}
		return nil, fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message)
	default:
		// ping, content_block_start/stop and unknown types carry no text.
		return nil, nil
	}
}

func mapStopReason(raw string) mcpcli.StopReason {
	switch raw {
	case "end_turn", "stop_sequence":
		return mcpcli.StopEndTurn
	case "max_tokens":
		return mcpcli.StopLength
	default:
		return mcpcli.StopUnknown
	}
}

// messageStream replays a complete non-streamed reply as one delta.
type messageStream struct {
	resp  mcpcli.GenerateResponse
	state mcpcli.StreamState
}

func newMessageStream(resp mcpcli.GenerateResponse) *messageStream {
	return &messageStream{resp: resp}
}

func (s *messageStream) Next() (mcpcli.Event, error) {
	switch s.state {
	case mcpcli.StreamStateNew:
		s.state = mcpcli.StreamStateComplete
		if s.resp.Text != "" {
			return mcpcli.EventTextDelta{Delta: s.resp.Text}, nil
		}
		return nil, io.EOF
	case mcpcli.StreamStateClosed:
		return nil, fmt.Errorf("anthropic: %w", mcpcli.ErrStreamClosed)
	default:
		return nil, io.EOF
	}
}

func (s *messageStream) State() mcpcli.StreamState { return s.state }

func (s *messageStream) Response() (mcpcli.GenerateResponse, error) {
	if s.state == mcpcli.StreamStateNew {
		return mcpcli.GenerateResponse{}, fmt.Errorf("anthropic: %w", mcpcli.ErrStreamNotReady)
	}
	return s.resp, nil
}

func (s *messageStream) Close() error {
	if s.state == mcpcli.StreamStateNew {
		s.state = mcpcli.StreamStateClosed
	}
	return nil
}
