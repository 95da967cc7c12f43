package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/mcpcli"
)

// stream implements [mcpcli.Stream] by decoding JSON objects from the
// response body one at a time.
type stream struct {
	body   io.ReadCloser
	dec    *json.Decoder
	ctx    context.Context
	single bool // non-streamed request: the first object is the whole answer
	state  mcpcli.StreamState
	resp   mcpcli.GenerateResponse
	text   strings.Builder
	err    error
}

// Interface compliance check.
var _ mcpcli.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, single bool) *stream {
	return &stream{
		body:   body,
		dec:    json.NewDecoder(body),
		ctx:    ctx,
		single: single,
		state:  mcpcli.StreamStateNew,
	}
}

// Next returns the next text fragment. Returns io.EOF once the final
// object has been consumed.
func (s *stream) Next() (mcpcli.Event, error) {
	switch s.state {
	case mcpcli.StreamStateComplete:
		return nil, io.EOF
	case mcpcli.StreamStateError:
		return nil, s.err
	case mcpcli.StreamStateClosed:
		return nil, fmt.Errorf("ollama: %w", mcpcli.ErrStreamClosed)
	}

	for {
		var chunk apiChunk
		if err := s.dec.Decode(&chunk); err != nil {
			s.terminate(err)
			return nil, s.err
		}
		s.state = mcpcli.StreamStateStreaming

		if chunk.Error != "" {
			s.terminate(fmt.Errorf("ollama: %s: %w", chunk.Error, mcpcli.ErrGeneration))
			return nil, s.err
		}
		if chunk.Model != "" {
			s.resp.Model = chunk.Model
		}
		s.text.WriteString(chunk.Response)
		s.resp.Text = s.text.String()

		if chunk.Done || s.single {
			s.complete(chunk)
		}
		if chunk.Response != "" {
			return mcpcli.EventTextDelta{Delta: chunk.Response}, nil
		}
		if s.state == mcpcli.StreamStateComplete {
			return nil, io.EOF
		}
	}
}

// State returns the current stream state.
func (s *stream) State() mcpcli.StreamState {
	return s.state
}

// Response returns the text assembled so far.
func (s *stream) Response() (mcpcli.GenerateResponse, error) {
	if s.state == mcpcli.StreamStateNew {
		return mcpcli.GenerateResponse{}, fmt.Errorf("ollama: %w", mcpcli.ErrStreamNotReady)
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

func (s *stream) complete(chunk apiChunk) {
	s.state = mcpcli.StreamStateComplete
	s.resp.Done = true
	s.resp.StopReason = convertDoneReason(chunk.DoneReason)
	s.resp.Usage = mcpcli.Usage{
		InputTokens:  chunk.PromptEvalCount,
		OutputTokens: chunk.EvalCount,
	}
}

// terminate records a terminal error and sets the stop reason.
func (s *stream) terminate(err error) {
	s.state = mcpcli.StreamStateError
	switch {
	case s.ctx.Err() != nil:
		s.err = fmt.Errorf("ollama: %w", s.ctx.Err())
		s.resp.StopReason = mcpcli.StopAborted
		return
	case errors.Is(err, io.EOF):
		s.err = fmt.Errorf("ollama: unexpected end of stream: %w", mcpcli.ErrGeneration)
	case errors.Is(err, mcpcli.ErrGeneration):
		s.err = err
	default:
		s.err = fmt.Errorf("ollama: malformed response: %w: %w", mcpcli.ErrGeneration, err)
	}
	s.resp.StopReason = mcpcli.StopError
}

func convertDoneReason(r string) mcpcli.StopReason {
	switch r {
	case "", "stop":
		return mcpcli.StopEndTurn
	case "length":
		return mcpcli.StopLength
	default:
		return mcpcli.StopUnknown
	}
}
