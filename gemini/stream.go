package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/mcpcli"
	"google.golang.org/genai"
)

// stream implements [mcpcli.Stream] by wrapping the genai SDK's iterator.
type stream struct {
	ctx     context.Context
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	state   mcpcli.StreamState
	resp    mcpcli.GenerateResponse
	text    strings.Builder
	pending []string // text parts of the current chunk not yet returned
	err     error
}

// Interface compliance check.
var _ mcpcli.Stream = (*stream)(nil)

// NewStreamFromIter wraps a genai response iterator as an [mcpcli.Stream].
func NewStreamFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) mcpcli.Stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		ctx:   ctx,
		pull:  next,
		stop:  stop,
		state: mcpcli.StreamStateNew,
	}
}

func (s *stream) Next() (mcpcli.Event, error) {
	switch s.state {
	case mcpcli.StreamStateComplete:
		return nil, io.EOF
	case mcpcli.StreamStateError:
		return nil, s.err
	case mcpcli.StreamStateClosed:
		return nil, fmt.Errorf("gemini: %w", mcpcli.ErrStreamClosed)
	}

	for {
		if len(s.pending) > 0 {
			delta := s.pending[0]
			s.pending = s.pending[1:]
			s.text.WriteString(delta)
			s.resp.Text = s.text.String()
			return mcpcli.EventTextDelta{Delta: delta}, nil
		}

		chunk, err, ok := s.pull()
		if !ok {
			s.state = mcpcli.StreamStateComplete
			s.resp.Done = true
			if s.resp.StopReason == "" {
				s.resp.StopReason = mcpcli.StopEndTurn
			}
			return nil, io.EOF
		}
		s.state = mcpcli.StreamStateStreaming
		if err != nil {
			return nil, s.terminate(err)
		}
		if err := s.processChunk(chunk); err != nil {
			return nil, s.terminate(err)
		}
	}
}

func (s *stream) processChunk(chunk *genai.GenerateContentResponse) error {
	if chunk == nil {
		return nil
	}
	if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("prompt blocked: %s", chunk.PromptFeedback.BlockReason)
	}
	if chunk.ModelVersion != "" {
		s.resp.Model = chunk.ModelVersion
	}
	if u := chunk.UsageMetadata; u != nil {
		s.resp.Usage = mcpcli.Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
		}
	}
	if len(chunk.Candidates) == 0 {
		return nil
	}
	cand := chunk.Candidates[0]
	if cand.FinishReason != "" {
		reason, err := mapFinishReason(cand.FinishReason)
		if err != nil {
			return err
		}
		s.resp.StopReason = reason
	}
	if cand.Content == nil {
		return nil
	}
	for _, p := range cand.Content.Parts {
		if p == nil || p.Thought || p.Text == "" {
			continue
		}
		s.pending = append(s.pending, p.Text)
	}
	return nil
}

func (s *stream) terminate(err error) error {
	s.state = mcpcli.StreamStateError
	if s.ctx.Err() != nil {
		s.err = fmt.Errorf("gemini: %w", s.ctx.Err())
		s.resp.StopReason = mcpcli.StopAborted
		return s.err
	}
	s.err = fmt.Errorf("gemini: %w: %w", mcpcli.ErrGeneration, err)
	s.resp.StopReason = mcpcli.StopError
	return s.err
}

func (s *stream) State() mcpcli.StreamState {
	return s.state
}

func (s *stream) Response() (mcpcli.GenerateResponse, error) {
	if s.state == mcpcli.StreamStateNew {
		return mcpcli.GenerateResponse{}, fmt.Errorf("gemini: %w", mcpcli.ErrStreamNotReady)
	}
	return s.resp, nil
}

func (s *stream) Close() error {
	if s.state != mcpcli.StreamStateComplete && s.state != mcpcli.StreamStateError {
		s.state = mcpcli.StreamStateClosed
		s.resp.StopReason = mcpcli.StopAborted
	}
	s.stop()
	return nil
}

func mapFinishReason(r genai.FinishReason) (mcpcli.StopReason, error) {
	switch r {
	case genai.FinishReasonStop:
		return mcpcli.StopEndTurn, nil
	case genai.FinishReasonMaxTokens:
		return mcpcli.StopLength, nil
	case genai.FinishReasonSafety:
		return "", fmt.Errorf("response blocked: %s", r)
	default:
		return mcpcli.StopUnknown, nil
	}
}
