package mock

import "github.com/fwojciec/mcpcli"

// Interface compliance check.
var _ mcpcli.Stream = (*Stream)(nil)

// Stream is a test double for mcpcli.Stream.
// NextFn and ResponseFn panic when nil to catch missing setup. CloseFn and
// StateFn are nil-safe because callers routinely defer Close.
type Stream struct {
	NextFn     func() (mcpcli.Event, error)
	StateFn    func() mcpcli.StreamState
	ResponseFn func() (mcpcli.GenerateResponse, error)
	CloseFn    func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (mcpcli.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() mcpcli.StreamState {
	if s.StateFn == nil {
		return mcpcli.StreamStateNew
	}
	return s.StateFn()
}

// Response delegates to ResponseFn.
func (s *Stream) Response() (mcpcli.GenerateResponse, error) {
	return s.ResponseFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
