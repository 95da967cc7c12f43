// Package local invokes tools implemented as in-process Go functions.
//
// A tool is a function taking a context and, optionally, one struct of
// arguments. Sync tools return (R, error). Suspending tools return an
// Awaitable that the source drives to completion before Invoke returns.
package local

import (
	"context"
	"fmt"

	"github.com/fwojciec/mcpcli"
	"github.com/rs/zerolog"
)

// Interface compliance check.
var _ mcpcli.ToolSource = (*Source)(nil)

// Source is a fixed registry of local callables.
type Source struct {
	callables map[string]*Callable
	order     []string
	logger    zerolog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger used for invocation tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Source) {
		s.logger = l
	}
}

// New creates a Source from callables. Names must be unique.
func New(callables []*Callable, opts ...Option) (*Source, error) {
	s := &Source{
		callables: make(map[string]*Callable, len(callables)),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, c := range callables {
		if _, dup := s.callables[c.name]; dup {
			return nil, fmt.Errorf("duplicate tool %q: %w", c.name, mcpcli.ErrValidation)
		}
		s.callables[c.name] = c
		s.order = append(s.order, c.name)
	}
	return s, nil
}

// Mode returns ModeLocal.
func (s *Source) Mode() mcpcli.InvocationMode { return mcpcli.ModeLocal }

// Tools returns the registered tools in registration order.
func (s *Source) Tools() []mcpcli.Tool {
	tools := make([]mcpcli.Tool, 0, len(s.order))
	for _, name := range s.order {
		tools = append(tools, s.callables[name].Tool())
	}
	return tools
}

// Invoke looks name up exactly and calls it with args.
func (s *Source) Invoke(ctx context.Context, name string, args map[string]any) (*mcpcli.ToolResult, error) {
	c, ok := s.callables[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, mcpcli.ErrToolNotFound)
	}
	s.logger.Debug().Str("tool", name).Stringer("kind", c.kind).Msg("invoking local tool")
	v, err := c.Call(ctx, args)
	if err != nil {
		s.logger.Debug().Str("tool", name).Err(err).Msg("local tool failed")
		return nil, err
	}
	return &mcpcli.ToolResult{Value: v}, nil
}
