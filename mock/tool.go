package mock

import (
	"context"

	"github.com/fwojciec/mcpcli"
)

// Interface compliance check.
var _ mcpcli.ToolSource = (*ToolSource)(nil)

// ToolSource is a test double for mcpcli.ToolSource.
// InvokeFn must be set before calling Invoke. ToolsFn may be nil (empty
// catalog) and ModeFn may be nil (ModeLocal).
type ToolSource struct {
	ModeFn   func() mcpcli.InvocationMode
	ToolsFn  func() []mcpcli.Tool
	InvokeFn func(ctx context.Context, name string, args map[string]any) (*mcpcli.ToolResult, error)
}

// Mode delegates to ModeFn.
func (s *ToolSource) Mode() mcpcli.InvocationMode {
	if s.ModeFn == nil {
		return mcpcli.ModeLocal
	}
	return s.ModeFn()
}

// Tools delegates to ToolsFn.
func (s *ToolSource) Tools() []mcpcli.Tool {
	if s.ToolsFn == nil {
		return nil
	}
	return s.ToolsFn()
}

// Invoke delegates to InvokeFn.
func (s *ToolSource) Invoke(ctx context.Context, name string, args map[string]any) (*mcpcli.ToolResult, error) {
	return s.InvokeFn(ctx, name, args)
}
