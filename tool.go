package mcpcli

import (
	"context"
	"encoding/json"
)

// InvocationMode selects how a ToolSource reaches its tools.
type InvocationMode string

const (
	ModeRemote InvocationMode = "remote"
	ModeLocal  InvocationMode = "local"
)

// Tool describes a named tool. Parameters is a JSON schema for the
// argument object; it may be nil when the source does not know it.
type Tool struct {
	Name        string
	Description string
	Mode        InvocationMode
	Parameters  json.RawMessage
}

// ToolSource invokes tools by name. A source has one fixed mode for its
// lifetime and its catalog does not change after construction.
//
// Invoke returns a non-nil result or an error wrapping exactly one failure
// kind (ErrToolNotFound, ErrInvalidArguments, ErrRemoteTool, ErrToolFailed).
// It never retries.
type ToolSource interface {
	Mode() InvocationMode
	Tools() []Tool
	Invoke(ctx context.Context, name string, args map[string]any) (*ToolResult, error)
}

// ToolResult is the value a tool produced: decoded JSON, a Go value from a
// local callable, or plain text.
type ToolResult struct {
	Value any
}

// Text renders the result for display and for inclusion in prompts.
// Strings are returned as is; everything else is indented JSON.
func (r *ToolResult) Text() string {
	if r == nil || r.Value == nil {
		return ""
	}
	if s, ok := r.Value.(string); ok {
		return s
	}
	b, err := json.MarshalIndent(r.Value, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// FindTool returns the descriptor named name from tools.
func FindTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}
