package hkube

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/mcpcli"
)

// GetInstructions returns the assistant instructions document.
func (m *Module) GetInstructions(context.Context) (string, error) {
	return m.read(InstructionsResource)
}

// ListResources returns the resource names, one per line.
func (m *Module) ListResources(context.Context) (string, error) {
	if m.resources == nil {
		return "No resources available.", nil
	}
	names := m.resources.List()
	if len(names) == 0 {
		return "No resources available.", nil
	}
	return strings.Join(names, "\n"), nil
}

// ReadResourceArgs names the resource to read.
type ReadResourceArgs struct {
	Query string `json:"query" jsonschema:"description=Resource name or partial name"`
}

// ReadResource returns the content of the resource matching in.Query.
func (m *Module) ReadResource(_ context.Context, in ReadResourceArgs) (string, error) {
	q := strings.TrimSpace(in.Query)
	if q == "" {
		return "", fmt.Errorf("query is required, use list_resources to see names: %w", mcpcli.ErrInvalidArguments)
	}
	return m.read(q)
}

func (m *Module) read(name string) (string, error) {
	if m.resources == nil {
		return "", fmt.Errorf("%q: %w", name, mcpcli.ErrResourceNotFound)
	}
	return m.resources.Read(name)
}
