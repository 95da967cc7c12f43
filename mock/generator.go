// Package mock provides test doubles for the mcpcli interfaces.
package mock

import (
	"context"

	"github.com/fwojciec/mcpcli"
)

// Interface compliance check.
var _ mcpcli.Generator = (*Generator)(nil)

// Generator is a test double for mcpcli.Generator.
// Set GenerateFn before calling Generate.
type Generator struct {
	GenerateFn func(ctx context.Context, req mcpcli.GenerateRequest) (mcpcli.Stream, error)
}

// Generate delegates to GenerateFn.
func (g *Generator) Generate(ctx context.Context, req mcpcli.GenerateRequest) (mcpcli.Stream, error) {
	return g.GenerateFn(ctx, req)
}
