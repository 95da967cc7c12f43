package main

import (
	"fmt"
	"net/http"

	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/config"
	"github.com/fwojciec/mcpcli/hkube"
	"github.com/fwojciec/mcpcli/local"
	"github.com/fwojciec/mcpcli/remote"
	"github.com/rs/zerolog"
)

// resolveTools picks the session's single tool source. Local mode loads a
// plugin from -local-module or falls back to the built-in HKube module;
// otherwise -mcp-url selects remote mode. With neither the session has no
// tools and /tool reports ToolNotFound.
func resolveTools(cfg config.Config, o options, hc *http.Client, resources mcpcli.ResourceStore, logger zerolog.Logger) (mcpcli.ToolSource, error) {
	switch {
	case o.localModule != "":
		src, err := local.Open(o.localModule, local.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("load local module: %w", err)
		}
		return src, nil
	case o.localTools:
		module := hkube.New(cfg,
			hkube.WithHTTPClient(hc),
			hkube.WithResources(resources),
			hkube.WithLogger(logger),
		)
		src, err := local.FromModule(module, local.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("load built-in tools: %w", err)
		}
		return src, nil
	case cfg.MCPURL != "":
		src, err := remote.New(cfg.MCPURL, remote.WithHTTPClient(hc), remote.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("remote tools: %w", err)
		}
		return src, nil
	default:
		return nil, nil
	}
}
