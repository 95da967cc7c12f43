package main

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/config"
	"github.com/fwojciec/mcpcli/mock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTools(t *testing.T) {
	t.Parallel()

	resources := &mock.ResourceStore{}

	t.Run("no source configured", func(t *testing.T) {
		t.Parallel()
		src, err := resolveTools(config.Default(), options{}, http.DefaultClient, resources, zerolog.Nop())
		require.NoError(t, err)
		assert.Nil(t, src)
	})

	t.Run("remote when mcp url is set", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.MCPURL = "http://localhost:8000"
		src, err := resolveTools(cfg, options{}, http.DefaultClient, resources, zerolog.Nop())
		require.NoError(t, err)
		require.NotNil(t, src)
		assert.Equal(t, mcpcli.ModeRemote, src.Mode())
	})

	t.Run("local tools use the built-in module", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.MCPURL = "http://localhost:8000"
		src, err := resolveTools(cfg, options{localTools: true}, http.DefaultClient, resources, zerolog.Nop())
		require.NoError(t, err)
		require.NotNil(t, src)
		assert.Equal(t, mcpcli.ModeLocal, src.Mode())
		_, ok := mcpcli.FindTool(src.Tools(), "list_algorithms")
		assert.True(t, ok)
		_, ok = mcpcli.FindTool(src.Tools(), "search_jobs")
		assert.True(t, ok)
	})

	t.Run("missing plugin is fatal", func(t *testing.T) {
		t.Parallel()
		o := options{localModule: filepath.Join(t.TempDir(), "missing.so")}
		_, err := resolveTools(config.Default(), o, http.DefaultClient, resources, zerolog.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load local module")
	})
}
