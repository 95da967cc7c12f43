package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/anthropic"
	"github.com/fwojciec/mcpcli/config"
	"github.com/fwojciec/mcpcli/gemini"
	"github.com/fwojciec/mcpcli/ollama"
	"github.com/rs/zerolog"
)

// resolveGenerator constructs the generation backend named by cfg.Provider
// and returns it with the model the session should request. An empty model
// leaves the choice to the backend, except for ollama which requires one.
func resolveGenerator(ctx context.Context, cfg config.Config, apiKeyFlag string, getenv func(string) string, hc *http.Client, logger zerolog.Logger) (mcpcli.Generator, string, error) {
	model := cfg.Model
	switch cfg.Provider {
	case "", "ollama":
		if model == "" {
			model = ollama.DefaultModel
		}
		return ollama.New(cfg.URL, ollama.WithHTTPClient(hc), ollama.WithLogger(logger)), model, nil
	case "anthropic":
		key := apiKey(apiKeyFlag, getenv("ANTHROPIC_API_KEY"))
		if key == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set (use -api-key flag or environment variable): %w", mcpcli.ErrValidation)
		}
		return anthropic.New(key, anthropic.WithHTTPClient(hc)), model, nil
	case "gemini":
		key := apiKey(apiKeyFlag, getenv("GEMINI_API_KEY"))
		if key == "" {
			return nil, "", fmt.Errorf("GEMINI_API_KEY not set (use -api-key flag or environment variable): %w", mcpcli.ErrValidation)
		}
		client, err := gemini.New(ctx, key, gemini.WithHTTPClient(hc))
		if err != nil {
			return nil, "", err
		}
		return client, model, nil
	default:
		return nil, "", fmt.Errorf("unknown provider %q: must be \"ollama\", \"anthropic\" or \"gemini\": %w", cfg.Provider, mcpcli.ErrValidation)
	}
}

// apiKey prefers the explicit flag over the environment.
func apiKey(flagValue, envValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return envValue
}
