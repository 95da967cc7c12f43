package main

import (
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/mcpcli/config"
)

// errUsage marks command-line mistakes; main exits with status 2.
var errUsage = errors.New("usage")

// options holds parsed command-line flags. set records which flags were
// given explicitly so that only those override the config file.
type options struct {
	configPath  string
	url         string
	mcpURL      string
	hkubeURL    string
	model       string
	provider    string
	apiKey      string
	prompt      string
	tool        string
	args        string
	chat        bool
	tui         bool
	stream      bool
	autoTools   bool
	localTools  bool
	localModule string
	resources   string
	timeout     float64
	noVerify    bool
	logLevel    string
	logFile     string
	transcript  string

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("mcp-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configPath, "config", "", "Path to a YAML or TOML config file")
	fs.StringVar(&o.url, "url", config.DefaultURL, "Base URL of the LLM /api/generate endpoint")
	fs.StringVar(&o.mcpURL, "mcp-url", "", "Base URL of the MCP server for remote tools")
	fs.StringVar(&o.hkubeURL, "hkube-url", "", "Base URL of the HKube API used by the built-in local tools")
	fs.StringVar(&o.model, "model", "", "Model name to request (provider default if omitted)")
	fs.StringVar(&o.provider, "provider", config.DefaultProvider, "Generation backend: ollama, anthropic, gemini")
	fs.StringVar(&o.apiKey, "api-key", "", "API key (overrides the provider's env var)")
	fs.StringVar(&o.prompt, "prompt", "", "Single-shot prompt (omit to use -chat)")
	fs.StringVar(&o.tool, "tool", "", "Invoke a tool by name (single-shot)")
	fs.StringVar(&o.args, "args", "", "Tool arguments: a JSON object or key=value pairs")
	fs.BoolVar(&o.chat, "chat", false, "Interactive chat REPL")
	fs.BoolVar(&o.tui, "tui", false, "Use the full-screen interface with -chat")
	fs.BoolVar(&o.stream, "stream", false, "Stream responses from the generation endpoint")
	fs.BoolVar(&o.autoTools, "auto-tools", false, "Ask the model whether a tool should be used and orchestrate the call")
	fs.BoolVar(&o.localTools, "local-tools", false, "Invoke tools from a local module instead of the MCP server")
	fs.StringVar(&o.localModule, "local-module", "", "Go plugin exporting Module (default: built-in HKube tools)")
	fs.StringVar(&o.resources, "resources", "", "Directory of resource documents")
	fs.Float64Var(&o.timeout, "timeout", config.DefaultTimeout, "Request timeout in seconds")
	fs.BoolVar(&o.noVerify, "no-verify", false, "Do not verify TLS certificates")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error, disabled")
	fs.StringVar(&o.logFile, "log-file", "", "Also write logs to this file")
	fs.StringVar(&o.transcript, "transcript", "", "Write the session transcript to this JSON file on exit")

	if err := fs.Parse(args); err != nil {
		return o, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments %q: %w", fs.Args(), errUsage)
	}
	if o.tui && !o.chat {
		return o, fmt.Errorf("-tui requires -chat: %w", errUsage)
	}
	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// loadConfig reads the config file, if any, applies explicit flags on top
// and validates the result.
func loadConfig(o options) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}
	if o.set["url"] {
		cfg.URL = o.url
	}
	if o.set["mcp-url"] {
		cfg.MCPURL = o.mcpURL
	}
	if o.set["hkube-url"] {
		cfg.HKubeAPIURL = o.hkubeURL
	}
	if o.set["model"] {
		cfg.Model = o.model
	}
	if o.set["provider"] {
		cfg.Provider = o.provider
	}
	if o.set["stream"] {
		cfg.Stream = o.stream
	}
	if o.set["auto-tools"] {
		cfg.AutoTools = o.autoTools
	}
	if o.set["timeout"] {
		cfg.TimeoutSeconds = o.timeout
	}
	if o.set["no-verify"] {
		cfg.NoVerify = o.noVerify
	}
	if o.set["resources"] {
		cfg.ResourcesDir = o.resources
	}
	if o.set["log-level"] {
		cfg.Log.Level = o.logLevel
	}
	if o.set["log-file"] {
		cfg.Log.File = o.logFile
	}
	return cfg, cfg.Validate()
}

// newHTTPClient builds the client shared by every HTTP collaborator.
func newHTTPClient(cfg config.Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.NoVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Timeout:   cfg.Timeout(),
		Transport: transport,
	}
}
