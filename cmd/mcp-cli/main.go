// Command mcp-cli is a chat client for an LLM generation endpoint that can
// invoke tools on an MCP-style server or from a local Go module.
//
// Usage:
//
//	mcp-cli -prompt "Hello"
//	mcp-cli -chat -auto-tools -mcp-url http://localhost:8000
//	mcp-cli -tool list_algorithms -local-tools
//
// Flags override values from the -config file. API keys come from
// -api-key, ANTHROPIC_API_KEY or GEMINI_API_KEY.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fwojciec/mcpcli"
	bt "github.com/fwojciec/mcpcli/bubbletea"
	"github.com/fwojciec/mcpcli/config"
	mcpjson "github.com/fwojciec/mcpcli/json"
	"github.com/fwojciec/mcpcli/logging"
	"github.com/fwojciec/mcpcli/resource"
	"github.com/fwojciec/mcpcli/session"
	"github.com/fwojciec/mcpcli/term"
)

// errTurnFailed reports a single-shot turn that ended in an error turn.
var errTurnFailed = errors.New("turn failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], env{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	})
	stop()
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "mcp-cli: %v\n", err)
		os.Exit(2)
	case errors.Is(err, errTurnFailed):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "mcp-cli: %v\n", err)
		os.Exit(1)
	}
}

// env is the process environment run works against.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

func run(ctx context.Context, args []string, e env) error {
	opts, err := parseFlags(args, e.stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, e.stderr)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logger.Close()
	log := logger.Logger

	httpClient := newHTTPClient(cfg)

	resources, err := resource.Open(cfg.ResourcesDir)
	if err != nil {
		return err
	}

	tools, err := resolveTools(cfg, opts, httpClient, resources, log)
	if err != nil {
		return err
	}

	gen, model, err := resolveGenerator(ctx, cfg, opts.apiKey, e.getenv, httpClient, log)
	if err != nil {
		return err
	}
	log.Info().
		Str("provider", cfg.Provider).
		Str("model", model).
		Bool("stream", cfg.Stream).
		Bool("auto_tools", cfg.AutoTools).
		Msg("session starting")

	theme := mcpcli.DefaultTheme()
	printer := term.New(e.stdout, theme)
	sessionOpts := []session.Option{
		session.WithModel(model),
		session.WithStream(cfg.Stream),
		session.WithAutoTools(cfg.AutoTools),
		session.WithResources(resources),
		session.WithEventHandler(printer.Handle),
		session.WithLogger(log),
	}
	if opts.chat && !opts.tui {
		sessionOpts = append(sessionOpts, session.WithPrompt(e.stdout))
	}
	loop := session.New(gen, tools, sessionOpts...)

	err = drive(ctx, loop, opts, cfg, theme, e)
	if opts.transcript != "" {
		t := mcpjson.Transcript{
			ID:         loop.ID(),
			Model:      model,
			Provider:   cfg.Provider,
			ExportedAt: time.Now(),
			Messages:   loop.History(),
		}
		if serr := mcpjson.Save(opts.transcript, t); serr != nil {
			return errors.Join(err, fmt.Errorf("save transcript: %w", serr))
		}
		log.Info().Str("path", opts.transcript).Msg("transcript saved")
	}
	return err
}

// drive runs the session in the mode the flags select.
func drive(ctx context.Context, loop *session.Loop, opts options, cfg config.Config, theme mcpcli.Theme, e env) error {
	switch {
	case opts.chat && opts.tui:
		m := bt.New(bt.SessionDispatch(loop), theme)
		if err := bt.Run(ctx, m); err != nil {
			return fmt.Errorf("TUI: %w", err)
		}
		return nil
	case opts.chat:
		fmt.Fprintln(e.stdout, "Starting interactive chat against:", cfg.URL)
		fmt.Fprintln(e.stdout, "Type /quit or Ctrl-C to exit.")
		fmt.Fprintln(e.stdout)
		err := loop.Run(ctx, e.stdin)
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(e.stdout, "\nBye")
			return nil
		}
		return err
	case opts.tool != "":
		return runOnce(ctx, loop, toolInput(opts))
	case opts.prompt != "":
		return runOnce(ctx, loop, opts.prompt)
	default:
		return fmt.Errorf("either -prompt, -tool or -chat is required: %w", errUsage)
	}
}

// runOnce dispatches a single turn and reports whether it ended in an
// error turn.
func runOnce(ctx context.Context, loop *session.Loop, input string) error {
	if err := loop.RunOnce(ctx, input); err != nil {
		return err
	}
	last, ok := loop.Last()
	if !ok {
		return nil
	}
	switch m := last.(type) {
	case mcpcli.ToolMessage:
		if m.IsError {
			return errTurnFailed
		}
	case mcpcli.AssistantMessage:
		if m.IsError {
			return errTurnFailed
		}
	}
	return nil
}

// toolInput builds the /tool directive for single-shot tool mode. -prompt
// stands in for -args when only it is given.
func toolInput(opts options) string {
	args := opts.args
	if args == "" {
		args = opts.prompt
	}
	return strings.TrimSpace("/tool " + opts.tool + " " + args)
}
