// Package remote invokes tools exposed over HTTP at
// <base>/api/tool/<name>.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/mcpcli"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Interface compliance check.
var _ mcpcli.ToolSource = (*Source)(nil)

const toolPath = "/api/tool/"

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// DefaultCatalog lists the tools a stock server exposes. The server offers
// no discovery endpoint, so this is what is advertised unless WithCatalog
// replaces it.
var DefaultCatalog = []mcpcli.Tool{
	{Name: "list_algorithms", Description: "returns list of algorithms from HKube as JSON", Mode: mcpcli.ModeRemote},
	{Name: "list_pipelines", Description: "returns list of pipelines from HKube as JSON", Mode: mcpcli.ModeRemote},
	{Name: "say_hello", Description: "simple hello string", Mode: mcpcli.ModeRemote},
	{Name: "quick_hello", Description: "simple hello string", Mode: mcpcli.ModeRemote},
	{Name: "default_tool", Description: "fallback tool when unsure", Mode: mcpcli.ModeRemote},
}

// Source implements [mcpcli.ToolSource] over HTTP.
type Source struct {
	baseURL    string
	httpClient *http.Client
	catalog    []mcpcli.Tool
	logger     zerolog.Logger
}

// Option configures a [Source].
type Option func(*Source)

// WithHTTPClient sets a custom HTTP client. Timeouts and TLS verification
// are the client's concern.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Source) { s.httpClient = hc }
}

// WithCatalog replaces the advertised tool catalog.
func WithCatalog(tools []mcpcli.Tool) Option {
	return func(s *Source) { s.catalog = tools }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// New creates a [Source] for the tool server at baseURL.
func New(baseURL string, opts ...Option) (*Source, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("remote: invalid base URL %q: %w", baseURL, mcpcli.ErrValidation)
	}
	s := &Source{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		catalog:    DefaultCatalog,
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Mode returns ModeRemote.
func (s *Source) Mode() mcpcli.InvocationMode { return mcpcli.ModeRemote }

// Tools returns the advertised catalog.
func (s *Source) Tools() []mcpcli.Tool {
	out := make([]mcpcli.Tool, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// Invoke posts args as a JSON object to the tool endpoint. It does not
// consult the catalog: the server decides which names exist.
func (s *Source) Invoke(ctx context.Context, name string, args map[string]any) (*mcpcli.ToolResult, error) {
	if err := mcpcli.ValidateToolName(name); err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("remote: encode arguments: %v: %w", err, mcpcli.ErrInvalidArguments)
	}

	endpoint := s.baseURL + toolPath + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: %w: %w", mcpcli.ErrRemoteTool, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	s.logger.Debug().Str("tool", name).Str("url", endpoint).Msg("invoking remote tool")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("remote: %s: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("remote: %s: %w: %w", name, mcpcli.ErrRemoteTool, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: %s: read body: %w: %w", name, mcpcli.ErrRemoteTool, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("remote: %s: HTTP %d: %s: %w", name, resp.StatusCode, snippet(data), mcpcli.ErrRemoteTool)
	}
	return &mcpcli.ToolResult{Value: parseBody(data)}, nil
}

// parseBody decodes a JSON body into plain Go values and falls back to the
// raw text for anything else.
func parseBody(data []byte) any {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ""
	}
	if gjson.ValidBytes(trimmed) {
		return gjson.ParseBytes(trimmed).Value()
	}
	return string(data)
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
