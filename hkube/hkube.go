// Package hkube is the built-in local tool module. Its exported methods are
// registered with local.FromModule and talk to the HKube REST API at the
// endpoints named in the configuration.
package hkube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/config"
	"github.com/fwojciec/mcpcli/local"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Endpoint keys looked up in config.Config.APIPaths.
const (
	KeyAlgorithms = "algorithms"
	KeyPipelines  = "pipelines"
	KeyExec       = "exec"
)

// InstructionsResource is the resource served by get_instructions.
const InstructionsResource = "assistant_instructions"

const maxErrorBody = 512

// Module holds the tools. The zero value is not usable; call New.
type Module struct {
	cfg        config.Config
	resources  mcpcli.ResourceStore
	httpClient *http.Client
	now        func() time.Time
	logger     zerolog.Logger
}

// Option configures a [Module].
type Option func(*Module)

// WithHTTPClient sets the client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Module) { m.httpClient = hc }
}

// WithResources sets the store behind the resource tools.
func WithResources(rs mcpcli.ResourceStore) Option {
	return func(m *Module) { m.resources = rs }
}

// WithClock overrides time.Now for default search ranges.
func WithClock(now func() time.Time) Option {
	return func(m *Module) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Module) { m.logger = l }
}

// New creates a Module. Endpoints are resolved per call, so a config
// without hkube_api_url still serves the resource tools.
func New(cfg config.Config, opts ...Option) *Module {
	m := &Module{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		now:        time.Now,
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// ToolDescriptions implements local.Describer.
func (m *Module) ToolDescriptions() map[string]string {
	return map[string]string{
		"list_algorithms":  "Retrieve stored algorithm definitions from the hkube store API and return them as JSON.",
		"list_pipelines":   "Retrieve stored pipelines from the hkube store.",
		"create_pipeline":  "Create a new pipeline in hkube by providing a pipeline JSON.",
		"search_jobs":      "Search the hkube exec API for jobs matching filters and return the results.",
		"get_instructions": "Read the assistant instructions. Use available tools first, then resources, then general knowledge.",
		"list_resources":   "Return a newline-separated list of available resource names.",
		"read_resource":    "Return the content of a resource given a name or partial name.",
		"say_hello":        "Return a greeting. Useful to check that tools work.",
	}
}

// ListAlgorithms fetches the algorithm store.
func (m *Module) ListAlgorithms(context.Context) *local.Future[any] {
	return local.Suspend(func(ctx context.Context) (any, error) {
		return m.do(ctx, http.MethodGet, KeyAlgorithms, "", nil)
	})
}

// ListPipelines fetches the pipeline store.
func (m *Module) ListPipelines(context.Context) *local.Future[any] {
	return local.Suspend(func(ctx context.Context) (any, error) {
		return m.do(ctx, http.MethodGet, KeyPipelines, "", nil)
	})
}

// CreatePipelineArgs carries the pipeline descriptor to store.
type CreatePipelineArgs struct {
	Pipeline map[string]any `json:"pipeline_json" jsonschema:"description=Pipeline descriptor as accepted by the hkube store API"`
}

// CreatePipeline posts a pipeline descriptor to the pipeline store.
func (m *Module) CreatePipeline(_ context.Context, in CreatePipelineArgs) *local.Future[any] {
	return local.Suspend(func(ctx context.Context) (any, error) {
		return m.do(ctx, http.MethodPost, KeyPipelines, "", in.Pipeline)
	})
}

// SayHelloArgs names who to greet.
type SayHelloArgs struct {
	Name string `json:"name,omitempty"`
}

// SayHello returns a greeting.
func (m *Module) SayHello(_ context.Context, in SayHelloArgs) (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "world"
	}
	return fmt.Sprintf("Hello, %s!", name), nil
}

// do calls the endpoint registered under key, with suffix appended, and
// decodes a JSON reply. Non-JSON replies are returned as text.
func (m *Module) do(ctx context.Context, method, key, suffix string, payload any) (any, error) {
	endpoint, err := m.cfg.Endpoint(key)
	if err != nil {
		return nil, err
	}
	endpoint += suffix

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, endpoint, err)
	}
	m.logger.Debug().
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("hkube request")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: HTTP %d: %s", method, endpoint, resp.StatusCode, snippet(data))
	}
	if gjson.ValidBytes(data) {
		return gjson.ParseBytes(data).Value(), nil
	}
	return string(data), nil
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
