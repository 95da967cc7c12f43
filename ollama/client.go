package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/mcpcli"
	"github.com/rs/zerolog"
)

// Interface compliance check.
var _ mcpcli.Generator = (*Client)(nil)

// Client implements [mcpcli.Generator] for /api/generate.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Timeouts and TLS verification
// are the client's concern.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a [Client] for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate sends req and returns a stream over the response fragments.
// It does not retry.
func (c *Client) Generate(ctx context.Context, req mcpcli.GenerateRequest) (mcpcli.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	body, err := json.Marshal(apiRequest{
		Model:  req.Model,
		Prompt: ConvertPrompt(req.Messages()),
		Stream: req.Stream,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: %w", mcpcli.ErrGeneration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("model", req.Model).Bool("stream", req.Stream).Int("turns", len(req.History)).Msg("generate")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ollama: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ollama: %w: %w", mcpcli.ErrGeneration, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	return newStream(ctx, resp.Body, !req.Stream), nil
}

// ConvertPrompt flattens msgs into the single prompt string the endpoint
// takes. A lone user message is sent verbatim; longer conversations are
// rendered as a transcript ending with an assistant cue.
func ConvertPrompt(msgs []mcpcli.Message) string {
	if len(msgs) == 1 {
		if m, ok := msgs[0].(mcpcli.UserMessage); ok {
			return m.Content
		}
	}
	return mcpcli.Transcript(msgs) + "\n\nAssistant:"
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ollama: HTTP %d (failed to read body: %v): %w", resp.StatusCode, err, mcpcli.ErrGeneration)
	}
	var chunk apiChunk
	if err := json.Unmarshal(body, &chunk); err == nil && chunk.Error != "" {
		return fmt.Errorf("ollama: HTTP %d: %s: %w", resp.StatusCode, chunk.Error, mcpcli.ErrGeneration)
	}
	return fmt.Errorf("ollama: HTTP %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(body)), mcpcli.ErrGeneration)
}
