package gemini

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/fwojciec/mcpcli"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ mcpcli.Generator = (*Client)(nil)

// Client implements [mcpcli.Generator] for the Google Gemini API.
type Client struct {
	client     *genai.Client
	model      string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model used when a request names none.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient sets the HTTP client the SDK uses.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	c := &Client{model: defaultModel}
	for _, o := range opts {
		o(c)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.client = gc
	return c, nil
}

// Generate sends req to the Gemini API.
func (c *Client) Generate(ctx context.Context, req mcpcli.GenerateRequest) (mcpcli.Stream, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	contents := ConvertMessages(req.Messages())

	if req.Stream {
		return NewStreamFromIter(ctx, c.client.Models.GenerateContentStream(ctx, req.Model, contents, nil)), nil
	}
	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, nil)
	return NewStreamFromIter(ctx, single(resp, err)), nil
}

// single presents one reply as an iterator so both modes share a stream.
func single(resp *genai.GenerateContentResponse, err error) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		yield(resp, err)
	}
}

// ConvertMessages converts the conversation to genai Contents. Tool turns
// are sent as user text and error turns are dropped.
// Exported for testing.
func ConvertMessages(msgs []mcpcli.Message) []*genai.Content {
	var result []*genai.Content
	for _, msg := range msgs {
		switch m := msg.(type) {
		case mcpcli.UserMessage:
			result = append(result, genai.NewContentFromText(m.Content, genai.RoleUser))
		case mcpcli.AssistantMessage:
			if m.IsError {
				continue
			}
			result = append(result, genai.NewContentFromText(m.Content, genai.RoleModel))
		case mcpcli.ToolMessage:
			text := fmt.Sprintf("Tool %s returned:\n%s", m.ToolName, m.Content)
			result = append(result, genai.NewContentFromText(text, genai.RoleUser))
		}
	}
	return result
}
