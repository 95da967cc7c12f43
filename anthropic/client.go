package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/mcpcli"
)

// Interface compliance check.
var _ mcpcli.Generator = (*Client)(nil)

// Client implements [mcpcli.Generator] for the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate sends req to the Messages API. An empty model selects the
// package default.
func (c *Client) Generate(ctx context.Context, req mcpcli.GenerateRequest) (mcpcli.Stream, error) {
	if req.Model == "" {
		req.Model = defaultModel
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	body, err := json.Marshal(apiRequest{
		Model:     req.Model,
		MaxTokens: defaultMaxTokens,
		Stream:    req.Stream,
		Messages:  convertMessages(req.Messages()),
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w: %w", mcpcli.ErrGeneration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("anthropic: %w", ctx.Err())
		}
		return nil, fmt.Errorf("anthropic: %w: %w", mcpcli.ErrGeneration, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	if !req.Stream {
		defer resp.Body.Close()
		return decodeMessage(resp.Body)
	}
	return newStream(ctx, resp.Body), nil
}

// convertMessages maps the history onto alternating user and assistant
// messages. Tool turns are sent as user text, and consecutive turns of the
// same role are merged into one message.
func convertMessages(msgs []mcpcli.Message) []apiMessage {
	var result []apiMessage
	add := func(role, text string) {
		block := apiContentBlock{Type: "text", Text: text}
		if n := len(result); n > 0 && result[n-1].Role == role {
			result[n-1].Content = append(result[n-1].Content, block)
			return
		}
		result = append(result, apiMessage{Role: role, Content: []apiContentBlock{block}})
	}
	for _, msg := range msgs {
		switch m := msg.(type) {
		case mcpcli.UserMessage:
			add("user", m.Content)
		case mcpcli.AssistantMessage:
			if m.IsError {
				continue
			}
			add("assistant", m.Content)
		case mcpcli.ToolMessage:
			add("user", fmt.Sprintf("Tool %s returned:\n%s", m.ToolName, m.Content))
		}
	}
	return result
}

func decodeMessage(body io.Reader) (mcpcli.Stream, error) {
	var msg apiResponse
	if err := json.NewDecoder(body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("anthropic: malformed response: %w: %w", mcpcli.ErrGeneration, err)
	}
	resp := mcpcli.GenerateResponse{
		Model: msg.Model,
		Done:  true,
		Usage: mcpcli.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
		StopReason: mcpcli.StopUnknown,
	}
	for _, b := range msg.Content {
		if b.Type == "text" {
			resp.Text += b.Text
		}
	}
	if msg.StopReason != nil {
		resp.StopReason = mapStopReason(*msg.StopReason)
	}
	return newMessageStream(resp), nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %v): %w", resp.StatusCode, err, mcpcli.ErrGeneration)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("anthropic: HTTP %d: %s: %w", resp.StatusCode, string(body), mcpcli.ErrGeneration)
	}
	return fmt.Errorf("anthropic: %s: %s: %w", apiErr.Error.Type, apiErr.Error.Message, mcpcli.ErrGeneration)
}
