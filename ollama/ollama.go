// Package ollama implements [mcpcli.Generator] for the /api/generate
// endpoint of an Ollama-compatible server.
//
// The endpoint answers with a single JSON object when streaming is off and
// with newline-delimited JSON objects when it is on. Both shapes are read
// by the same decoder loop, so a non-streamed answer is simply a stream of
// one fragment.
package ollama

const (
	generatePath = "/api/generate"

	// DefaultModel is used when the caller does not pick a model.
	DefaultModel = "gpt-oss:20b"
)

// apiRequest is the JSON body sent to /api/generate.
type apiRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// apiChunk is one response object. A streamed answer is a sequence of
// chunks, the last with Done set.
type apiChunk struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}
