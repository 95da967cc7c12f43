// Package json exports a session transcript as a JSON document.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/mcpcli"
)

// Version is the transcript format version written by Marshal.
const Version = 1

// Transcript is a finished session as exported to disk.
type Transcript struct {
	ID         string
	Model      string
	Provider   string
	ExportedAt time.Time
	Messages   []mcpcli.Message
}

// envelope is the v1 wire format for an exported transcript.
type envelope struct {
	Version    int          `json:"version"`
	ID         string       `json:"id"`
	Model      string       `json:"model,omitempty"`
	Provider   string       `json:"provider,omitempty"`
	ExportedAt time.Time    `json:"exported_at"`
	Messages   []messageDTO `json:"messages"`
}

// messageDTO is the JSON representation of a Message with a type discriminator.
type messageDTO struct {
	Type       string         `json:"type"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	Model      *string        `json:"model,omitempty"`
	StopReason *string        `json:"stop_reason,omitempty"`
	Usage      *usageDTO      `json:"usage,omitempty"`
	CallID     *string        `json:"call_id,omitempty"`
	ToolName   *string        `json:"tool_name,omitempty"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	Result     any            `json:"result,omitempty"`
	IsError    *bool          `json:"is_error,omitempty"`
}

type usageDTO struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Marshal serializes a Transcript in v1 envelope format.
func Marshal(t Transcript) ([]byte, error) {
	env := envelope{
		Version:    Version,
		ID:         t.ID,
		Model:      t.Model,
		Provider:   t.Provider,
		ExportedAt: t.ExportedAt,
		Messages:   make([]messageDTO, len(t.Messages)),
	}
	for i, msg := range t.Messages {
		dto, err := marshalMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		env.Messages[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// Save writes a Transcript to path, creating parent directories as needed.
// The file is replaced atomically.
func Save(path string, t Transcript) error {
	data, err := Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func marshalMessage(msg mcpcli.Message) (messageDTO, error) {
	switch m := msg.(type) {
	case mcpcli.UserMessage:
		return messageDTO{
			Type:      "user",
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}, nil
	case mcpcli.AssistantMessage:
		sr := string(m.StopReason)
		dto := messageDTO{
			Type:       "assistant",
			Content:    m.Content,
			Timestamp:  m.Timestamp,
			Model:      &m.Model,
			StopReason: &sr,
		}
		if m.Usage.Total() > 0 {
			dto.Usage = &usageDTO{InputTokens: m.Usage.InputTokens, OutputTokens: m.Usage.OutputTokens}
		}
		if m.IsError {
			dto.IsError = &m.IsError
		}
		return dto, nil
	case mcpcli.ToolMessage:
		return messageDTO{
			Type:      "tool",
			Content:   m.Content,
			Timestamp: m.Timestamp,
			CallID:    &m.CallID,
			ToolName:  &m.ToolName,
			Arguments: m.Arguments,
			Result:    m.Result,
			IsError:   &m.IsError,
		}, nil
	default:
		return messageDTO{}, fmt.Errorf("unknown message type: %T: %w", msg, mcpcli.ErrValidation)
	}
}
