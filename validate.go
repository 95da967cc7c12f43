package mcpcli

import (
	"fmt"
	"regexp"
)

// Validate checks universal constraints on GenerateRequest.
// Generator implementations may apply additional endpoint-specific validation.
func (r GenerateRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("model is required: %w", ErrValidation)
	}
	if r.Prompt == "" && len(r.History) == 0 {
		return fmt.Errorf("prompt or history is required: %w", ErrValidation)
	}
	for i, m := range r.History {
		if err := ValidateMessage(m); err != nil {
			return fmt.Errorf("history[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateMessage checks that a message carries what its role requires.
func ValidateMessage(msg Message) error {
	switch m := msg.(type) {
	case UserMessage:
		return nil
	case AssistantMessage:
		return nil
	case ToolMessage:
		if m.ToolName == "" {
			return fmt.Errorf("tool message without tool name: %w", ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("unknown message type %T: %w", msg, ErrValidation)
	}
}

var toolNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]{0,127}$`)

// ValidateToolName reports whether name is safe to use as a registry key
// and as a single URL path segment.
func ValidateToolName(name string) error {
	if !toolNameRe.MatchString(name) {
		return fmt.Errorf("invalid tool name %q: %w", name, ErrInvalidArguments)
	}
	return nil
}
