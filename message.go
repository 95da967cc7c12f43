package mcpcli

import "time"

// Message is a sealed interface representing one turn of the conversation.
// The unexported marker method prevents external implementations.
// Role() returns the message's role without requiring a type switch.
type Message interface {
	isMessage()
	Role() Role
}

// UserMessage is text the operator typed.
type UserMessage struct {
	Content   string
	Timestamp time.Time
}

func (UserMessage) isMessage() {}

// Role returns RoleUser.
func (UserMessage) Role() Role { return RoleUser }

// AssistantMessage is text produced by the generation endpoint. IsError
// marks an inline generation failure; Content then holds the error text.
type AssistantMessage struct {
	Content    string
	Model      string
	StopReason StopReason
	Usage      Usage
	IsError    bool
	Timestamp  time.Time
}

func (AssistantMessage) isMessage() {}

// Role returns RoleAssistant.
func (AssistantMessage) Role() Role { return RoleAssistant }

// ToolMessage records one tool invocation: what was called, with which
// arguments, and what came back. IsError marks a failed invocation; Content
// then holds the error text and Result is nil.
type ToolMessage struct {
	CallID    string
	ToolName  string
	Arguments map[string]any
	Result    any
	Content   string
	IsError   bool
	Timestamp time.Time
}

func (ToolMessage) isMessage() {}

// Role returns RoleTool.
func (ToolMessage) Role() Role { return RoleTool }

// Interface compliance checks.
var (
	_ Message = UserMessage{}
	_ Message = AssistantMessage{}
	_ Message = ToolMessage{}
)
