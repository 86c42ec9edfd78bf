package llm

import (
	"context"
	"encoding/json"
)

// Message represents a chat message exchanged with an LLM.
type Message struct {
	Role       string     `json:"role"`                   // "user", "assistant", "system", "tool"
	Content    string     `json:"content"`                // The message text
	Name       string     `json:"name,omitempty"`         // Tool name when role="tool"
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // Tool calls returned by the model
	ToolCallID string     `json:"tool_call_id,omitempty"` // When role="tool", the ID of the call this responds to
}

// ToolDefinition describes a tool for Function Calling.
// Parameters follows OpenAI JSON Schema format.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// ToolCall represents a single tool call returned by the model.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Response is the provider-neutral result of a chat completion.
type Response struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"` // "stop", "tool_calls", "length", "error"
	Usage        Usage      `json:"usage,omitempty"`
}

// Usage holds token accounting when the provider reports it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatOptions carries per-call generation parameters.
type ChatOptions struct {
	Temperature float32
	MaxTokens   int
}

// Client is the interface all LLM providers implement.
// Providers without native function calling simulate tool calls through
// the text protocol in protocol.go.
type Client interface {
	// Chat sends messages (optionally with tool definitions) and returns
	// the model's response. Tool calls, when present, are already parsed.
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition, opts ChatOptions) (Response, error)

	// Close releases underlying resources.
	Close() error
}

// Role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// FormatToolResult packs a tool execution result into a tool message.
func FormatToolResult(toolCallID, name string, result map[string]any) Message {
	data, err := json.Marshal(result)
	if err != nil {
		data = []byte(`{"success":false,"error":"unserializable tool result"}`)
	}
	return Message{
		Role:       RoleTool,
		Content:    string(data),
		ToolCallID: toolCallID,
		Name:       name,
	}
}
