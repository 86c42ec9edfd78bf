// Package tool defines the browser automation tools exposed to the LLM
// and the executor that dispatches model tool calls onto a browser.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/browser"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
)

// Param describes a single tool parameter for the JSON schema shown to
// the LLM.
type Param struct {
	Name        string
	Type        string // "string", "integer", "boolean", "array", "object"
	Description string
	Required    bool
	Default     any
	Enum        []string
}

// Handler executes a tool against the browser.
type Handler func(ctx context.Context, args map[string]any) (browser.Result, error)

// Tool is a single browser automation capability: a schema the LLM sees
// and the handler that runs it.
type Tool struct {
	Name        string
	Description string
	Category    string
	Params      []Param
	Handler     Handler
}

// InputSchema generates a standard JSON Schema object from the parameter
// list. Compatible with OpenAI Function Calling and MCP.
func (t *Tool) InputSchema() json.RawMessage {
	properties := make(map[string]any, len(t.Params))
	required := []string{}

	for _, p := range t.Params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	data, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	})
	return data
}

// Definition converts the tool to the provider-neutral form.
func (t *Tool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.InputSchema(),
	}
}

// ValidateArgs checks that all required parameters are present.
func (t *Tool) ValidateArgs(args map[string]any) error {
	for _, p := range t.Params {
		if !p.Required {
			continue
		}
		if _, ok := args[p.Name]; !ok {
			return fmt.Errorf("missing required parameter %q", p.Name)
		}
	}
	return nil
}

// ── Argument accessors ──
//
// Model-produced arguments arrive as map[string]any with JSON types:
// numbers are float64 and booleans occasionally come quoted.

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return fallback
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}

func boolArg(args map[string]any, key string, fallback bool) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		switch v {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return fallback
}
