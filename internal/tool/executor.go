package tool

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/browser"
)

// Executor runs tool calls produced by the LLM against the registry.
// Failures never propagate as errors: they come back as structured
// results so the model can read what went wrong and adjust.
type Executor struct {
	registry *Registry
}

// NewExecutor creates an executor over a registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Registry exposes the underlying registry for prompt and definition
// generation.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute runs one tool call. The returned result always carries a
// "success" flag and the tool name.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) browser.Result {
	t, ok := e.registry.Get(name)
	if !ok {
		return browser.Result{
			"success": false,
			"error":   fmt.Sprintf("Unknown tool: %s. Available tools: %s", name, strings.Join(e.registry.Names(), ", ")),
		}
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := t.ValidateArgs(args); err != nil {
		return browser.Result{
			"success": false,
			"tool":    name,
			"error":   err.Error(),
		}
	}

	log.Printf("[Executor] %s %v", name, args)
	result, err := t.Handler(ctx, args)
	if err != nil {
		log.Printf("[Executor] %s failed: %v", name, err)
		return browser.Result{
			"success": false,
			"tool":    name,
			"error":   err.Error(),
		}
	}
	if result == nil {
		result = browser.Result{"success": true}
	}
	result["tool"] = name
	return result
}
