package tool

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
)

// Registry manages all registered tools with thread-safe access.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string // registration order, used for prompt generation
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool to the registry. If a tool with the same name
// already exists, it is overwritten and a warning is logged.
func (r *Registry) Register(t *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		log.Printf("[Registry] WARNING: overwriting existing tool %q", t.Name)
	} else {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all tools in registration order.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// GenerateToolDefinitions creates function-calling-compatible definitions
// for every registered tool.
func (r *Registry) GenerateToolDefinitions() []llm.ToolDefinition {
	tools := r.List()
	defs := make([]llm.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = t.Definition()
	}
	return defs
}

// GenerateToolsPrompt creates a category-grouped description of all tools
// for injection into LLM system prompts.
func (r *Registry) GenerateToolsPrompt() string {
	tools := r.List()
	if len(tools) == 0 {
		return "(no tools available)"
	}

	byCategory := make(map[string][]*Tool)
	var categories []string
	for _, t := range tools {
		if _, seen := byCategory[t.Category]; !seen {
			categories = append(categories, t.Category)
		}
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}

	var sb strings.Builder
	sb.WriteString("Available browser automation tools:\n")
	for _, category := range categories {
		sb.WriteString(fmt.Sprintf("\n## %s Tools\n", titleCase(category)))
		for _, t := range byCategory[category] {
			params := make([]string, 0, len(t.Params))
			for _, p := range t.Params {
				opt := ""
				if !p.Required {
					opt = "?"
				}
				params = append(params, fmt.Sprintf("%s: %s%s", p.Name, p.Type, opt))
			}
			sb.WriteString(fmt.Sprintf("- **%s**(%s): %s\n", t.Name, strings.Join(params, ", "), t.Description))
		}
	}
	return sb.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
