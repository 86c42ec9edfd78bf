package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/browser"
)

func TestExecutorUnknownTool(t *testing.T) {
	e := NewExecutor(NewRegistry())
	result := e.Execute(context.Background(), "teleport", nil)
	if result["success"] != false {
		t.Fatalf("result = %v", result)
	}
	if !strings.Contains(result["error"].(string), "Unknown tool: teleport") {
		t.Errorf("error = %v", result["error"])
	}
}

func TestExecutorMissingRequiredArg(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("fill", "input",
		Param{Name: "selector", Type: "string", Required: true},
		Param{Name: "value", Type: "string", Required: true},
	))
	e := NewExecutor(r)

	result := e.Execute(context.Background(), "fill", map[string]any{"selector": "#a"})
	if result["success"] != false {
		t.Fatalf("result = %v", result)
	}
	if !strings.Contains(result["error"].(string), `"value"`) {
		t.Errorf("error = %v", result["error"])
	}
	if result["tool"] != "fill" {
		t.Errorf("tool tag = %v", result["tool"])
	}
}

func TestExecutorTagsResultWithToolName(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("reload", "navigation"))
	e := NewExecutor(r)

	result := e.Execute(context.Background(), "reload", nil)
	if result["success"] != true || result["tool"] != "reload" {
		t.Fatalf("result = %v", result)
	}
}

func TestExecutorHandlerErrorBecomesResult(t *testing.T) {
	r := NewRegistry()
	r.Register(&Tool{
		Name:     "navigate",
		Category: "navigation",
		Params:   []Param{{Name: "url", Type: "string", Required: true}},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return nil, errors.New("net::ERR_NAME_NOT_RESOLVED")
		},
	})
	e := NewExecutor(r)

	result := e.Execute(context.Background(), "navigate", map[string]any{"url": "https://nope.invalid"})
	if result["success"] != false {
		t.Fatalf("result = %v", result)
	}
	if !strings.Contains(result["error"].(string), "ERR_NAME_NOT_RESOLVED") {
		t.Errorf("error = %v", result["error"])
	}
}

func TestBrowserRegistryCatalogue(t *testing.T) {
	r := NewBrowserRegistry(nil)

	expected := []string{
		"navigate", "go_back", "go_forward", "reload",
		"click", "click_text", "click_nth", "double_click", "hover",
		"dismiss_overlays", "find_and_click",
		"fill", "type_text", "press_key", "select_option", "check", "uncheck",
		"scroll", "scroll_to_element",
		"wait_for_element", "wait",
		"extract_text", "extract_attribute", "extract_all_text",
		"count_elements", "is_visible", "extract_modal_content",
		"get_page_info", "get_page_structure", "screenshot",
	}
	for _, name := range expected {
		if _, ok := r.Get(name); !ok {
			t.Errorf("catalogue missing tool %s", name)
		}
	}
	if got := len(r.Names()); got != len(expected) {
		t.Errorf("catalogue has %d tools, want %d", got, len(expected))
	}

	defs := r.GenerateToolDefinitions()
	if len(defs) != len(expected) {
		t.Errorf("definitions = %d", len(defs))
	}
	for _, def := range defs {
		if def.Description == "" {
			t.Errorf("tool %s has no description", def.Name)
		}
	}
}
