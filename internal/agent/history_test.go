package agent

import (
	"testing"
)

func TestHistoryToTestSteps(t *testing.T) {
	history := []StepRecord{
		{ToolName: "get_page_structure"},
		{ToolName: "fill", ToolArgs: map[string]any{"selector": "#q", "value": "laptop"}},
		{ToolName: "press_key", ToolArgs: map[string]any{"key": "Enter"}},
		{ToolName: "screenshot"},
		{ToolName: "click", ToolArgs: map[string]any{"selector": "#buy"}, Error: "element not found"},
		{ToolName: "click_text", ToolArgs: map[string]any{"text": "Add to Cart"}},
		{ToolName: "scroll", ToolArgs: map[string]any{"direction": "down", "amount": float64(800)}},
	}

	steps := historyToTestSteps(history, "https://shop.example")
	if len(steps) != 5 {
		t.Fatalf("steps = %d, want 5: %+v", len(steps), steps)
	}
	if steps[0].Action != "navigate" || steps[0].Value != "https://shop.example" {
		t.Errorf("missing initial navigate: %+v", steps[0])
	}
	if steps[1].Action != "fill" || steps[1].Selector != "#q" || steps[1].Value != "laptop" {
		t.Errorf("fill = %+v", steps[1])
	}
	if steps[2].Action != "press" || steps[2].Value != "Enter" {
		t.Errorf("press = %+v", steps[2])
	}
	if steps[3].Action != "click_text" || steps[3].Value != "Add to Cart" || steps[3].Selector != "" {
		t.Errorf("click_text = %+v", steps[3])
	}
	if steps[4].Action != "scroll" || steps[4].Value != "down:800" {
		t.Errorf("scroll = %+v", steps[4])
	}
}

func TestHistoryToTestStepsDeduplicates(t *testing.T) {
	history := []StepRecord{
		{ToolName: "click", ToolArgs: map[string]any{"selector": "#submit"}},
		{ToolName: "click", ToolArgs: map[string]any{"selector": "#submit"}},
		{ToolName: "click", ToolArgs: map[string]any{"selector": "#other"}},
	}
	steps := historyToTestSteps(history, "https://example.com")
	if len(steps) != 3 {
		t.Fatalf("steps = %d, want 3 (navigate + 2 clicks): %+v", len(steps), steps)
	}
}

func TestHistoryToTestStepsFindAndClickFallsBackToTarget(t *testing.T) {
	history := []StepRecord{
		{ToolName: "find_and_click", ToolArgs: map[string]any{"target": "Sign In"}},
		{ToolName: "wait", ToolArgs: map[string]any{"timeout": float64(2000)}},
		{ToolName: "click_nth", ToolArgs: map[string]any{"selector": ".result", "index": float64(2)}},
	}
	steps := historyToTestSteps(history, "https://example.com")
	if steps[1].Action != "click_text" || steps[1].Value != "Sign In" {
		t.Errorf("find_and_click = %+v", steps[1])
	}
	if steps[2].Action != "wait" || steps[2].Value != "2000" {
		t.Errorf("wait = %+v", steps[2])
	}
	if steps[3].Action != "click_nth" || steps[3].Selector != ".result" || steps[3].Value != "2" {
		t.Errorf("click_nth = %+v", steps[3])
	}
}

func TestIntFromArg(t *testing.T) {
	if intFromArg(float64(7), 0) != 7 || intFromArg(3, 0) != 3 || intFromArg("42", 0) != 42 {
		t.Error("numeric coercion failed")
	}
	if intFromArg("nope", 9) != 9 || intFromArg(nil, 9) != 9 {
		t.Error("fallback not applied")
	}
}
