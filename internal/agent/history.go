package agent

import (
	"fmt"
	"strconv"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/codegen"
)

// nonActionableTools produce no test code: they observe the page rather
// than change it.
var nonActionableTools = map[string]bool{
	"screenshot":         true,
	"get_page_structure": true,
	"extract_text":       true,
	"extract_all_text":   true,
	"get_page_info":      true,
	"is_visible":         true,
	"count_elements":     true,
	"extract_attribute":  true,
}

// toolToAction maps tool names to test plan actions.
var toolToAction = map[string]string{
	"navigate":          "navigate",
	"click":             "click",
	"click_text":        "click_text",
	"click_nth":         "click_nth",
	"find_and_click":    "click_text",
	"fill":              "fill",
	"type_text":         "type",
	"press_key":         "press",
	"hover":             "hover",
	"select_option":     "select",
	"check":             "check",
	"uncheck":           "uncheck",
	"scroll":            "scroll",
	"scroll_to_element": "scroll_to",
	"wait":              "wait",
	"wait_for_element":  "wait_for",
	"double_click":      "double_click",
}

// historyToTestSteps converts executed steps into a test plan. Failed
// steps, observation-only tools, and duplicate actions are dropped. The
// plan always opens with a navigate to the starting URL.
func historyToTestSteps(history []StepRecord, url string) []codegen.TestStep {
	steps := []codegen.TestStep{{Action: "navigate", Value: url}}
	seen := map[string]bool{}

	for _, record := range history {
		if record.Error != "" || record.ToolName == "" || nonActionableTools[record.ToolName] {
			continue
		}
		action, ok := toolToAction[record.ToolName]
		if !ok {
			continue
		}

		args := record.ToolArgs
		if args == nil {
			args = map[string]any{}
		}
		selector, _ := args["selector"].(string)
		value := ""

		switch record.ToolName {
		case "navigate":
			value, _ = args["url"].(string)
			selector = ""
		case "fill":
			value, _ = args["value"].(string)
		case "type_text":
			value, _ = args["text"].(string)
		case "press_key":
			value, _ = args["key"].(string)
		case "click_text", "find_and_click":
			value, _ = args["text"].(string)
			if value == "" {
				value, _ = args["target"].(string)
			}
			selector = ""
		case "click_nth":
			value = strconv.Itoa(intFromArg(args["index"], 0))
		case "select_option":
			value, _ = args["value"].(string)
			if value == "" {
				value, _ = args["label"].(string)
			}
		case "scroll":
			direction, _ := args["direction"].(string)
			if direction == "" {
				direction = "down"
			}
			value = fmt.Sprintf("%s:%d", direction, intFromArg(args["amount"], 500))
			selector = ""
		case "wait":
			value = strconv.Itoa(intFromArg(args["timeout"], 1000))
			selector = ""
		}

		key := action + ":" + selector + ":" + value
		if seen[key] {
			continue
		}
		seen[key] = true

		steps = append(steps, codegen.TestStep{
			Action:   action,
			Selector: selector,
			Value:    value,
		})
	}
	return steps
}

// intFromArg coerces JSON numbers (decoded as float64) and strings.
func intFromArg(v any, fallback int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return fallback
}
