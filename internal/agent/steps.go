package agent

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
)

// TaskStep is one atomic step of a decomposed task plan.
type TaskStep struct {
	Number    int
	Action    string
	Target    string
	Value     string
	Completed bool
}

var (
	stepLineRe = regexp.MustCompile(`(?i)STEP\s*(\d+):\s*(.+)`)
	doneLineRe = regexp.MustCompile(`(?i)DONE:\s*(.+)`)
)

// ParseTaskSteps parses the decomposition output into steps and the
// completion criteria. Lines that do not match the step format are
// ignored.
func ParseTaskSteps(content string) ([]TaskStep, string) {
	var steps []TaskStep
	var done string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if m := stepLineRe.FindStringSubmatch(line); m != nil {
			number, _ := strconv.Atoi(m[1])
			parts := strings.SplitN(m[2], " - ", 3)
			if len(parts) < 2 {
				// Steps without a target are unusable.
				continue
			}
			step := TaskStep{
				Number: number,
				Action: strings.ToLower(strings.TrimSpace(parts[0])),
				Target: strings.TrimSpace(parts[1]),
			}
			if len(parts) > 2 {
				step.Value = strings.Trim(strings.TrimSpace(parts[2]), `"'`)
			}
			steps = append(steps, step)
			continue
		}
		if m := doneLineRe.FindStringSubmatch(line); m != nil {
			done = strings.TrimSpace(m[1])
		}
	}
	return steps, done
}

// DecomposeTask asks the LLM to break the task into explicit steps. A
// failed decomposition returns no steps; the caller falls back to
// unstructured execution.
func DecomposeTask(ctx context.Context, client llm.Client, task, url string) ([]TaskStep, string) {
	prompt := fmt.Sprintf(taskDecompositionPrompt, task, url)
	resp, err := client.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, nil, llm.ChatOptions{Temperature: 0.0})
	if err != nil {
		log.Printf("[Agent] Task decomposition failed: %v", err)
		return nil, ""
	}
	if resp.Content == "" {
		return nil, ""
	}
	return ParseTaskSteps(resp.Content)
}

// formatStepLine renders a step the way it appears in the structured plan.
func formatStepLine(s TaskStep) string {
	line := fmt.Sprintf("STEP %d: %s - %s", s.Number, s.Action, s.Target)
	if s.Value != "" {
		line += fmt.Sprintf(" - %q", s.Value)
	}
	return line
}

// buildStructuredPrompt renders the decomposed plan as an instruction
// block appended to the task.
func buildStructuredPrompt(steps []TaskStep, done string) string {
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = "  " + formatStepLine(s)
	}
	return fmt.Sprintf(`
## STRUCTURED TASK PLAN (follow these steps IN ORDER):
%s

## COMPLETION CRITERIA:
%s

IMPORTANT: Execute steps in order. After each step, verify it succeeded before moving to the next.
Current step: STEP 1
`, strings.Join(lines, "\n"), done)
}

// actionToTools maps plan actions to the tool names that can satisfy them.
var actionToTools = map[string][]string{
	"click":    {"click", "click_text", "click_nth", "find_and_click"},
	"fill":     {"fill", "type_text"},
	"type":     {"fill", "type_text"},
	"scroll":   {"scroll", "scroll_to_element"},
	"wait":     {"wait", "wait_for_element"},
	"navigate": {"navigate"},
	"press":    {"press_key"},
	"hover":    {"hover"},
	"select":   {"select_option"},
	"check":    {"check"},
	"uncheck":  {"uncheck"},
}

// toolMatchesStep reports whether a successful tool execution corresponds
// to a plan step. Values are matched fuzzily in both directions so that
// minor rephrasing by the model still counts.
func toolMatchesStep(toolName string, args map[string]any, step TaskStep) bool {
	action := strings.ToLower(step.Action)

	validTools, ok := actionToTools[action]
	if !ok {
		validTools = []string{action}
	}
	found := false
	for _, t := range validTools {
		if t == toolName {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	if (action == "fill" || action == "type") && step.Value != "" {
		toolValue, _ := args["value"].(string)
		if toolValue == "" {
			toolValue, _ = args["text"].(string)
		}
		if !fuzzyContains(step.Value, toolValue) {
			return false
		}
	}

	if toolName == "click_text" && step.Target != "" {
		toolText, _ := args["text"].(string)
		if !fuzzyContains(step.Target, toolText) {
			return false
		}
	}

	return true
}

// fuzzyContains reports whether either string contains the other,
// case-insensitively.
func fuzzyContains(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}
