package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/browser"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/codegen"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/tool"
)

// Config controls a single agent run.
type Config struct {
	MaxSteps         int
	ScreenshotOnStep bool
	Headless         bool
	ViewportWidth    int
	ViewportHeight   int

	Framework codegen.Framework
	Language  codegen.Language

	// UseBoostPrompt enhances the task with an LLM planning pass before
	// execution. Disable for simpler, more predictable behavior.
	UseBoostPrompt bool
	// UseStructuredExecution decomposes the task into explicit steps and
	// tracks progress against them. Takes precedence over boosting.
	UseStructuredExecution bool

	Temperature float32
	StepDelay   time.Duration
}

// DefaultConfig returns the standard agent configuration.
func DefaultConfig() Config {
	return Config{
		MaxSteps:         30,
		ScreenshotOnStep: true,
		Headless:         true,
		ViewportWidth:    1280,
		ViewportHeight:   720,
		Framework:        codegen.FrameworkPlaywright,
		Language:         codegen.LanguageTypeScript,
		UseBoostPrompt:   true,
		Temperature:      0.0,
		StepDelay:        500 * time.Millisecond,
	}
}

// StepRecord captures one executed tool call.
type StepRecord struct {
	StepNumber  int
	ToolName    string
	ToolArgs    map[string]any
	ToolResult  browser.Result
	LLMResponse string
	Screenshot  string
	Timestamp   time.Time
	Error       string
}

// actionableTools are tools that change page state. A task cannot be
// marked complete until at least one of them succeeded; otherwise the
// agent only looked around.
var actionableTools = map[string]bool{
	"click":         true,
	"fill":          true,
	"submit":        true,
	"press_key":     true,
	"check":         true,
	"select_option": true,
}

// screenshotAfter lists tools whose effect is worth capturing visually.
var screenshotAfter = map[string]bool{
	"navigate":       true,
	"click":          true,
	"fill":           true,
	"scroll":         true,
	"click_text":     true,
	"find_and_click": true,
}

// Agent drives a browser through an LLM-planned loop: observe the page,
// ask the model for the next action, execute it, repeat until the model
// declares completion or the step budget runs out.
type Agent struct {
	llm llm.Client
	cfg Config

	browser  *browser.Browser
	executor *tool.Executor

	history  []StepRecord
	messages []llm.Message

	idleTurns   int
	repeatCount int
	lastToolKey string

	taskSteps    []TaskStep
	currentStep  int
	doneCriteria string
}

// New creates an agent bound to an LLM client.
func New(client llm.Client, cfg Config) *Agent {
	return &Agent{llm: client, cfg: cfg}
}

// History returns the executed steps so far.
func (a *Agent) History() []StepRecord {
	return a.history
}

// Run executes the task against the given starting URL, emitting events
// as it goes. The run ends with exactly one complete or error event.
// Cancelling ctx stops the run at the next step boundary.
func (a *Agent) Run(ctx context.Context, task, url string, emit EmitFunc) {
	emit(logEvent(fmt.Sprintf("Starting agent for task: %s", task)))
	emit(logEvent(fmt.Sprintf("Target URL: %s", url)))

	opts := browser.DefaultOptions()
	opts.Headless = a.cfg.Headless
	opts.WindowWidth = a.cfg.ViewportWidth
	opts.WindowHeight = a.cfg.ViewportHeight

	b, err := browser.Launch(ctx, opts)
	if err != nil {
		emit(errorEvent(fmt.Sprintf("Agent error: %v", err)))
		return
	}
	defer func() {
		b.Close()
		emit(logEvent("Browser closed"))
	}()

	a.browser = b
	a.executor = tool.NewExecutor(tool.NewBrowserRegistry(b))
	emit(logEvent("Browser launched successfully"))

	emit(logEvent(fmt.Sprintf("Navigating to %s...", url)))
	navResult, err := b.Navigate(ctx, url)
	if err != nil {
		emit(errorEvent(fmt.Sprintf("Agent error: %v", err)))
		return
	}
	title, _ := navResult["title"].(string)
	if title == "" {
		title = "Unknown"
	}
	emit(logEvent(fmt.Sprintf("Page loaded: %s", title)))

	if a.cfg.ScreenshotOnStep {
		if ss, err := b.Screenshot(ctx, false); err == nil {
			data, _ := ss["screenshot"].(string)
			emit(Event{Type: EventScreenshot, Screenshot: data})
		}
	}

	finalTask := a.prepareTask(ctx, task, url, emit)

	a.messages = []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(
			"%s\n\nI have already navigated to %s. The page is loaded.\n\nStart executing the task immediately. Be efficient and follow the steps in order.",
			finalTask, url)},
	}

	tools := a.executor.Registry().GenerateToolDefinitions()

	stepCount := 0
	taskComplete := false
	errored := false

	for stepCount < a.cfg.MaxSteps && !taskComplete {
		if ctx.Err() != nil {
			emit(logEvent("Run cancelled"))
			break
		}
		stepCount++
		emit(logEvent(fmt.Sprintf("--- Step %d ---", stepCount)))

		resp, err := a.llm.Chat(ctx, a.messages, tools, llm.ChatOptions{Temperature: a.cfg.Temperature})
		if err != nil {
			emit(errorEvent(fmt.Sprintf("LLM error: %v", err)))
			errored = true
			break
		}

		if resp.Content != "" {
			emit(logEvent("Agent: " + truncateForLog(resp.Content, 500)))
		}

		if len(resp.ToolCalls) > 0 {
			a.idleTurns = 0
			calls := dedupToolCalls(resp.ToolCalls)

			if a.noteRepeat(calls) {
				emit(logEvent("Agent repeating same action - attempting recovery"))
				a.messages = append(a.messages, llm.Message{
					Role:    llm.RoleUser,
					Content: "You are repeating the same action. This isn't working. Try a DIFFERENT approach or use a different tool/selector.",
				})
				continue
			}

			a.messages = append(a.messages, llm.Message{
				Role:      llm.RoleAssistant,
				Content:   resp.Content,
				ToolCalls: calls,
			})

			for _, call := range calls {
				a.executeCall(ctx, stepCount, resp.Content, call, emit)
			}
		} else {
			if a.noteIdleTurn() {
				emit(errorEvent("Agent appears stuck - no tool calls for 5 consecutive turns"))
				errored = true
				break
			}

			a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
			taskComplete = a.handleCompletion(resp.Content, emit)
		}

		sleepCtx(ctx, a.cfg.StepDelay)
	}

	if errored {
		return
	}

	code := a.generateTestCode(task, url)
	emit(Event{Type: EventCode, Code: code})

	switch {
	case taskComplete:
		emit(Event{Type: EventComplete, Message: "Task completed successfully", Steps: stepCount})
	case stepCount >= a.cfg.MaxSteps:
		emit(Event{Type: EventComplete, Message: fmt.Sprintf("Reached maximum steps (%d)", a.cfg.MaxSteps), Steps: stepCount})
	default:
		emit(Event{Type: EventComplete, Message: "Agent stopped", Steps: stepCount})
	}
}

// prepareTask runs structured decomposition or prompt boosting and
// returns the task text handed to the execution loop.
func (a *Agent) prepareTask(ctx context.Context, task, url string, emit EmitFunc) string {
	if a.cfg.UseStructuredExecution {
		emit(logEvent("Decomposing task into structured steps..."))
		a.taskSteps, a.doneCriteria = DecomposeTask(ctx, a.llm, task, url)
		if len(a.taskSteps) > 0 {
			lines := make([]string, len(a.taskSteps))
			for i, s := range a.taskSteps {
				lines[i] = "  " + formatStepLine(s)
			}
			emit(logEvent(fmt.Sprintf("Task decomposed into %d steps:\n%s", len(a.taskSteps), strings.Join(lines, "\n"))))
			emit(logEvent("Completion criteria: " + a.doneCriteria))
			return task + "\n" + buildStructuredPrompt(a.taskSteps, a.doneCriteria)
		}
		emit(logEvent("Could not decompose task, using standard execution"))
	}

	if a.cfg.UseBoostPrompt {
		emit(logEvent("Enhancing task with LLM..."))
		boosted := BoostTask(ctx, a.llm, task, url)
		emit(Event{Type: EventBoostedPrompt, Content: boosted})
		return boosted
	}
	return task
}

// executeCall runs one tool call, records it, and appends the result to
// the conversation.
func (a *Agent) executeCall(ctx context.Context, stepNumber int, llmContent string, call llm.ToolCall, emit EmitFunc) {
	emit(Event{Type: EventTool, Tool: call.Name, Args: call.Arguments})
	emit(logEvent(fmt.Sprintf("Executing: %s(%v)", call.Name, call.Arguments)))

	result := a.executor.Execute(ctx, call.Name, call.Arguments)

	record := StepRecord{
		StepNumber:  stepNumber,
		ToolName:    call.Name,
		ToolArgs:    call.Arguments,
		ToolResult:  result,
		LLMResponse: llmContent,
		Timestamp:   time.Now().UTC(),
	}

	if success, _ := result["success"].(bool); success {
		emit(logEvent("Result: Success - " + summarizeResult(result)))
		a.trackStepProgress(call, emit)

		if a.cfg.ScreenshotOnStep && screenshotAfter[call.Name] {
			if ss, err := a.browser.Screenshot(ctx, false); err == nil {
				data, _ := ss["screenshot"].(string)
				record.Screenshot = data
				emit(Event{Type: EventScreenshot, Screenshot: data})
			} else {
				emit(logEvent(fmt.Sprintf("Screenshot failed: %v", err)))
			}
		}
	} else {
		errMsg, _ := result["error"].(string)
		if errMsg == "" {
			errMsg = "Unknown error"
		}
		record.Error = errMsg
		emit(logEvent("Result: Failed - " + errMsg))
	}

	a.history = append(a.history, record)
	a.messages = append(a.messages, llm.FormatToolResult(call.ID, call.Name, result))
	a.pruneMessages(12)
}

// trackStepProgress advances the structured plan when a successful tool
// call matches the current step and tells the model about it.
func (a *Agent) trackStepProgress(call llm.ToolCall, emit EmitFunc) {
	if len(a.taskSteps) == 0 || a.currentStep >= len(a.taskSteps) {
		return
	}
	current := a.taskSteps[a.currentStep]
	if !toolMatchesStep(call.Name, call.Arguments, current) {
		return
	}
	a.taskSteps[a.currentStep].Completed = true
	a.currentStep++
	remaining := len(a.taskSteps) - a.currentStep
	emit(logEvent(fmt.Sprintf("Step %d completed. %d steps remaining.", current.Number, remaining)))
	if remaining > 0 {
		next := a.taskSteps[a.currentStep]
		a.messages = append(a.messages, llm.Message{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("Step %d completed. Now execute %s", current.Number, formatStepLine(next)),
		})
	}
}

// handleCompletion validates a no-tool-call turn. Returns true when the
// task is legitimately complete.
func (a *Agent) handleCompletion(content string, emit EmitFunc) bool {
	stripped := strings.ToUpper(strings.TrimSpace(content))

	isComplete := stripped == "TASK_COMPLETE" ||
		(strings.HasPrefix(stripped, "TASK_COMPLETE") && len(stripped) < 50)

	switch {
	case isComplete:
		if a.hasActionableSteps() {
			emit(logEvent("Agent marked task as complete"))
			return true
		}
		emit(logEvent("Agent tried to complete but no actionable steps performed - continuing"))
		a.messages = append(a.messages, llm.Message{
			Role:    llm.RoleUser,
			Content: "You have NOT completed the task yet. You only searched/viewed but didn't perform the actual action (e.g., clicking 'Add to Cart', submitting form, etc.). Continue with the task!",
		})
	case strings.Contains(stripped, "TASK_COMPLETE"):
		emit(logEvent("Task completion rejected - mixed with other content, continuing"))
		a.messages = append(a.messages, llm.Message{
			Role:    llm.RoleUser,
			Content: "Do not mix TASK_COMPLETE with analysis. If task is done, respond ONLY with 'TASK_COMPLETE'. If not done, continue executing actions.",
		})
	default:
		a.messages = append(a.messages, llm.Message{
			Role:    llm.RoleUser,
			Content: "Continue executing the task. What is the next action?",
		})
	}
	return false
}

// hasActionableSteps reports whether at least one state-changing tool
// succeeded during the run.
func (a *Agent) hasActionableSteps() bool {
	for _, step := range a.history {
		if actionableTools[step.ToolName] && step.Error == "" {
			return true
		}
	}
	return false
}

// pruneMessages drops old turns, keeping the system prompt plus the most
// recent maxMessages entries.
func (a *Agent) pruneMessages(maxMessages int) {
	if len(a.messages) <= maxMessages+1 {
		return
	}
	var system, rest []llm.Message
	for _, m := range a.messages {
		if m.Role == llm.RoleSystem {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}
	if len(rest) > maxMessages {
		rest = rest[len(rest)-maxMessages:]
	}
	a.messages = append(system, rest...)
}

// generateTestCode converts the run history to a Playwright test.
func (a *Agent) generateTestCode(task, url string) string {
	steps := historyToTestSteps(a.history, url)

	resp, err := codegen.NewGenerator().Generate(codegen.Request{
		TestPlan:  steps,
		Framework: a.cfg.Framework,
		Language:  a.cfg.Language,
	})
	if err != nil {
		log.Printf("[Agent] Code generation failed: %v", err)
		return emptyTestTemplate(task, url, a.cfg.Language)
	}
	return resp.Code
}

// emptyTestTemplate is the fallback when the run produced no usable steps.
func emptyTestTemplate(task, url string, lang codegen.Language) string {
	if lang == codegen.LanguagePython {
		return fmt.Sprintf(`import pytest
from playwright.sync_api import Page, expect

def test_generated(page: Page):
    """Generated test for: %s"""
    page.goto("%s")
    # No steps recorded - add your automation code here
`, task, url)
	}
	return fmt.Sprintf(`import { test, expect } from '@playwright/test';

test('generated test', async ({ page }) => {
  // Task: %s
  await page.goto('%s');
  // No steps recorded - add your automation code here
});
`, task, url)
}

// noteRepeat tracks consecutive turns that issue one identical tool
// call. Returns true on the third identical turn, resetting the window
// so the interjection gets a fair chance before firing again.
func (a *Agent) noteRepeat(calls []llm.ToolCall) bool {
	if len(calls) != 1 {
		a.repeatCount = 0
		a.lastToolKey = ""
		return false
	}
	key := toolKey(calls[0])
	if key != a.lastToolKey {
		a.repeatCount = 1
		a.lastToolKey = key
		return false
	}
	a.repeatCount++
	if a.repeatCount >= 3 {
		a.repeatCount = 0
		a.lastToolKey = ""
		return true
	}
	return false
}

// noteIdleTurn counts consecutive turns without tool calls. Returns
// true once the agent has gone five turns without acting.
func (a *Agent) noteIdleTurn() bool {
	a.idleTurns++
	a.repeatCount = 0
	a.lastToolKey = ""
	return a.idleTurns >= 5
}

// dedupToolCalls removes repeated calls within one response. Models
// occasionally return the same call twice.
func dedupToolCalls(calls []llm.ToolCall) []llm.ToolCall {
	seen := make(map[string]bool, len(calls))
	unique := make([]llm.ToolCall, 0, len(calls))
	for _, call := range calls {
		key := toolKey(call)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, call)
	}
	return unique
}

func toolKey(call llm.ToolCall) string {
	return call.Name + ":" + llm.CanonicalArgs(call.Arguments)
}

// summarizeResult produces a one-line description of a tool result for
// the event log.
func summarizeResult(result browser.Result) string {
	if url, ok := result["url"].(string); ok {
		return "URL: " + url
	}
	if text, ok := result["text"].(string); ok {
		if len(text) > 100 {
			return "Text: " + text[:100] + "..."
		}
		return "Text: " + text
	}
	if count, ok := result["count"]; ok {
		return fmt.Sprintf("Count: %v", count)
	}
	if visible, ok := result["visible"]; ok {
		return fmt.Sprintf("Visible: %v", visible)
	}
	if _, ok := result["screenshot"]; ok {
		return "Screenshot captured"
	}
	if action, ok := result["action"].(string); ok {
		return action
	}
	return "Done"
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
