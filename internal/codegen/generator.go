package codegen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Generator turns test plans into executable Playwright test code.
// Generation is fully deterministic: the same plan always produces the
// same code.
type Generator struct{}

// NewGenerator creates a code generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the test plan into code for the requested language and
// suggests a filename derived from the first navigated host.
func (g *Generator) Generate(req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	var code string
	switch req.Language {
	case LanguagePython:
		code = g.generatePython(req.TestPlan)
	case LanguageJavaScript:
		code = g.generateJavaScript(req.TestPlan)
	default:
		code = g.generateTypeScript(req.TestPlan)
	}
	return Response{
		Code:     code,
		Filename: suggestFilename(req.TestPlan, req.Language),
	}, nil
}

func (g *Generator) generateTypeScript(plan []TestStep) string {
	lines := make([]string, 0, len(plan))
	for _, step := range plan {
		lines = append(lines, stepToJS(step))
	}
	return fmt.Sprintf(`import { test, expect } from '@playwright/test';

test('generated test', async ({ page }) => {
  %s
});
`, strings.Join(lines, "\n  "))
}

func (g *Generator) generateJavaScript(plan []TestStep) string {
	lines := make([]string, 0, len(plan))
	for _, step := range plan {
		lines = append(lines, stepToJS(step))
	}
	return fmt.Sprintf(`const { test, expect } = require('@playwright/test');

test('generated test', async ({ page }) => {
  %s
});
`, strings.Join(lines, "\n  "))
}

func (g *Generator) generatePython(plan []TestStep) string {
	lines := make([]string, 0, len(plan))
	for _, step := range plan {
		lines = append(lines, stepToPython(step))
	}
	return fmt.Sprintf(`import pytest
from playwright.sync_api import Page, expect

def test_generated(page: Page):
    """Generated Playwright test."""
    %s
`, strings.Join(lines, "\n    "))
}

// escapeJS escapes a string for use inside single-quoted JS literals.
func escapeJS(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// escapePy escapes a string for use inside double-quoted Python literals.
func escapePy(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// scrollWheel parses a "direction:amount" scroll value into a mouse wheel
// delta. Defaults to scrolling down 500px.
func scrollWheel(value string) int {
	amount := 500
	direction := "down"
	if dir, amt, ok := strings.Cut(value, ":"); ok {
		direction = dir
		if n, err := strconv.Atoi(amt); err == nil {
			amount = n
		}
	}
	if direction == "up" {
		return -amount
	}
	return amount
}

func stepToJS(step TestStep) string {
	selector := escapeJS(step.Selector)
	value := escapeJS(step.Value)

	switch strings.ToLower(step.Action) {
	case "navigate":
		return fmt.Sprintf("await page.goto('%s');", value)
	case "click":
		return fmt.Sprintf("await page.click('%s');", selector)
	case "click_text":
		return fmt.Sprintf("await page.getByText('%s').click();", value)
	case "click_nth":
		index := step.Value
		if index == "" {
			index = "0"
		}
		return fmt.Sprintf("await page.locator('%s').nth(%s).click();", selector, index)
	case "double_click":
		return fmt.Sprintf("await page.dblclick('%s');", selector)
	case "fill":
		return fmt.Sprintf("await page.fill('%s', '%s');", selector, value)
	case "type":
		return fmt.Sprintf("await page.type('%s', '%s');", selector, value)
	case "press":
		if selector != "" {
			return fmt.Sprintf("await page.press('%s', '%s');", selector, value)
		}
		return fmt.Sprintf("await page.keyboard.press('%s');", value)
	case "hover":
		return fmt.Sprintf("await page.hover('%s');", selector)
	case "select":
		return fmt.Sprintf("await page.selectOption('%s', '%s');", selector, value)
	case "check":
		return fmt.Sprintf("await page.check('%s');", selector)
	case "uncheck":
		return fmt.Sprintf("await page.uncheck('%s');", selector)
	case "scroll":
		return fmt.Sprintf("await page.mouse.wheel(0, %d);", scrollWheel(step.Value))
	case "scroll_to":
		return fmt.Sprintf("await page.locator('%s').scrollIntoViewIfNeeded();", selector)
	case "wait":
		timeout := "1000"
		if _, err := strconv.Atoi(step.Value); err == nil && step.Value != "" {
			timeout = step.Value
		}
		return fmt.Sprintf("await page.waitForTimeout(%s);", timeout)
	case "wait_for":
		if step.Expected == "visible" {
			return fmt.Sprintf("await page.locator('%s').waitFor({ state: 'visible' });", selector)
		}
		return fmt.Sprintf("await page.waitForSelector('%s');", selector)
	case "assert", "expect":
		if step.Expected != "" {
			return fmt.Sprintf("await expect(page.locator('%s')).toContainText('%s');", selector, escapeJS(step.Expected))
		}
		return fmt.Sprintf("await expect(page.locator('%s')).toBeVisible();", selector)
	default:
		return fmt.Sprintf("// Unknown action: %s", strings.ToLower(step.Action))
	}
}

func stepToPython(step TestStep) string {
	selector := escapePy(step.Selector)
	value := escapePy(step.Value)

	switch strings.ToLower(step.Action) {
	case "navigate":
		return fmt.Sprintf(`page.goto("%s")`, value)
	case "click":
		return fmt.Sprintf(`page.click("%s")`, selector)
	case "click_text":
		return fmt.Sprintf(`page.get_by_text("%s").click()`, value)
	case "click_nth":
		index := step.Value
		if index == "" {
			index = "0"
		}
		return fmt.Sprintf(`page.locator("%s").nth(%s).click()`, selector, index)
	case "double_click":
		return fmt.Sprintf(`page.dblclick("%s")`, selector)
	case "fill":
		return fmt.Sprintf(`page.fill("%s", "%s")`, selector, value)
	case "type":
		return fmt.Sprintf(`page.type("%s", "%s")`, selector, value)
	case "press":
		if selector != "" {
			return fmt.Sprintf(`page.press("%s", "%s")`, selector, value)
		}
		return fmt.Sprintf(`page.keyboard.press("%s")`, value)
	case "hover":
		return fmt.Sprintf(`page.hover("%s")`, selector)
	case "select":
		return fmt.Sprintf(`page.select_option("%s", "%s")`, selector, value)
	case "check":
		return fmt.Sprintf(`page.check("%s")`, selector)
	case "uncheck":
		return fmt.Sprintf(`page.uncheck("%s")`, selector)
	case "scroll":
		return fmt.Sprintf(`page.mouse.wheel(0, %d)`, scrollWheel(step.Value))
	case "scroll_to":
		return fmt.Sprintf(`page.locator("%s").scroll_into_view_if_needed()`, selector)
	case "wait":
		timeout := "1000"
		if _, err := strconv.Atoi(step.Value); err == nil && step.Value != "" {
			timeout = step.Value
		}
		return fmt.Sprintf(`page.wait_for_timeout(%s)`, timeout)
	case "wait_for":
		if step.Expected == "visible" {
			return fmt.Sprintf(`page.locator("%s").wait_for(state="visible")`, selector)
		}
		return fmt.Sprintf(`page.wait_for_selector("%s")`, selector)
	case "assert", "expect":
		if step.Expected != "" {
			return fmt.Sprintf(`expect(page.locator("%s")).to_contain_text("%s")`, selector, escapePy(step.Expected))
		}
		return fmt.Sprintf(`expect(page.locator("%s")).to_be_visible()`, selector)
	default:
		return fmt.Sprintf("# Unknown action: %s", strings.ToLower(step.Action))
	}
}

var (
	protocolRe = regexp.MustCompile(`^https?://`)
	nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
	dashRunRe  = regexp.MustCompile(`-+`)
)

// suggestFilename derives a filename from the first navigated host, e.g.
// "https://example.com/page" becomes "test-example.spec.ts".
func suggestFilename(plan []TestStep, lang Language) string {
	name := "generated"
	for _, step := range plan {
		if strings.ToLower(step.Action) != "navigate" || step.Value == "" {
			continue
		}
		host := protocolRe.ReplaceAllString(step.Value, "")
		host = strings.Split(host, "/")[0]
		candidate := strings.Split(host, ".")[0]
		if candidate != "" && candidate != "www" {
			name = candidate
			break
		}
	}

	name = nonAlnumRe.ReplaceAllString(strings.ToLower(name), "-")
	name = strings.Trim(dashRunRe.ReplaceAllString(name, "-"), "-")
	if name == "" {
		name = "generated"
	}

	ext := ".spec.ts"
	switch lang {
	case LanguagePython:
		ext = "_test.py"
	case LanguageJavaScript:
		ext = ".spec.js"
	}
	return "test-" + name + ext
}
