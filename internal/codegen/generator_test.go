package codegen

import (
	"strings"
	"testing"
)

var samplePlan = []TestStep{
	{Action: "navigate", Value: "https://example.com"},
	{Action: "fill", Selector: "#search-input", Value: "laptop"},
	{Action: "press", Value: "Enter"},
	{Action: "click_text", Value: "Add to Cart"},
	{Action: "scroll", Value: "down:800"},
	{Action: "wait_for", Selector: ".cart-badge", Expected: "visible"},
}

func TestGenerateTypeScript(t *testing.T) {
	g := NewGenerator()
	resp, err := g.Generate(Request{TestPlan: samplePlan, Language: LanguageTypeScript})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"import { test, expect } from '@playwright/test';",
		"await page.goto('https://example.com');",
		"await page.fill('#search-input', 'laptop');",
		"await page.keyboard.press('Enter');",
		"await page.getByText('Add to Cart').click();",
		"await page.mouse.wheel(0, 800);",
		"await page.locator('.cart-badge').waitFor({ state: 'visible' });",
	} {
		if !strings.Contains(resp.Code, want) {
			t.Errorf("code missing %q\n%s", want, resp.Code)
		}
	}
	if resp.Filename != "test-example.spec.ts" {
		t.Errorf("filename = %s", resp.Filename)
	}
}

func TestGeneratePython(t *testing.T) {
	g := NewGenerator()
	resp, err := g.Generate(Request{TestPlan: samplePlan, Language: LanguagePython})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"from playwright.sync_api import Page, expect",
		`page.goto("https://example.com")`,
		`page.fill("#search-input", "laptop")`,
		`page.keyboard.press("Enter")`,
		`page.locator(".cart-badge").wait_for(state="visible")`,
	} {
		if !strings.Contains(resp.Code, want) {
			t.Errorf("code missing %q\n%s", want, resp.Code)
		}
	}
	if resp.Filename != "test-example_test.py" {
		t.Errorf("filename = %s", resp.Filename)
	}
}

func TestGenerateJavaScriptUsesRequire(t *testing.T) {
	g := NewGenerator()
	resp, err := g.Generate(Request{TestPlan: samplePlan, Language: LanguageJavaScript})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Code, "const { test, expect } = require('@playwright/test');") {
		t.Errorf("missing require header:\n%s", resp.Code)
	}
	if resp.Filename != "test-example.spec.js" {
		t.Errorf("filename = %s", resp.Filename)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	g := NewGenerator()
	a, _ := g.Generate(Request{TestPlan: samplePlan})
	b, _ := g.Generate(Request{TestPlan: samplePlan})
	if a.Code != b.Code || a.Filename != b.Filename {
		t.Error("same plan produced different output")
	}
}

func TestEscaping(t *testing.T) {
	plan := []TestStep{
		{Action: "fill", Selector: `input[name='q']`, Value: `it's a \ test`},
	}
	g := NewGenerator()

	ts, _ := g.Generate(Request{TestPlan: plan, Language: LanguageTypeScript})
	if !strings.Contains(ts.Code, `await page.fill('input[name=\'q\']', 'it\'s a \\ test');`) {
		t.Errorf("js escaping wrong:\n%s", ts.Code)
	}

	py, _ := g.Generate(Request{TestPlan: plan, Language: LanguagePython})
	if !strings.Contains(py.Code, `page.fill("input[name='q']", "it's a \\ test")`) {
		t.Errorf("python escaping wrong:\n%s", py.Code)
	}
}

func TestScrollValueParsing(t *testing.T) {
	cases := map[string]int{
		"down:300": 300,
		"up:200":   -200,
		"down:x":   500,
		"":         500,
		"up":       -500,
	}
	for value, want := range cases {
		if got := scrollWheel(value); got != want {
			t.Errorf("scrollWheel(%q) = %d, want %d", value, got, want)
		}
	}
}

func TestUnknownActionBecomesComment(t *testing.T) {
	g := NewGenerator()
	resp, err := g.Generate(Request{TestPlan: []TestStep{
		{Action: "navigate", Value: "https://example.com"},
		{Action: "teleport", Selector: "#x"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Code, "// Unknown action: teleport") {
		t.Errorf("unknown action not commented:\n%s", resp.Code)
	}
}

func TestValidate(t *testing.T) {
	if err := (&Request{}).Validate(); err == nil {
		t.Error("empty plan should fail")
	}
	if err := (&Request{TestPlan: []TestStep{{Selector: "#a"}}}).Validate(); err == nil {
		t.Error("missing action should fail")
	}
	req := &Request{TestPlan: []TestStep{{Action: "click", Selector: "#a"}}, Language: "ruby"}
	if err := req.Validate(); err == nil {
		t.Error("unsupported language should fail")
	}
	req = &Request{TestPlan: []TestStep{{Action: "click", Selector: "#a"}}}
	if err := req.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if req.Framework != FrameworkPlaywright || req.Language != LanguageTypeScript {
		t.Errorf("defaults not applied: %+v", req)
	}
}

func TestSuggestFilenameSkipsWWW(t *testing.T) {
	plan := []TestStep{{Action: "navigate", Value: "https://www.shop.example/cart"}}
	if got := suggestFilename(plan, LanguageTypeScript); got != "test-generated.spec.ts" {
		t.Errorf("filename = %s", got)
	}
	if got := suggestFilename(nil, LanguagePython); got != "test-generated_test.py" {
		t.Errorf("filename = %s", got)
	}
}
