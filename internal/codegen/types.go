package codegen

import "fmt"

// Framework identifies the automation framework targeted by generated code.
type Framework string

// Language identifies the output language for generated code.
type Language string

const (
	FrameworkPlaywright Framework = "playwright"

	LanguageTypeScript Language = "typescript"
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
)

// TestStep is a single step in a test plan.
type TestStep struct {
	Action   string `json:"action"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// Request describes a code generation request.
type Request struct {
	TestPlan  []TestStep `json:"testPlan"`
	Framework Framework  `json:"framework,omitempty"`
	Language  Language   `json:"language,omitempty"`
}

// Response carries the generated code and a suggested filename.
type Response struct {
	Code     string `json:"code"`
	Filename string `json:"filename"`
}

// Validate checks that the request is well-formed and fills in defaults.
func (r *Request) Validate() error {
	if len(r.TestPlan) == 0 {
		return fmt.Errorf("testPlan must contain at least one step")
	}
	for i, step := range r.TestPlan {
		if step.Action == "" {
			return fmt.Errorf("testPlan[%d]: action is required", i)
		}
	}
	if r.Framework == "" {
		r.Framework = FrameworkPlaywright
	}
	if r.Framework != FrameworkPlaywright {
		return fmt.Errorf("unsupported framework: %s", r.Framework)
	}
	if r.Language == "" {
		r.Language = LanguageTypeScript
	}
	switch r.Language {
	case LanguageTypeScript, LanguagePython, LanguageJavaScript:
	default:
		return fmt.Errorf("unsupported language: %s", r.Language)
	}
	return nil
}
