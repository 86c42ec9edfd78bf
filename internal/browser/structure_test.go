package browser

import (
	"strings"
	"testing"
)

const sampleHTML = `<!DOCTYPE html>
<html>
<head><title>Login Page</title></head>
<body>
	<form>
		<input type="hidden" name="csrf" value="abc">
		<input type="email" id="email" placeholder="Email address">
		<input type="password" name="password">
		<input type="text">
		<textarea name="notes" placeholder="Notes"></textarea>
		<input type="submit" value="Sign in" id="submit-btn">
		<button class="btn btn-secondary">Cancel</button>
	</form>
	<a href="/help">Help center</a>
	<a href="/x">x</a>
	<select name="country"><option>US</option></select>
</body>
</html>`

func TestParsePageStructure(t *testing.T) {
	s, err := ParsePageStructure(strings.NewReader(sampleHTML))
	if err != nil {
		t.Fatal(err)
	}

	if s.Title != "Login Page" {
		t.Errorf("title = %q", s.Title)
	}

	if len(s.Inputs) != 4 {
		t.Fatalf("inputs = %d, want 4 (hidden excluded, submit counted as button): %+v", len(s.Inputs), s.Inputs)
	}
	if s.Inputs[0].Selector != "#email" {
		t.Errorf("id selector preference: got %q", s.Inputs[0].Selector)
	}
	if s.Inputs[1].Selector != `[name="password"]` {
		t.Errorf("name selector preference: got %q", s.Inputs[1].Selector)
	}
	if s.Inputs[2].Selector != `input[type="text"]` {
		t.Errorf("type fallback selector: got %q", s.Inputs[2].Selector)
	}
	if s.Inputs[3].Type != "textarea" {
		t.Errorf("textarea type = %q", s.Inputs[3].Type)
	}

	if len(s.Buttons) != 2 {
		t.Fatalf("buttons = %d, want 2: %+v", len(s.Buttons), s.Buttons)
	}
	if s.Buttons[0].Selector != "#submit-btn" || s.Buttons[0].Text != "Sign in" {
		t.Errorf("submit button = %+v", s.Buttons[0])
	}
	if s.Buttons[1].Selector != ".btn" {
		t.Errorf("class selector should use first class: got %q", s.Buttons[1].Selector)
	}

	// The "x" link is too short to be useful.
	if len(s.Links) != 1 || s.Links[0].Text != "Help center" {
		t.Errorf("links = %+v", s.Links)
	}

	if len(s.Selects) != 1 || s.Selects[0].Selector != `[name="country"]` {
		t.Errorf("selects = %+v", s.Selects)
	}
}

func TestParsePageStructureCapsCategories(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 40; i++ {
		sb.WriteString(`<input type="text" name="field">`)
		sb.WriteString(`<a href="/page">Some link text</a>`)
	}
	sb.WriteString("</body></html>")

	s, err := ParsePageStructure(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Inputs) != maxStructureInputs {
		t.Errorf("inputs = %d, want cap %d", len(s.Inputs), maxStructureInputs)
	}
	if len(s.Links) != maxStructureLinks {
		t.Errorf("links = %d, want cap %d", len(s.Links), maxStructureLinks)
	}
}

func TestSplitSelectors(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"button", []string{"button"}},
		{"a, button , .cls", []string{"a", "button", ".cls"}},
		{`input[name="a,b"], select`, []string{`input[name="a,b"]`, "select"}},
		{":is(a, b), c", []string{":is(a, b)", "c"}},
	}
	for _, tc := range cases {
		got := SplitSelectors(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("SplitSelectors(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("SplitSelectors(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}

func TestMapKeyName(t *testing.T) {
	cases := map[string]string{
		"Enter":  "\r",
		"enter":  "\r",
		"Tab":    "\t",
		"F5":     "F5",
		"a":      "a",
		"Escape": mapKeyName("esc"),
	}
	for in, want := range cases {
		if got := mapKeyName(in); got != want {
			t.Errorf("mapKeyName(%q) = %q, want %q", in, got, want)
		}
	}
}
