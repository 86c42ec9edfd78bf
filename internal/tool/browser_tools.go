package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/browser"
)

// NewBrowserRegistry builds the full tool catalogue bound to one browser
// instance. Tool names, schemas and categories form the contract the LLM
// prompts are written against; renaming a tool breaks recorded histories.
func NewBrowserRegistry(b *browser.Browser) *Registry {
	r := NewRegistry()

	// ── Navigation ──

	r.Register(&Tool{
		Name:        "navigate",
		Description: "Navigate the browser to a specified URL. Use this to go to a new web page.",
		Category:    "navigation",
		Params: []Param{
			{Name: "url", Type: "string", Description: "The URL to navigate to (must include http:// or https://)", Required: true},
			{Name: "wait_until", Type: "string", Description: "When to consider navigation complete", Default: "domcontentloaded", Enum: []string{"load", "domcontentloaded", "networkidle"}},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.Navigate(ctx, stringArg(args, "url", ""))
		},
	})

	r.Register(&Tool{
		Name:        "go_back",
		Description: "Navigate back to the previous page in browser history.",
		Category:    "navigation",
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.GoBack(ctx)
		},
	})

	r.Register(&Tool{
		Name:        "go_forward",
		Description: "Navigate forward in browser history.",
		Category:    "navigation",
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.GoForward(ctx)
		},
	})

	r.Register(&Tool{
		Name:        "reload",
		Description: "Reload the current page.",
		Category:    "navigation",
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.Reload(ctx)
		},
	})

	// ── Interaction ──

	r.Register(&Tool{
		Name:        "click",
		Description: "Click on an element using CSS selector. Use force=true if element is blocked by overlays.",
		Category:    "interaction",
		Params: []Param{
			{Name: "selector", Type: "string", Description: `CSS selector for the element to click (e.g., 'button#submit', '.login-btn', '[data-testid="login"]')`, Required: true},
			{Name: "force", Type: "boolean", Description: "Force click even if element is covered by overlay/popup. Use when normal click times out.", Default: false},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.Click(ctx, stringArg(args, "selector", ""), boolArg(args, "force", false))
		},
	})

	r.Register(&Tool{
		Name:        "click_text",
		Description: "Click on an element by its visible text content. More reliable than CSS selectors for dynamic pages. Case-insensitive partial match.",
		Category:    "interaction",
		Params: []Param{
			{Name: "text", Type: "string", Description: "Visible text to search for and click (e.g., 'Add to Cart', 'Sign In', 'Submit')", Required: true},
			{Name: "element_type", Type: "string", Description: "Type of element to search in", Default: "any", Enum: []string{"any", "button", "link", "heading"}},
			{Name: "exact", Type: "boolean", Description: "Require exact text match (default: false for partial match)", Default: false},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.ClickText(ctx, stringArg(args, "text", ""), stringArg(args, "element_type", "any"), boolArg(args, "exact", false))
		},
	})

	r.Register(&Tool{
		Name:        "click_nth",
		Description: "Click the Nth element matching a selector. Use when multiple elements match and you need a specific one (0-indexed).",
		Category:    "interaction",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector that matches multiple elements", Required: true},
			{Name: "index", Type: "integer", Description: "Index of element to click (0-indexed, e.g., 0 for first, 1 for second)", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.ClickNth(ctx, stringArg(args, "selector", ""), intArg(args, "index", 0))
		},
	})

	r.Register(&Tool{
		Name:        "double_click",
		Description: "Double-click on an element.",
		Category:    "interaction",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the element to double-click", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.DoubleClick(ctx, stringArg(args, "selector", ""))
		},
	})

	r.Register(&Tool{
		Name:        "hover",
		Description: "Hover the mouse over an element. Useful for revealing dropdown menus or tooltips.",
		Category:    "interaction",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the element to hover over", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.Hover(ctx, stringArg(args, "selector", ""))
		},
	})

	r.Register(&Tool{
		Name:        "dismiss_overlays",
		Description: "Dismiss common popups, modals, cookie banners, and overlays. Use this when clicks fail due to overlays blocking elements.",
		Category:    "interaction",
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.DismissOverlays(ctx)
		},
	})

	r.Register(&Tool{
		Name:        "find_and_click",
		Description: "Smart click that tries multiple strategies: by text, by selector, with scrolling. Use when simple click fails.",
		Category:    "interaction",
		Params: []Param{
			{Name: "target", Type: "string", Description: "Text content OR CSS selector to find and click", Required: true},
			{Name: "scroll_first", Type: "boolean", Description: "Scroll down before attempting click", Default: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.FindAndClick(ctx, stringArg(args, "target", ""), boolArg(args, "scroll_first", true))
		},
	})

	// ── Input ──

	r.Register(&Tool{
		Name:        "fill",
		Description: "Fill a text input field with a value. Clears existing content first.",
		Category:    "input",
		Params: []Param{
			{Name: "selector", Type: "string", Description: `CSS selector for the input field (e.g., 'input[name="email"]', '#username')`, Required: true},
			{Name: "value", Type: "string", Description: "Text value to fill into the input", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.Fill(ctx, stringArg(args, "selector", ""), stringArg(args, "value", ""))
		},
	})

	r.Register(&Tool{
		Name:        "type_text",
		Description: "Type text character by character, simulating real keyboard input. Use for fields that need keystroke events.",
		Category:    "input",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the input field", Required: true},
			{Name: "text", Type: "string", Description: "Text to type", Required: true},
			{Name: "delay", Type: "integer", Description: "Delay between keystrokes in milliseconds", Default: 50},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			delay := time.Duration(intArg(args, "delay", 50)) * time.Millisecond
			return b.TypeText(ctx, stringArg(args, "selector", ""), stringArg(args, "text", ""), delay)
		},
	})

	r.Register(&Tool{
		Name:        "press_key",
		Description: "Press a keyboard key. Use for Enter, Tab, Escape, arrows, etc.",
		Category:    "input",
		Params: []Param{
			{Name: "key", Type: "string", Description: "Key to press (e.g., 'Enter', 'Tab', 'Escape', 'ArrowDown', 'Backspace')", Required: true},
			{Name: "selector", Type: "string", Description: "Optional: CSS selector to focus before pressing key"},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.PressKey(ctx, stringArg(args, "key", ""), stringArg(args, "selector", ""))
		},
	})

	r.Register(&Tool{
		Name:        "select_option",
		Description: "Select an option from a dropdown <select> element.",
		Category:    "input",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the select element", Required: true},
			{Name: "value", Type: "string", Description: "Option value attribute to select"},
			{Name: "label", Type: "string", Description: "Option visible text to select"},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.SelectOption(ctx, stringArg(args, "selector", ""), stringArg(args, "value", ""), stringArg(args, "label", ""))
		},
	})

	r.Register(&Tool{
		Name:        "check",
		Description: "Check a checkbox or radio button.",
		Category:    "input",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the checkbox/radio", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.Check(ctx, stringArg(args, "selector", ""))
		},
	})

	r.Register(&Tool{
		Name:        "uncheck",
		Description: "Uncheck a checkbox.",
		Category:    "input",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the checkbox", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.Uncheck(ctx, stringArg(args, "selector", ""))
		},
	})

	// ── Scrolling ──

	r.Register(&Tool{
		Name:        "scroll",
		Description: "Scroll the page in a direction.",
		Category:    "scroll",
		Params: []Param{
			{Name: "direction", Type: "string", Description: "Direction to scroll", Required: true, Enum: []string{"up", "down", "left", "right"}},
			{Name: "amount", Type: "integer", Description: "Pixels to scroll", Default: 500},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.Scroll(ctx, stringArg(args, "direction", "down"), intArg(args, "amount", 500))
		},
	})

	r.Register(&Tool{
		Name:        "scroll_to_element",
		Description: "Scroll until a specific element is visible in the viewport.",
		Category:    "scroll",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the element to scroll to", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.ScrollToElement(ctx, stringArg(args, "selector", ""))
		},
	})

	// ── Waiting ──

	r.Register(&Tool{
		Name:        "wait_for_element",
		Description: "Wait for an element to appear or reach a certain state.",
		Category:    "wait",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the element to wait for", Required: true},
			{Name: "state", Type: "string", Description: "State to wait for", Default: "visible", Enum: []string{"attached", "detached", "visible", "hidden"}},
			{Name: "timeout", Type: "integer", Description: "Maximum time to wait in milliseconds", Default: 30000},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			timeout := time.Duration(intArg(args, "timeout", 0)) * time.Millisecond
			return b.WaitForSelector(ctx, stringArg(args, "selector", ""), stringArg(args, "state", "visible"), timeout)
		},
	})

	r.Register(&Tool{
		Name:        "wait",
		Description: "Wait for a specified amount of time. Use sparingly, prefer wait_for_element.",
		Category:    "wait",
		Params: []Param{
			{Name: "timeout", Type: "integer", Description: "Time to wait in milliseconds", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.Wait(ctx, intArg(args, "timeout", 0))
		},
	})

	// ── Extraction ──

	r.Register(&Tool{
		Name:        "extract_text",
		Description: "Extract text content from an element.",
		Category:    "extraction",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the element", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.GetText(ctx, stringArg(args, "selector", ""))
		},
	})

	r.Register(&Tool{
		Name:        "extract_attribute",
		Description: "Extract an attribute value from an element.",
		Category:    "extraction",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the element", Required: true},
			{Name: "attribute", Type: "string", Description: "Attribute name to extract (e.g., 'href', 'src', 'data-id')", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.GetAttribute(ctx, stringArg(args, "selector", ""), stringArg(args, "attribute", ""))
		},
	})

	r.Register(&Tool{
		Name:        "extract_all_text",
		Description: "Extract text from all elements matching a selector.",
		Category:    "extraction",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the elements", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			selector := stringArg(args, "selector", "")
			result, err := b.Evaluate(ctx, fmt.Sprintf(
				`Array.from(document.querySelectorAll(%q)).map(el => el.textContent).join('\n')`, selector))
			if err != nil {
				return nil, err
			}
			return browser.Result{"success": true, "text": result["result"]}, nil
		},
	})

	r.Register(&Tool{
		Name:        "count_elements",
		Description: "Count how many elements match a selector.",
		Category:    "extraction",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector to count", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.CountElements(ctx, stringArg(args, "selector", ""))
		},
	})

	r.Register(&Tool{
		Name:        "is_visible",
		Description: "Check if an element is visible on the page.",
		Category:    "extraction",
		Params: []Param{
			{Name: "selector", Type: "string", Description: "CSS selector for the element", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.IsVisible(ctx, stringArg(args, "selector", ""))
		},
	})

	r.Register(&Tool{
		Name:        "extract_modal_content",
		Description: "Extract content from a visible modal, popup, or dialog. Returns title, text, buttons, links, inputs, and images from the modal. Use this to READ modal content before dismissing it.",
		Category:    "extraction",
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.ExtractModalContent(ctx)
		},
	})

	// ── Page info ──

	r.Register(&Tool{
		Name:        "get_page_info",
		Description: "Get current page URL and title.",
		Category:    "info",
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.GetPageInfo(ctx)
		},
	})

	r.Register(&Tool{
		Name:        "get_page_structure",
		Description: "Get a summary of interactive elements on the page. Use this to understand what actions are available.",
		Category:    "info",
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.GetPageStructure(ctx)
		},
	})

	r.Register(&Tool{
		Name:        "screenshot",
		Description: "Take a screenshot of the current page.",
		Category:    "info",
		Params: []Param{
			{Name: "full_page", Type: "boolean", Description: "Capture the full scrollable page", Default: false},
		},
		Handler: func(ctx context.Context, args map[string]any) (browser.Result, error) {
			return b.Screenshot(ctx, boolArg(args, "full_page", false))
		},
	})

	return r
}
