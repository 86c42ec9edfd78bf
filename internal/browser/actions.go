package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// ── Navigation ──

// Navigate loads a URL and waits for the DOM to be ready.
func (b *Browser) Navigate(ctx context.Context, url string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var title, location string
	err := b.run(ctx, 30*time.Second,
		chromedp.Navigate(url),
		chromedp.Title(&title),
		chromedp.Location(&location),
	)
	if err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	return Result{"success": true, "url": location, "title": title}, nil
}

// GoBack navigates back in history.
func (b *Browser) GoBack(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var location string
	err := b.run(ctx, 0, chromedp.NavigateBack(), chromedp.Location(&location))
	if err != nil {
		return nil, fmt.Errorf("go back: %w", err)
	}
	return Result{"success": true, "url": location}, nil
}

// GoForward navigates forward in history.
func (b *Browser) GoForward(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var location string
	err := b.run(ctx, 0, chromedp.NavigateForward(), chromedp.Location(&location))
	if err != nil {
		return nil, fmt.Errorf("go forward: %w", err)
	}
	return Result{"success": true, "url": location}, nil
}

// Reload refreshes the current page.
func (b *Browser) Reload(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var location string
	err := b.run(ctx, 0, chromedp.Reload(), chromedp.Location(&location))
	if err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}
	return Result{"success": true, "url": location}, nil
}

// ── Element interactions ──

// Click clicks an element, falling back to a JavaScript click and finally
// a dispatched click event when the element is covered by an overlay or
// refuses pointer interaction. With force set, the pointer click is
// skipped entirely and the JavaScript tiers run directly.
func (b *Browser) Click(ctx context.Context, selector string, force bool) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clickLocked(ctx, selector, force)
}

func (b *Browser) clickLocked(ctx context.Context, selector string, force bool) (Result, error) {
	var pointerErr error
	if !force {
		pointerErr = b.run(ctx, 0, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
		if pointerErr == nil {
			return Result{"success": true, "selector": selector, "action": "click"}, nil
		}
	}

	var clicked bool
	jsErr := b.eval(ctx, 5*time.Second, fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); if (!el) return false; el.click(); return true; })()`,
		selector), &clicked)
	if jsErr == nil && clicked {
		return Result{"success": true, "selector": selector, "action": "click", "method": "js_click"}, nil
	}

	dispatchErr := b.eval(ctx, 5*time.Second, fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); if (!el) return false; el.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true})); return true; })()`,
		selector), &clicked)
	if dispatchErr == nil && clicked {
		return Result{"success": true, "selector": selector, "action": "click", "method": "dispatch"}, nil
	}

	if pointerErr != nil {
		return nil, fmt.Errorf("click failed after all attempts: %w", pointerErr)
	}
	return nil, fmt.Errorf("force click %s: element not found", selector)
}

// DoubleClick double-clicks an element.
func (b *Browser) DoubleClick(ctx context.Context, selector string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.run(ctx, 0, chromedp.DoubleClick(selector, chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil {
		return nil, fmt.Errorf("double click %s: %w", selector, err)
	}
	return Result{"success": true, "selector": selector, "action": "double_click"}, nil
}

// Fill clears an input and types the value into it.
func (b *Browser) Fill(ctx context.Context, selector, value string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.run(ctx, 0,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("fill %s: %w", selector, err)
	}
	return Result{"success": true, "selector": selector, "value": value, "action": "fill"}, nil
}

// TypeText types into an element without clearing it first. A positive
// delay sends the keys one at a time with a pause between each, for
// inputs that react to individual keystroke events.
func (b *Browser) TypeText(ctx context.Context, selector, text string, delay time.Duration) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.run(ctx, 0, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("type into %s: %w", selector, err)
	}

	if delay <= 0 {
		if err := b.run(ctx, 0, chromedp.SendKeys(selector, text, chromedp.ByQuery)); err != nil {
			return nil, fmt.Errorf("type into %s: %w", selector, err)
		}
		return Result{"success": true, "selector": selector, "text": text, "action": "type"}, nil
	}

	for _, r := range text {
		if err := b.run(ctx, 0, chromedp.SendKeys(selector, string(r), chromedp.ByQuery)); err != nil {
			return nil, fmt.Errorf("type into %s: %w", selector, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return Result{"success": true, "selector": selector, "text": text, "action": "type"}, nil
}

// PressKey sends a key press, optionally focused on a specific element.
func (b *Browser) PressKey(ctx context.Context, key, selector string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	keyValue := mapKeyName(key)
	var err error
	if selector != "" {
		err = b.run(ctx, 0, chromedp.SendKeys(selector, keyValue, chromedp.ByQuery))
	} else {
		err = b.run(ctx, 0, chromedp.KeyEvent(keyValue))
	}
	if err != nil {
		return nil, fmt.Errorf("press key %s: %w", key, err)
	}
	return Result{"success": true, "key": key, "action": "press_key"}, nil
}

// mapKeyName translates Playwright-style key names to DevTools key runes.
func mapKeyName(key string) string {
	switch strings.ToLower(key) {
	case "enter", "return":
		return kb.Enter
	case "tab":
		return kb.Tab
	case "escape", "esc":
		return kb.Escape
	case "backspace":
		return kb.Backspace
	case "delete":
		return kb.Delete
	case "arrowup", "up":
		return kb.ArrowUp
	case "arrowdown", "down":
		return kb.ArrowDown
	case "arrowleft", "left":
		return kb.ArrowLeft
	case "arrowright", "right":
		return kb.ArrowRight
	case "pageup":
		return kb.PageUp
	case "pagedown":
		return kb.PageDown
	case "home":
		return kb.Home
	case "end":
		return kb.End
	}
	return key
}

// Hover moves the mouse over an element by dispatching hover events.
func (b *Browser) Hover(ctx context.Context, selector string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ok bool
	err := b.eval(ctx, 0, fmt.Sprintf(
		`(() => {
			const el = document.querySelector(%q);
			if (!el) return false;
			el.scrollIntoView({block: 'center'});
			for (const type of ['mouseover', 'mouseenter', 'mousemove']) {
				el.dispatchEvent(new MouseEvent(type, {bubbles: true}));
			}
			return true;
		})()`, selector), &ok)
	if err != nil || !ok {
		return nil, fmt.Errorf("hover %s: element not found", selector)
	}
	return Result{"success": true, "selector": selector, "action": "hover"}, nil
}

// SelectOption chooses a dropdown option by value or visible label.
func (b *Browser) SelectOption(ctx context.Context, selector, value, label string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ok bool
	err := b.eval(ctx, 0, fmt.Sprintf(
		`(() => {
			const el = document.querySelector(%q);
			if (!el) return false;
			const value = %q;
			const label = %q;
			for (const opt of el.options) {
				if ((value && opt.value === value) || (label && opt.label.trim() === label)) {
					el.value = opt.value;
					el.dispatchEvent(new Event('input', {bubbles: true}));
					el.dispatchEvent(new Event('change', {bubbles: true}));
					return true;
				}
			}
			return false;
		})()`, selector, value, label), &ok)
	if err != nil {
		return nil, fmt.Errorf("select option in %s: %w", selector, err)
	}
	if !ok {
		return nil, fmt.Errorf("select option in %s: no option matching value=%q label=%q", selector, value, label)
	}
	return Result{"success": true, "selector": selector, "action": "select_option"}, nil
}

// Check sets a checkbox to checked.
func (b *Browser) Check(ctx context.Context, selector string) (Result, error) {
	return b.setChecked(ctx, selector, true, "check")
}

// Uncheck sets a checkbox to unchecked.
func (b *Browser) Uncheck(ctx context.Context, selector string) (Result, error) {
	return b.setChecked(ctx, selector, false, "uncheck")
}

func (b *Browser) setChecked(ctx context.Context, selector string, checked bool, action string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ok bool
	err := b.eval(ctx, 0, fmt.Sprintf(
		`(() => {
			const el = document.querySelector(%q);
			if (!el) return false;
			if (el.checked !== %t) {
				el.click();
				if (el.checked !== %t) {
					el.checked = %t;
					el.dispatchEvent(new Event('change', {bubbles: true}));
				}
			}
			return true;
		})()`, selector, checked, checked, checked), &ok)
	if err != nil || !ok {
		return nil, fmt.Errorf("%s %s: element not found", action, selector)
	}
	return Result{"success": true, "selector": selector, "action": action}, nil
}

// ── Waiting ──

// WaitForSelector waits for an element to reach a state. Comma-separated
// selectors are tried one by one, splitting the timeout between them.
func (b *Browser) WaitForSelector(ctx context.Context, selector, state string, timeout time.Duration) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	selectors := SplitSelectors(selector)
	if len(selectors) > 1 {
		per := timeout / time.Duration(len(selectors))
		for _, sel := range selectors {
			if err := b.run(ctx, per, waitAction(sel, state)); err == nil {
				return Result{"success": true, "selector": sel, "state": state}, nil
			}
		}
		return nil, fmt.Errorf("none of the selectors found: %s", selector)
	}

	if err := b.run(ctx, timeout, waitAction(selector, state)); err != nil {
		return nil, fmt.Errorf("wait for %s (%s): %w", selector, state, err)
	}
	return Result{"success": true, "selector": selector, "state": state}, nil
}

func waitAction(selector, state string) chromedp.Action {
	switch state {
	case "attached":
		return chromedp.WaitReady(selector, chromedp.ByQuery)
	case "hidden":
		return chromedp.WaitNotVisible(selector, chromedp.ByQuery)
	case "detached":
		return chromedp.WaitNotPresent(selector, chromedp.ByQuery)
	default: // visible
		return chromedp.WaitVisible(selector, chromedp.ByQuery)
	}
}

// SplitSelectors splits a comma-separated selector list, trimming spaces.
// Commas inside attribute values are left intact.
func SplitSelectors(selector string) []string {
	if !strings.Contains(selector, ",") {
		return []string{selector}
	}
	var out []string
	depth := 0
	start := 0
	for i, ch := range selector {
		switch ch {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ',':
			if depth == 0 {
				if part := strings.TrimSpace(selector[start:i]); part != "" {
					out = append(out, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(selector[start:]); part != "" {
		out = append(out, part)
	}
	return out
}

// Wait pauses for the given number of milliseconds.
func (b *Browser) Wait(ctx context.Context, ms int) (Result, error) {
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return Result{"success": true, "waited_ms": ms}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ── Content extraction ──

// GetText returns the text content of the first element matching selector.
func (b *Browser) GetText(ctx context.Context, selector string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var text string
	err := b.run(ctx, 5*time.Second, chromedp.Text(selector, &text, chromedp.ByQuery))
	if err != nil {
		// Elements hidden from layout still have textContent.
		jsErr := b.eval(ctx, 5*time.Second, fmt.Sprintf(
			`(document.querySelector(%q)?.textContent || '')`, selector), &text)
		if jsErr != nil {
			return nil, fmt.Errorf("get text of %s: %w", selector, err)
		}
		return Result{"success": true, "selector": selector, "text": text, "method": "js"}, nil
	}
	return Result{"success": true, "selector": selector, "text": text}, nil
}

// GetAttribute returns one attribute of an element.
func (b *Browser) GetAttribute(ctx context.Context, selector, attribute string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var value string
	var found bool
	err := b.run(ctx, 5*time.Second, chromedp.AttributeValue(selector, attribute, &value, &found, chromedp.ByQuery))
	if err != nil {
		return nil, fmt.Errorf("get attribute %s of %s: %w", attribute, selector, err)
	}
	if !found {
		return Result{"success": true, "selector": selector, "attribute": attribute, "value": nil}, nil
	}
	return Result{"success": true, "selector": selector, "attribute": attribute, "value": value}, nil
}

// GetValue returns the value of an input element.
func (b *Browser) GetValue(ctx context.Context, selector string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var value string
	err := b.run(ctx, 5*time.Second, chromedp.Value(selector, &value, chromedp.ByQuery))
	if err != nil {
		return nil, fmt.Errorf("get value of %s: %w", selector, err)
	}
	return Result{"success": true, "selector": selector, "value": value}, nil
}

// GetPageContent returns the page HTML, capped at 50k characters.
func (b *Browser) GetPageContent(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var html string
	err := b.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return nil, fmt.Errorf("get page content: %w", err)
	}
	if len(html) > 50000 {
		html = html[:50000]
	}
	return Result{"success": true, "content": html}, nil
}

// GetPageInfo returns the current URL and title.
func (b *Browser) GetPageInfo(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var title, location string
	err := b.run(ctx, 0, chromedp.Title(&title), chromedp.Location(&location))
	if err != nil {
		return nil, fmt.Errorf("get page info: %w", err)
	}
	return Result{"success": true, "url": location, "title": title}, nil
}

// ExtractAllText returns the visible text of the whole page.
func (b *Browser) ExtractAllText(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var text string
	err := b.eval(ctx, 0, `(document.body?.innerText || '')`, &text)
	if err != nil {
		return nil, fmt.Errorf("extract all text: %w", err)
	}
	if len(text) > 20000 {
		text = text[:20000] + "\n... [truncated]"
	}
	return Result{"success": true, "text": text}, nil
}

// ── Screenshots ──

// Screenshot captures the viewport (or the full page) as base64 PNG.
func (b *Browser) Screenshot(ctx context.Context, fullPage bool) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var buf []byte
	var err error
	if fullPage {
		err = b.run(ctx, 0, chromedp.FullScreenshot(&buf, 90))
	} else {
		err = b.run(ctx, 0, chromedp.CaptureScreenshot(&buf))
	}
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return Result{
		"success":    true,
		"screenshot": base64.StdEncoding.EncodeToString(buf),
		"format":     "base64",
		"full_page":  fullPage,
	}, nil
}

// ScreenshotElement captures one element as base64 PNG.
func (b *Browser) ScreenshotElement(ctx context.Context, selector string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var buf []byte
	err := b.run(ctx, 0, chromedp.Screenshot(selector, &buf, chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil {
		return nil, fmt.Errorf("screenshot element %s: %w", selector, err)
	}
	return Result{
		"success":    true,
		"selector":   selector,
		"screenshot": base64.StdEncoding.EncodeToString(buf),
		"format":     "base64",
	}, nil
}

// ── JavaScript ──

// Evaluate runs an arbitrary JavaScript expression.
func (b *Browser) Evaluate(ctx context.Context, expression string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var result any
	err := b.eval(ctx, 0, expression, &result)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return Result{"success": true, "result": result}, nil
}

// ── Scrolling ──

// Scroll scrolls the page in a direction by the given pixel amount.
func (b *Browser) Scroll(ctx context.Context, direction string, amount int) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if amount <= 0 {
		amount = 500
	}
	var expr string
	switch direction {
	case "up":
		expr = fmt.Sprintf("window.scrollBy(0, -%d)", amount)
	case "left":
		expr = fmt.Sprintf("window.scrollBy(-%d, 0)", amount)
	case "right":
		expr = fmt.Sprintf("window.scrollBy(%d, 0)", amount)
	default:
		direction = "down"
		expr = fmt.Sprintf("window.scrollBy(0, %d)", amount)
	}
	if err := b.eval(ctx, 0, expr, nil); err != nil {
		return nil, fmt.Errorf("scroll %s: %w", direction, err)
	}
	return Result{"success": true, "direction": direction, "amount": amount}, nil
}

// ScrollToElement scrolls an element into view.
func (b *Browser) ScrollToElement(ctx context.Context, selector string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ok bool
	err := b.eval(ctx, 0, fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); if (!el) return false; el.scrollIntoView({block: 'center'}); return true; })()`,
		selector), &ok)
	if err != nil || !ok {
		return nil, fmt.Errorf("scroll to %s: element not found", selector)
	}
	return Result{"success": true, "selector": selector}, nil
}

// ── Element queries ──

// IsVisible reports whether the first matching element is visible.
// Lookup failures count as not visible rather than errors.
func (b *Browser) IsVisible(ctx context.Context, selector string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var visible bool
	err := b.eval(ctx, 5*time.Second, fmt.Sprintf(
		`(() => {
			const el = document.querySelector(%q);
			if (!el) return false;
			const rect = el.getBoundingClientRect();
			const style = window.getComputedStyle(el);
			return rect.width > 0 && rect.height > 0 && style.display !== 'none' && style.visibility !== 'hidden';
		})()`, selector), &visible)
	if err != nil {
		visible = false
	}
	return Result{"success": true, "selector": selector, "visible": visible}, nil
}

// CountElements counts elements matching a selector.
func (b *Browser) CountElements(ctx context.Context, selector string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var count int
	err := b.eval(ctx, 5*time.Second, fmt.Sprintf(
		`document.querySelectorAll(%q).length`, selector), &count)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", selector, err)
	}
	return Result{"success": true, "selector": selector, "count": count}, nil
}

// ── Bulk element listings ──

// GetAllLinks lists up to 100 links on the page.
func (b *Browser) GetAllLinks(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var links []map[string]any
	if err := b.eval(ctx, 0, allLinksJS, &links); err != nil {
		return nil, fmt.Errorf("get all links: %w", err)
	}
	return Result{"success": true, "links": links, "count": len(links)}, nil
}

// GetAllInputs lists up to 50 form fields on the page.
func (b *Browser) GetAllInputs(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var inputs []map[string]any
	if err := b.eval(ctx, 0, allInputsJS, &inputs); err != nil {
		return nil, fmt.Errorf("get all inputs: %w", err)
	}
	return Result{"success": true, "inputs": inputs, "count": len(inputs)}, nil
}

// GetAllButtons lists up to 50 buttons on the page.
func (b *Browser) GetAllButtons(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var buttons []map[string]any
	if err := b.eval(ctx, 0, allButtonsJS, &buttons); err != nil {
		return nil, fmt.Errorf("get all buttons: %w", err)
	}
	return Result{"success": true, "buttons": buttons, "count": len(buttons)}, nil
}

// GetPageStructure extracts the interactive elements of the page in a
// compact form sized for LLM context. When script evaluation fails (some
// pages install aggressive CSP hooks) it falls back to parsing the HTML.
func (b *Browser) GetPageStructure(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var structure PageStructure
	if err := b.eval(ctx, 0, pageStructureJS, &structure); err == nil {
		return Result{"success": true, "page": structure}, nil
	}

	var html, location, title string
	err := b.run(ctx, 0,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.Title(&title),
	)
	if err != nil {
		return nil, fmt.Errorf("get page structure: %w", err)
	}
	parsed, err := ParsePageStructure(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("get page structure: parse html: %w", err)
	}
	parsed.URL = location
	parsed.Title = title
	return Result{"success": true, "page": parsed, "method": "html_parse"}, nil
}
