package browser

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// Composite operations that recover from the obstacles real pages throw
// at an automated session: cookie walls, newsletter modals, elements that
// only respond to text-based lookup.

// closeSelectors are tried in order when dismissing overlays. Ordering
// matters: specific close buttons before broad cookie-banner patterns.
var closeSelectors = []string{
	`[aria-label="Close"]`,
	`[aria-label="close"]`,
	`[aria-label="Dismiss"]`,
	`[aria-label="Close dialog"]`,
	`[aria-label="Close modal"]`,
	`button[class*="close"]`,
	`button[class*="Close"]`,
	`[data-dismiss="modal"]`,
	`[data-testid="close-button"]`,
	`[data-testid="modal-close"]`,
	`.modal-close`,
	`.popup-close`,
	`.overlay-close`,
	`.dialog-close`,
	`.btn-close`,
	`.close-btn`,
	`.close-button`,
	`button svg[class*="close"]`,
	`button[class*="close"] svg`,
	`[class*="icon-close"]`,
	`[class*="icon-x"]`,
	`[class*="CloseIcon"]`,
	`[id*="cookie"] button`,
	`[class*="cookie"] button`,
	`[id*="consent"] button`,
	`[class*="consent"] button[class*="accept"]`,
	`[class*="consent"] button[class*="reject"]`,
	`[class*="consent"] button[class*="decline"]`,
	`[class*="gdpr"] button`,
	`#onetrust-accept-btn-handler`,
	`#onetrust-reject-btn-handler`,
	`.cc-dismiss`,
	`.cc-btn.cc-allow`,
	`.cc-btn.cc-deny`,
	`[data-cookie-accept]`,
	`[data-cookie-reject]`,
	`[class*="newsletter"] button[class*="close"]`,
	`[class*="popup"] button[class*="close"]`,
	`[class*="modal"] button[class*="close"]`,
	`[class*="dialog"] button[class*="close"]`,
	`[class*="Modal"] button[class*="close"]`,
	`[class*="Popup"] button[class*="close"]`,
	`button[class*="dismiss"]`,
	`button[class*="skip"]`,
	`button[class*="cancel"]`,
	`[class*="modal"] button[class*="no"]`,
	`[class*="modal"] button[class*="later"]`,
}

// dismissTexts are button labels tried after the selector pass. Only the
// first successful text click counts, so "Accept" cannot follow "Decline".
var dismissTexts = []string{
	"No thanks",
	"No, thanks",
	"Maybe later",
	"Not now",
	"Skip",
	"Dismiss",
	"Close",
	"Got it",
	"I understand",
	"Accept",
	"Accept all",
	"Reject all",
	"Decline",
	"Continue",
	"OK",
	"×",
}

// DismissOverlays tries to clear popups, cookie banners and modals:
// selector-based close buttons, then one text-based dismissal, then an
// Escape press, then JavaScript backdrop removal. Never fails; the
// result lists what was dismissed.
func (b *Browser) DismissOverlays(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dismissOverlaysLocked(ctx)
}

func (b *Browser) dismissOverlaysLocked(ctx context.Context) (Result, error) {
	var dismissed []string

	for _, selector := range closeSelectors {
		var clicked bool
		err := b.eval(ctx, 2*time.Second, fmt.Sprintf(
			`(() => {
				const el = document.querySelector(%q);
				if (!el) return false;
				const rect = el.getBoundingClientRect();
				if (rect.width === 0 || rect.height === 0) return false;
				el.click();
				return true;
			})()`, selector), &clicked)
		if err == nil && clicked {
			dismissed = append(dismissed, selector)
			sleepCtx(ctx, 300*time.Millisecond)
		}
	}

	for _, text := range dismissTexts {
		clicked, err := b.clickByTextLocked(ctx, text, "button", false, time.Second)
		if err == nil && clicked {
			dismissed = append(dismissed, "button:"+text)
			sleepCtx(ctx, 300*time.Millisecond)
			break
		}
	}

	if err := b.run(ctx, 2*time.Second, chromedp.KeyEvent(kb.Escape)); err == nil {
		dismissed = append(dismissed, "Escape key")
		sleepCtx(ctx, 200*time.Millisecond)
	}

	var ok bool
	if err := b.eval(ctx, 2*time.Second, removeOverlaysJS, &ok); err == nil {
		dismissed = append(dismissed, "js_overlay_removal")
	}

	if len(dismissed) > 0 {
		log.Printf("[Browser] dismissed %d overlay(s)", len(dismissed))
	}
	return Result{
		"success":   true,
		"dismissed": dismissed,
		"count":     len(dismissed),
		"action":    "dismiss_overlays",
	}, nil
}

// ClickText clicks an element by its visible text. elementType narrows
// the search to button, link or heading elements; "any" scans broadly.
func (b *Browser) ClickText(ctx context.Context, text, elementType string, exact bool) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clicked, err := b.clickByTextLocked(ctx, text, elementType, exact, 10*time.Second)
	if err == nil && clicked {
		return Result{"success": true, "text": text, "action": "click_text"}, nil
	}

	// Broad fallback: scan common clickable and text-bearing elements.
	var ok bool
	jsErr := b.eval(ctx, 5*time.Second, fmt.Sprintf(
		`(() => {
			const target = %q.toLowerCase();
			const elements = document.querySelectorAll('a, button, [role="button"], input[type="submit"], h1, h2, h3, h4, span, div');
			for (const el of elements) {
				const elText = (el.innerText || el.value || '').toLowerCase();
				if (elText.includes(target)) {
					el.click();
					return true;
				}
			}
			return false;
		})()`, text), &ok)
	if jsErr == nil && ok {
		return Result{"success": true, "text": text, "action": "click_text", "method": "js_fallback"}, nil
	}

	if err == nil {
		err = fmt.Errorf("no element with text %q", text)
	}
	return Result{"success": false, "text": text, "error": err.Error()}, nil
}

// clickByTextLocked performs a role-scoped text search and click.
func (b *Browser) clickByTextLocked(ctx context.Context, text, elementType string, exact bool, timeout time.Duration) (bool, error) {
	var selector string
	switch elementType {
	case "button":
		selector = `button, input[type="submit"], input[type="button"], [role="button"]`
	case "link":
		selector = `a[href], [role="link"]`
	case "heading":
		selector = `h1, h2, h3, h4, h5, h6, [role="heading"]`
	default:
		selector = `a, button, [role="button"], [role="link"], input[type="submit"], label, span, div`
	}

	var clicked bool
	err := b.eval(ctx, timeout, fmt.Sprintf(
		`(() => {
			const target = %q.toLowerCase().trim();
			const exact = %t;
			const elements = document.querySelectorAll(%q);
			for (const el of elements) {
				const rect = el.getBoundingClientRect();
				if (rect.width === 0 || rect.height === 0) continue;
				const elText = (el.innerText || el.value || el.getAttribute('aria-label') || '').toLowerCase().trim();
				if (exact ? elText === target : elText.includes(target)) {
					el.scrollIntoView({block: 'center'});
					el.click();
					return true;
				}
			}
			return false;
		})()`, text, exact, selector), &clicked)
	return clicked, err
}

// ClickNth clicks the index-th element matching a selector (0-based).
func (b *Browser) ClickNth(ctx context.Context, selector string, index int) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var outcome string
	err := b.eval(ctx, 10*time.Second, fmt.Sprintf(
		`(() => {
			const matches = document.querySelectorAll(%q);
			if (matches.length <= %d) return 'index out of range (' + matches.length + ' matches)';
			const el = matches[%d];
			el.scrollIntoView({block: 'center'});
			el.click();
			return '';
		})()`, selector, index, index), &outcome)
	if err != nil {
		return Result{"success": false, "selector": selector, "index": index, "error": err.Error()}, nil
	}
	if outcome != "" {
		return Result{"success": false, "selector": selector, "index": index, "error": outcome}, nil
	}
	return Result{"success": true, "selector": selector, "index": index, "action": "click_nth"}, nil
}

// ExtractModalContent reads the content of any visible modal or dialog.
func (b *Browser) ExtractModalContent(ctx context.Context) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var modal map[string]any
	err := b.eval(ctx, 0, extractModalJS, &modal)
	if err != nil {
		return Result{"success": false, "error": err.Error(), "action": "extract_modal_content"}, nil
	}
	return Result{"success": true, "modal": modal, "action": "extract_modal_content"}, nil
}

// FindAndClick locates a target by text or CSS selector, trying multiple
// strategies: overlay dismissal, a small scroll, text match, selector
// click and finally a DOM tree walk.
func (b *Browser) FindAndClick(ctx context.Context, target string, scrollFirst bool) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dismissOverlaysLocked(ctx)

	if scrollFirst {
		b.eval(ctx, 2*time.Second, "window.scrollBy(0, 300)", nil)
	}

	if clicked, err := b.clickByTextLocked(ctx, target, "any", false, 5*time.Second); err == nil && clicked {
		return Result{"success": true, "target": target, "action": "find_and_click", "strategy": "text_match"}, nil
	}

	if err := b.run(ctx, 5*time.Second, chromedp.Click(target, chromedp.ByQuery, chromedp.NodeVisible)); err == nil {
		return Result{"success": true, "target": target, "action": "find_and_click", "strategy": "selector"}, nil
	}

	var forced bool
	if err := b.eval(ctx, 5*time.Second, fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); if (!el) return false; el.click(); return true; })()`,
		target), &forced); err == nil && forced {
		return Result{"success": true, "target": target, "action": "find_and_click", "strategy": "force_selector"}, nil
	}

	var walked bool
	if err := b.eval(ctx, 5*time.Second, fmt.Sprintf(
		`(() => {
			const target = %q.toLowerCase();
			const walk = document.createTreeWalker(document.body, NodeFilter.SHOW_ELEMENT);
			while (walk.nextNode()) {
				const el = walk.currentNode;
				const text = (el.innerText || el.textContent || '').toLowerCase();
				if (text.includes(target) && el.offsetWidth > 0) {
					el.scrollIntoView({block: 'center'});
					el.click();
					return true;
				}
			}
			return false;
		})()`, target), &walked); err == nil && walked {
		return Result{"success": true, "target": target, "action": "find_and_click", "strategy": "js_text_walk"}, nil
	}

	return Result{
		"success": false,
		"target":  target,
		"error":   "Could not find or click target with any strategy",
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
