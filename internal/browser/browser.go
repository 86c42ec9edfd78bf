// Package browser drives a headless Chrome instance over the DevTools
// protocol. It exposes the primitive page operations the tool layer maps
// onto, plus composite recovery operations (overlay dismissal, text-based
// clicking) that make LLM-driven automation survive real-world pages.
package browser

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// Result is the JSON-shaped outcome of a browser operation, returned to
// the LLM as a tool result.
type Result map[string]any

// Options configures a browser instance.
type Options struct {
	Headless       bool
	WindowWidth    int
	WindowHeight   int
	UserAgent      string
	DefaultTimeout time.Duration
}

// DefaultOptions returns the settings used by agent sessions.
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		WindowWidth:    1280,
		WindowHeight:   800,
		DefaultTimeout: 10 * time.Second,
	}
}

// Browser wraps a single Chrome tab. All operations are serialized through
// an internal mutex; one Browser belongs to exactly one agent session.
type Browser struct {
	mu          sync.Mutex
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	closed      bool
}

// Launch starts Chrome and opens a blank tab. The parent context bounds
// the browser's lifetime: when it is cancelled the browser dies with it.
func Launch(parent context.Context, opts Options) (*Browser, error) {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 10 * time.Second
	}
	if opts.WindowWidth <= 0 {
		opts.WindowWidth = 1280
	}
	if opts.WindowHeight <= 0 {
		opts.WindowHeight = 800
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		log.Printf("[Browser] "+format, args...)
	}))

	// Start the browser process eagerly so launch failures surface here
	// instead of on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser: launch chrome: %w", err)
	}

	log.Printf("[Browser] launched (headless=%v)", opts.Headless)
	return &Browser{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     opts.DefaultTimeout,
	}, nil
}

// Close shuts the browser down. Safe to call more than once.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.cancelTab()
	b.cancelAlloc()
	log.Printf("[Browser] closed")
	return nil
}

// run executes chromedp actions under the operation timeout. The caller's
// context is observed too, so a stopped session aborts mid-operation.
func (b *Browser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if b.closed {
		return fmt.Errorf("browser: already closed")
	}
	if timeout <= 0 {
		timeout = b.timeout
	}
	opCtx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// eval runs a JavaScript expression and unmarshals its result into out.
// A nil out discards the result.
func (b *Browser) eval(ctx context.Context, timeout time.Duration, expression string, out any) error {
	return b.run(ctx, timeout, chromedp.Evaluate(expression, out))
}
