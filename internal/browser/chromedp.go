package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeDriver drives a Chrome session over the DevTools protocol and
// captures it as a screencast.
type ChromeDriver struct {
	opts Options

	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	tab         context.Context

	cast *screencast
}

// Options configures the browser session.
type Options struct {
	Headless bool
	// SlowMo is inserted after every driver capability call, mirroring
	// the deliberate pacing a human viewer expects in a demo.
	SlowMo time.Duration
	// WorkDir receives screencast frames and the assembled capture.
	WorkDir string
	// FPS of the assembled raw capture.
	FPS int
}

// NewChromeDriver returns an unstarted driver.
func NewChromeDriver(opts Options) *ChromeDriver {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	return &ChromeDriver{opts: opts}
}

func (d *ChromeDriver) StartRecording(ctx context.Context, width, height int) error {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(width, height),
		chromedp.Flag("hide-scrollbars", false),
	)
	if !d.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tab, tabCancel := chromedp.NewContext(allocCtx)
	d.allocCancel = allocCancel
	d.tabCancel = tabCancel
	d.tab = tab

	// Materialize the browser before the screencast attaches.
	if err := chromedp.Run(tab); err != nil {
		d.teardown()
		return fmt.Errorf("launch browser: %w", err)
	}

	cast, err := startScreencast(tab, d.opts.WorkDir, width, height)
	if err != nil {
		d.teardown()
		return fmt.Errorf("start screencast: %w", err)
	}
	d.cast = cast

	slog.Debug("recording session opened", "width", width, "height", height, "headless", d.opts.Headless)
	return nil
}

func (d *ChromeDriver) StopRecording(ctx context.Context) (string, error) {
	if d.cast == nil {
		return "", fmt.Errorf("recording was never started")
	}
	capture, err := d.cast.stop(ctx, d.tab, d.opts.FPS)
	if err != nil {
		return "", err
	}
	return capture, nil
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	err := d.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (d *ChromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := d.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (d *ChromeDriver) ScrollTo(ctx context.Context, y float64, smooth bool) error {
	behavior := "instant"
	if smooth {
		behavior = "smooth"
	}
	js := fmt.Sprintf("window.scrollTo({top: %v, behavior: %q})", y, behavior)
	return d.run(ctx, chromedp.Evaluate(js, nil))
}

func (d *ChromeDriver) ScrollToText(ctx context.Context, text string) error {
	quoted, _ := json.Marshal(text)
	js := fmt.Sprintf(`(() => {
		const needle = %s;
		const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
		while (walker.nextNode()) {
			if (walker.currentNode.textContent.includes(needle)) {
				walker.currentNode.parentElement.scrollIntoView({block: 'start'});
				return true;
			}
		}
		return false;
	})()`, quoted)

	var found bool
	if err := d.run(ctx, chromedp.Evaluate(js, &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no element containing %q", text)
	}
	return nil
}

func (d *ChromeDriver) ScrollBy(ctx context.Context, dy float64) error {
	js := fmt.Sprintf("window.scrollBy(0, %v)", dy)
	return d.run(ctx, chromedp.Evaluate(js, nil))
}

func (d *ChromeDriver) Click(ctx context.Context, selector, text string, timeout time.Duration) error {
	if text != "" {
		// Text lookup is preferred over selector when both are given.
		xpath := fmt.Sprintf(`//*[contains(text(), %s)]`, xpathLiteral(text))
		return d.runTimeout(ctx, timeout, chromedp.Click(xpath, chromedp.BySearch))
	}
	return d.runTimeout(ctx, timeout, chromedp.Click(selector, chromedp.ByQuery))
}

func (d *ChromeDriver) Fill(ctx context.Context, selector, value string) error {
	return d.run(ctx, chromedp.SetValue(selector, value, chromedp.ByQuery))
}

func (d *ChromeDriver) ScrollIframe(ctx context.Context, y float64) error {
	js := fmt.Sprintf(`(() => {
		const iframe = document.querySelector('iframe');
		if (iframe && iframe.contentWindow) {
			iframe.contentWindow.scrollTo({top: %v, behavior: 'smooth'});
		}
	})()`, y)
	return d.run(ctx, chromedp.Evaluate(js, nil))
}

func (d *ChromeDriver) Close() error {
	d.teardown()
	return nil
}

func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	return d.runTimeout(ctx, 0, actions...)
}

// runTimeout runs actions against a context derived from the tab, so a
// timeout or caller cancellation stops the CDP work instead of leaving
// it executing against the tab where it could race a later action.
func (d *ChromeDriver) runTimeout(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if d.tab == nil {
		return fmt.Errorf("session not started")
	}
	runCtx, cancel := actionContext(d.tab, ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	if d.opts.SlowMo > 0 {
		time.Sleep(d.opts.SlowMo)
	}
	return nil
}

// actionContext derives a per-action context from the tab, bounded by
// timeout when positive and cancelled as soon as caller is.
func actionContext(tab, caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(tab, timeout)
	} else {
		runCtx, cancel = context.WithCancel(tab)
	}
	stop := context.AfterFunc(caller, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (d *ChromeDriver) teardown() {
	if d.tabCancel != nil {
		d.tabCancel()
	}
	if d.allocCancel != nil {
		d.allocCancel()
	}
}

// xpathLiteral quotes s for embedding in an XPath expression. XPath 1.0
// has no escape sequences, so strings containing both quote kinds need
// concat().
func xpathLiteral(s string) string {
	hasSingle := false
	hasDouble := false
	for _, r := range s {
		switch r {
		case '\'':
			hasSingle = true
		case '"':
			hasDouble = true
		}
	}
	switch {
	case !hasSingle:
		return "'" + s + "'"
	case !hasDouble:
		return `"` + s + `"`
	default:
		out := "concat("
		for i, r := range s {
			if i > 0 {
				out += ","
			}
			if r == '\'' {
				out += `"'"`
			} else {
				out += "'" + string(r) + "'"
			}
		}
		return out + ")"
	}
}
