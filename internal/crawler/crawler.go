package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/steve-z-wang/webtask-sub000/internal/dom"
	"github.com/steve-z-wang/webtask-sub000/internal/pagemap"
)

// Options configures the browser a page is opened in
type Options struct {
	Width   int
	Height  int
	Timeout time.Duration
	// Settle bounds the wait for network idle and late rendering after a load
	Settle     time.Duration
	Bin        string
	Headful    bool
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
	Logger     *slog.Logger
}

var _ pagemap.Source = (*Browser)(nil)

// Browser wraps the Rod browser and the page being observed. It implements
// pagemap.Source.
type Browser struct {
	browser *rod.Browser
	page    *rod.Page
	opts    Options
	logger  *slog.Logger
}

// Close cleans up browser resources
func (b *Browser) Close() {
	if b.page != nil {
		b.page.Close()
	}
	if b.browser != nil {
		b.browser.Close()
	}
}

// Page returns the underlying Rod page
func (b *Browser) Page() *rod.Page {
	return b.page
}

// URL returns the current page URL, or "" when it cannot be read
func (b *Browser) URL() string {
	info, err := b.page.Info()
	if err != nil {
		b.logger.Debug("read page url", "err", err)
		return ""
	}
	return info.URL
}

// DOMSnapshot captures the flattened DOM with layout and the computed styles
// the decoder reads
func (b *Browser) DOMSnapshot(ctx context.Context) (*proto.DOMSnapshotCaptureSnapshotResult, error) {
	return proto.DOMSnapshotCaptureSnapshot{ComputedStyles: dom.ComputedStyles}.Call(b.page.Context(ctx))
}

// AXTree captures the full accessibility tree
func (b *Browser) AXTree(ctx context.Context) (*proto.AccessibilityGetFullAXTreeResult, error) {
	return proto.AccessibilityGetFullAXTree{}.Call(b.page.Context(ctx))
}

// Screenshot captures the page as PNG
func (b *Browser) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return b.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Navigate loads url in the current page and waits for it to settle
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := b.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return b.Settle(ctx)
}

// Settle waits for the current page to finish loading. Used after navigation
// and after checkpoint actions before the page is observed again.
func (b *Browser) Settle(ctx context.Context) error {
	page := b.page.Context(ctx)

	// Wait for any pending navigation/content to settle
	if err := page.Timeout(b.opts.Timeout).WaitLoad(); err != nil {
		return fmt.Errorf("wait for load: %w", err)
	}

	// Wait for network idle with timeout (don't hang on persistent connections)
	page.Timeout(b.opts.Settle).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	// SPAs need time to download bundles and hydrate before anything is interactive
	if detectSPA(page) {
		b.logger.Debug("single page app detected, waiting for interactive elements")
		waitForInteractiveElements(ctx, page, b.opts.Settle)
	}
	return nil
}

// Open launches a browser, loads url and waits for the page to settle
func Open(ctx context.Context, url string, opts Options) (*Browser, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Settle == 0 {
		opts.Settle = 5 * time.Second
	}
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 720
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Launch headless browser
	path := opts.Bin
	if path == "" {
		path, _ = launcher.LookPath()
	}
	l := launcher.New().Bin(path).Headless(!opts.Headful)

	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	// Set viewport
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	b := &Browser{browser: browser, page: page, opts: opts, logger: logger}
	logger.Debug("browser ready", "bin", path, "width", opts.Width, "height", opts.Height, "profile", opts.ProfileDir)

	if url == "" {
		return b, nil
	}
	if err := b.Navigate(ctx, url); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// waitForInteractiveElements polls until interactive elements appear or timeout
func waitForInteractiveElements(ctx context.Context, page *rod.Page, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	checkInterval := 200 * time.Millisecond

	for time.Now().Before(deadline) {
		res, err := page.Eval(`() => {
			const candidates = document.querySelectorAll('a[href], button, [role="button"], input:not([type="hidden"]), select, textarea');
			let visible = 0;
			candidates.forEach(el => { if (el.offsetParent) visible++; });
			return visible;
		}`)
		if err == nil && res.Value.Int() > 0 {
			// Found elements, wait a tiny bit more for any final renders
			sleep(ctx, 300*time.Millisecond)
			return
		}

		if !sleep(ctx, checkInterval) {
			return
		}
	}
}

// detectSPA checks if the page is a Single Page Application
func detectSPA(page *rod.Page) bool {
	// Check for common SPA framework markers
	res, err := page.Eval(`() => {
		// React
		if (window.__REACT_DEVTOOLS_GLOBAL_HOOK__ || document.querySelector('[data-reactroot]') || document.querySelector('#__next')) return true;
		// Vue
		if (window.__VUE__ || document.querySelector('[data-v-app]')) return true;
		// Angular
		if (window.ng || document.querySelector('[ng-version]') || document.querySelector('app-root')) return true;
		// Svelte
		if (document.querySelector('[class*="svelte-"]')) return true;
		return false;
	}`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// sleep waits for d or until ctx is done, reporting whether the full wait elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
