// Package rod provides a pagegraph.Fetcher backed by headless Chrome, for
// pages whose structure only exists after JavaScript has run.
package rod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/pagegraph"
)

// DefaultFetchTimeout bounds a single page load.
const DefaultFetchTimeout = 10 * time.Second

// Ensure Fetcher implements pagegraph.Fetcher at compile time.
var _ pagegraph.Fetcher = (*Fetcher)(nil)

// serializeJS returns the document HTML with open shadow roots inlined as
// declarative <template shadowrootmode="open"> children, so components
// rendered into shadow DOM are visible to the analyzer.
const serializeJS = `() => {
	const root = document.documentElement;
	const clone = root.cloneNode(true);
	const src = root.querySelectorAll('*');
	const dst = clone.querySelectorAll('*');
	for (let i = 0; i < src.length; i++) {
		if (src[i].shadowRoot) {
			const tpl = document.createElement('template');
			tpl.setAttribute('shadowrootmode', 'open');
			tpl.innerHTML = src[i].shadowRoot.innerHTML;
			dst[i].prepend(tpl);
		}
	}
	return '<!DOCTYPE html>' + clone.outerHTML;
}`

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	pool         *browserPool
	timeout      time.Duration
	recycleAfter int
	stealth      bool
	logger       *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-page load timeout.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithRecycleAfter sets how many pages are rendered before the browser is
// restarted. Zero never restarts. Defaults to DefaultRecycleAfter.
func WithRecycleAfter(n int) Option {
	return func(f *Fetcher) {
		f.recycleAfter = n
	}
}

// WithStealth opens pages with the stealth evasions applied, for sites that
// serve different markup to detectable headless browsers.
func WithStealth(enabled bool) Option {
	return func(f *Fetcher) {
		f.stealth = enabled
	}
}

// WithLogger sets the logger that reports browser restarts.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:      DefaultFetchTimeout,
		recycleAfter: DefaultRecycleAfter,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}

	pool, err := newBrowserPool(launchChrome, f.recycleAfter, f.stealth, f.logger)
	if err != nil {
		return nil, err
	}
	f.pool = pool

	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := f.pool.page()
	if pagegraph.ErrorCode(err) == pagegraph.EINVALID {
		return "", err
	} else if err != nil {
		return "", fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()
	defer f.pool.done()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", contextErr(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", contextErr(ctx, err)
	}

	res, err := page.Eval(serializeJS)
	if err != nil {
		return "", contextErr(ctx, err)
	}

	return res.Value.Str(), nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	return f.pool.close()
}

// LauncherPID returns the process ID of the running browser, or 0 once the
// fetcher is closed.
func (f *Fetcher) LauncherPID() int {
	return f.pool.pid()
}

// contextErr prefers the context error so callers can match
// context.DeadlineExceeded regardless of how rod wrapped it.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}
