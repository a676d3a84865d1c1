package rod

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fwojciec/pagegraph"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// DefaultRecycleAfter is the number of rendered pages after which the
// browser is restarted.
const DefaultRecycleAfter = 75

// instance is one running browser together with the means to stop it.
type instance struct {
	browser *rod.Browser
	pid     int
	stop    func() error
}

// launchFunc starts a browser instance.
type launchFunc func() (*instance, error)

// browserPool hands out pages from a single headless browser and restarts
// the browser once recycleAfter pages have been rendered. Chrome's memory
// baseline grows with every page, so long batches and servers recycle.
type browserPool struct {
	launch       launchFunc
	recycleAfter int
	stealth      bool
	logger       *slog.Logger

	mu       sync.Mutex
	current  *instance
	rendered int
	closed   bool
}

func newBrowserPool(launch launchFunc, recycleAfter int, stealth bool, logger *slog.Logger) (*browserPool, error) {
	inst, err := launch()
	if err != nil {
		return nil, err
	}
	return &browserPool{
		launch:       launch,
		recycleAfter: recycleAfter,
		stealth:      stealth,
		logger:       logger,
		current:      inst,
	}, nil
}

// browser returns the browser to render the next page with, restarting it
// first when the page budget is spent. A failed restart keeps the old
// browser and tries again on the next call.
func (p *browserPool) browser() (*rod.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, pagegraph.Errorf(pagegraph.EINVALID, "fetcher closed")
	}
	if p.recycleAfter > 0 && p.rendered >= p.recycleAfter {
		p.recycle()
	}
	return p.current.browser, nil
}

// page opens a blank page, with stealth evasions when enabled.
func (p *browserPool) page() (*rod.Page, error) {
	browser, err := p.browser()
	if err != nil {
		return nil, err
	}
	if p.stealth {
		return stealth.Page(browser)
	}
	return browser.Page(proto.TargetCreateTarget{})
}

// done records one rendered page against the budget.
func (p *browserPool) done() {
	p.mu.Lock()
	p.rendered++
	p.mu.Unlock()
}

// Must be called with mu held.
func (p *browserPool) recycle() {
	next, err := p.launch()
	if err != nil {
		p.logger.Warn("browser recycle failed", "rendered", p.rendered, "error", err)
		return
	}

	old := p.current
	p.current = next
	rendered := p.rendered
	p.rendered = 0

	if err := old.stop(); err != nil {
		p.logger.Debug("closing recycled browser", "pid", old.pid, "error", err)
	}
	p.logger.Info("browser recycled", "rendered", rendered, "old_pid", old.pid, "pid", next.pid)
}

func (p *browserPool) pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0
	}
	return p.current.pid
}

func (p *browserPool) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.current.stop()
}

// launchChrome starts headless Chrome with background throttling disabled,
// so pages in hidden tabs still finish rendering.
func launchChrome() (*instance, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &instance{
		browser: browser,
		pid:     l.PID(),
		stop: func() error {
			err := browser.Close()
			l.Kill()
			return err
		},
	}, nil
}
