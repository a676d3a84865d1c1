package rod

import (
	"log/slog"

	"github.com/go-rod/rod"
)

// Pool exposes browserPool with an injected launcher.
type Pool struct {
	p *browserPool
}

// NewPool returns a pool whose browsers come from launch. Launched browsers
// get pids 1, 2, ... in launch order.
func NewPool(launch func() (*rod.Browser, func() error, error), recycleAfter int, logger *slog.Logger) (*Pool, error) {
	pid := 0
	p, err := newBrowserPool(func() (*instance, error) {
		browser, stop, err := launch()
		if err != nil {
			return nil, err
		}
		pid++
		return &instance{browser: browser, pid: pid, stop: stop}, nil
	}, recycleAfter, false, logger)
	if err != nil {
		return nil, err
	}
	return &Pool{p: p}, nil
}

func (p *Pool) Browser() (*rod.Browser, error) { return p.p.browser() }
func (p *Pool) Done()                          { p.p.done() }
func (p *Pool) PID() int                       { return p.p.pid() }
func (p *Pool) Close() error                   { return p.p.close() }
