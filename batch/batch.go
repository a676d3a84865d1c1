// Package batch analyzes many sources concurrently. It coordinates
// fetching (with per-host rate limiting and retry), analysis, and
// optional persistence of the resulting graphs.
package batch

import (
	"context"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/fwojciec/pagegraph"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when Runner.Concurrency is not positive.
const DefaultConcurrency = 4

// Runner analyzes a list of sources. URLs are read with Fetcher, anything
// else with Files.
type Runner struct {
	Fetcher     pagegraph.Fetcher
	Files       pagegraph.Fetcher
	Analyzer    pagegraph.Analyzer
	Graphs      pagegraph.GraphService // nil disables saving
	RateLimiter pagegraph.DomainLimiter
	Concurrency int
	Retry       *Backoff     // nil uses DefaultBackoff
	Logger      *slog.Logger // nil discards retry logs

	// URLFor returns the URL recorded in a source's graph metadata.
	// Defaults to the source itself, or "" for stdin.
	URLFor func(source string) string
}

// Item is the outcome for one source.
type Item struct {
	Position int
	Source   string
	Graph    *pagegraph.Graph
	Record   *pagegraph.GraphRecord // set when the graph was saved
	Bytes    int
	Err      error

	html string
}

// Result holds the outcome of a batch, with items in input order.
type Result struct {
	Analyzed int
	Saved    int
	Failed   int
	Items    []*Item
}

// ProgressEvent reports progress during a batch.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	Source    string
	Bytes     int
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting batch progress.
type ProgressFunc func(event ProgressEvent)

// Run analyzes every source. Per-source failures are recorded on the item
// and counted; Run itself only fails when ctx is canceled.
func (r *Runner) Run(ctx context.Context, sources []string, progress ProgressFunc) (*Result, error) {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	total := len(sources)
	items := make([]*Item, total)
	itemCh := make(chan *Item, total)
	var completed atomic.Int64

	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, src := range sources {
			g.Go(func() error {
				itemCh <- r.process(gctx, i, src)
				return nil
			})
		}
		_ = g.Wait()
		close(itemCh)
	}()

	res := &Result{Items: items}
	for item := range itemCh {
		items[item.Position] = item
		n := int(completed.Add(1))

		if item.Err != nil {
			res.Failed++
			if progress != nil {
				progress(ProgressEvent{Type: ProgressFailed, Completed: n, Total: total, Source: item.Source, Error: item.Err})
			}
			continue
		}
		res.Analyzed++
		if progress != nil {
			progress(ProgressEvent{Type: ProgressCompleted, Completed: n, Total: total, Source: item.Source, Bytes: item.Bytes})
		}
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	// Save in input order so listing by creation time matches the command line.
	if r.Graphs != nil {
		for _, item := range items {
			if item.Err != nil {
				continue
			}
			rec := &pagegraph.GraphRecord{URL: item.Graph.Metadata.URL, Graph: item.Graph}
			if err := r.Graphs.CreateGraph(ctx, rec, item.html); err != nil {
				item.Err = err
				res.Failed++
				res.Analyzed--
				continue
			}
			item.Record = rec
			res.Saved++
		}
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	}

	return res, nil
}

// process fetches and analyzes a single source.
func (r *Runner) process(ctx context.Context, position int, source string) *Item {
	item := &Item{Position: position, Source: source}

	html, err := r.fetch(ctx, source)
	if err != nil {
		item.Err = err
		return item
	}
	item.html = html
	item.Bytes = len(html)

	g, err := r.Analyzer.Analyze(ctx, html, r.urlFor(source))
	if err != nil {
		item.Err = err
		return item
	}
	item.Graph = g

	return item
}

func (r *Runner) urlFor(source string) string {
	if r.URLFor != nil {
		return r.URLFor(source)
	}
	if source == "-" {
		return ""
	}
	return source
}

func (r *Runner) fetch(ctx context.Context, source string) (string, error) {
	if !pagegraph.IsURL(source) {
		if r.Files == nil {
			return "", pagegraph.Errorf(pagegraph.EINVALID, "cannot read local source %q", source)
		}
		return r.Files.Fetch(ctx, source)
	}
	if r.Fetcher == nil {
		return "", pagegraph.Errorf(pagegraph.EINVALID, "cannot fetch URL %q", source)
	}

	var host string
	if r.RateLimiter != nil {
		u, err := url.Parse(source)
		if err != nil {
			return "", pagegraph.Errorf(pagegraph.EINVALID, "invalid URL %q: %v", source, err)
		}
		host = u.Host
	}

	backoff := DefaultBackoff()
	if r.Retry != nil {
		backoff = r.Retry
	}
	if r.Logger != nil {
		b := *backoff
		b.OnRetry = func(attempt int, wait time.Duration, err error) {
			r.Logger.Warn("retrying fetch", "source", source, "attempt", attempt, "wait", wait, "err", err)
		}
		backoff = &b
	}

	var html string
	err := backoff.Do(ctx, func(ctx context.Context) error {
		if r.RateLimiter != nil {
			if err := r.RateLimiter.Wait(ctx, host); err != nil {
				return err
			}
		}
		var err error
		html, err = r.Fetcher.Fetch(ctx, source)
		return err
	})
	return html, err
}
