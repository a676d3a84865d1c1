package batch_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/pagegraph"
	"github.com/fwojciec/pagegraph/batch"
	"github.com/fwojciec/pagegraph/goquery"
	"github.com/fwojciec/pagegraph/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pages(m map[string]string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, src string) (string, error) {
			html, ok := m[src]
			if !ok {
				return "", pagegraph.Errorf(pagegraph.ENOTFOUND, "not found: %s", src)
			}
			return html, nil
		},
	}
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	t.Run("returns zero result for no sources", func(t *testing.T) {
		t.Parallel()

		r := &batch.Runner{Analyzer: goquery.NewAnalyzer()}

		res, err := r.Run(context.Background(), nil, nil)

		require.NoError(t, err)
		assert.Equal(t, 0, res.Analyzed)
		assert.Equal(t, 0, res.Failed)
		assert.Empty(t, res.Items)
	})

	t.Run("analyzes URLs and files in input order", func(t *testing.T) {
		t.Parallel()

		r := &batch.Runner{
			Fetcher: pages(map[string]string{
				"https://example.com/a": `<html><head><title>A</title></head><body><p>a</p></body></html>`,
			}),
			Files: pages(map[string]string{
				"b.html": `<html><head><title>B</title></head><body><nav><a href="#x">x</a></nav></body></html>`,
			}),
			Analyzer:    goquery.NewAnalyzer(),
			Concurrency: 2,
			Retry:       &batch.Backoff{Delays: []time.Duration{0}},
		}

		res, err := r.Run(context.Background(), []string{"https://example.com/a", "b.html"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, res.Analyzed)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "A", res.Items[0].Graph.Metadata.Title)
		assert.Equal(t, "https://example.com/a", res.Items[0].Graph.Metadata.URL)
		assert.Equal(t, "B", res.Items[1].Graph.Metadata.Title)
		assert.Positive(t, res.Items[1].Bytes)
	})

	t.Run("counts failed sources without aborting", func(t *testing.T) {
		t.Parallel()

		r := &batch.Runner{
			Files:       pages(map[string]string{"ok.html": `<p>ok</p>`}),
			Analyzer:    goquery.NewAnalyzer(),
			Retry:       &batch.Backoff{Delays: []time.Duration{0}},
		}

		res, err := r.Run(context.Background(), []string{"missing.html", "ok.html"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Analyzed)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, pagegraph.ENOTFOUND, pagegraph.ErrorCode(res.Items[0].Err))
		assert.NoError(t, res.Items[1].Err)
	})

	t.Run("rejects URLs without a fetcher", func(t *testing.T) {
		t.Parallel()

		r := &batch.Runner{Analyzer: goquery.NewAnalyzer()}

		res, err := r.Run(context.Background(), []string{"https://example.com"}, nil)

		require.NoError(t, err)
		assert.Equal(t, pagegraph.EINVALID, pagegraph.ErrorCode(res.Items[0].Err))
	})

	t.Run("rate limits by host", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var hosts []string
		r := &batch.Runner{
			Fetcher: pages(map[string]string{
				"https://a.example.com/1": `<p>1</p>`,
				"https://b.example.com/2": `<p>2</p>`,
			}),
			Analyzer: goquery.NewAnalyzer(),
			RateLimiter: &mock.DomainLimiter{
				WaitFn: func(_ context.Context, domain string) error {
					mu.Lock()
					defer mu.Unlock()
					hosts = append(hosts, domain)
					return nil
				},
			},
			Retry:       &batch.Backoff{Delays: []time.Duration{0}},
		}

		_, err := r.Run(context.Background(), []string{"https://a.example.com/1", "https://b.example.com/2"}, nil)

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a.example.com", "b.example.com"}, hosts)
	})

	t.Run("retries transient fetch failures and logs them", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		calls := 0
		r := &batch.Runner{
			Fetcher: &mock.Fetcher{
				FetchFn: func(context.Context, string) (string, error) {
					calls++
					if calls == 1 {
						return "", errors.New("connection reset")
					}
					return `<p>ok</p>`, nil
				},
			},
			Analyzer: goquery.NewAnalyzer(),
			Retry:    &batch.Backoff{Delays: []time.Duration{0, 0}},
			Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
		}

		res, err := r.Run(context.Background(), []string{"https://example.com/flaky"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Analyzed)
		assert.Equal(t, 2, calls)
		assert.Contains(t, logs.String(), "retrying fetch")
		assert.Contains(t, logs.String(), "attempt=1")
		assert.Contains(t, logs.String(), `err="connection reset"`)
	})

	t.Run("saves graphs in input order", func(t *testing.T) {
		t.Parallel()

		var saved []string
		r := &batch.Runner{
			Files:    pages(map[string]string{"1.html": `<p>1</p>`, "2.html": `<p>2</p>`, "3.html": `<p>3</p>`}),
			Analyzer: goquery.NewAnalyzer(),
			Graphs: &mock.GraphService{
				CreateGraphFn: func(_ context.Context, rec *pagegraph.GraphRecord, html string) error {
					saved = append(saved, html)
					rec.ID = "id-" + html
					return nil
				},
			},
			Concurrency: 3,
		}

		res, err := r.Run(context.Background(), []string{"1.html", "2.html", "3.html"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, res.Saved)
		assert.Equal(t, []string{`<p>1</p>`, `<p>2</p>`, `<p>3</p>`}, saved)
		assert.Equal(t, "id-<p>2</p>", res.Items[1].Record.ID)
	})

	t.Run("counts save failures", func(t *testing.T) {
		t.Parallel()

		r := &batch.Runner{
			Files:    pages(map[string]string{"1.html": `<p>1</p>`}),
			Analyzer: goquery.NewAnalyzer(),
			Graphs: &mock.GraphService{
				CreateGraphFn: func(context.Context, *pagegraph.GraphRecord, string) error {
					return errors.New("disk full")
				},
			},
		}

		res, err := r.Run(context.Background(), []string{"1.html"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 0, res.Saved)
		assert.Equal(t, 0, res.Analyzed)
		assert.Equal(t, 1, res.Failed)
		assert.EqualError(t, res.Items[0].Err, "disk full")
	})

	t.Run("calls progress callback with events", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var events []batch.ProgressEvent
		r := &batch.Runner{
			Files:    pages(map[string]string{"ok.html": `<p>ok</p>`}),
			Analyzer: goquery.NewAnalyzer(),
		}

		_, err := r.Run(context.Background(), []string{"ok.html", "bad.html"}, func(e batch.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		})

		require.NoError(t, err)
		require.Len(t, events, 4)
		assert.Equal(t, batch.ProgressStarted, events[0].Type)
		assert.Equal(t, 2, events[0].Total)
		assert.Equal(t, batch.ProgressFinished, events[3].Type)

		var types []batch.ProgressType
		for _, e := range events[1:3] {
			types = append(types, e.Type)
		}
		assert.ElementsMatch(t, []batch.ProgressType{batch.ProgressCompleted, batch.ProgressFailed}, types)
	})

	t.Run("returns context error when canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := &batch.Runner{
			Files:    pages(map[string]string{"ok.html": `<p>ok</p>`}),
			Analyzer: goquery.NewAnalyzer(),
		}

		_, err := r.Run(ctx, []string{"ok.html"}, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("records URLFor in graph metadata", func(t *testing.T) {
		t.Parallel()

		r := &batch.Runner{
			Files:    pages(map[string]string{"-": `<p>piped</p>`}),
			Analyzer: goquery.NewAnalyzer(),
			URLFor:   func(string) string { return "https://example.com/original" },
		}

		res, err := r.Run(context.Background(), []string{"-"}, nil)

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/original", res.Items[0].Graph.Metadata.URL)
	})

	t.Run("records no URL for stdin by default", func(t *testing.T) {
		t.Parallel()

		r := &batch.Runner{
			Files:    pages(map[string]string{"-": `<p>piped</p>`}),
			Analyzer: goquery.NewAnalyzer(),
		}

		res, err := r.Run(context.Background(), []string{"-"}, nil)

		require.NoError(t, err)
		assert.Empty(t, res.Items[0].Graph.Metadata.URL)
	})
}
