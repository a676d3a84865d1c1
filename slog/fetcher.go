// Package slog provides logging decorators for pagegraph services using log/slog.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/pagegraph"
)

var _ pagegraph.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher and records every page it retrieves.
// Successful fetches log at Info, failures at Warn with their error code.
type LoggingFetcher struct {
	next   pagegraph.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next pagegraph.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, source string) (html string, err error) {
	defer func(begin time.Time) {
		if err != nil {
			f.logger.Warn("fetch",
				"source", source,
				"code", pagegraph.ErrorCode(err),
				"duration", time.Since(begin),
				"err", err,
			)
			return
		}
		f.logger.Info("fetch",
			"source", source,
			"bytes", len(html),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return f.next.Fetch(ctx, source)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() (err error) {
	defer func() {
		f.logger.Debug("fetcher closed", "err", err)
	}()
	return f.next.Close()
}
