package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/pagegraph"
)

// Ensure LoggingAnalyzer implements pagegraph.Analyzer.
var _ pagegraph.Analyzer = (*LoggingAnalyzer)(nil)

// LoggingAnalyzer wraps an Analyzer with logging.
type LoggingAnalyzer struct {
	next   pagegraph.Analyzer
	logger *slog.Logger
}

// NewLoggingAnalyzer creates a new LoggingAnalyzer.
func NewLoggingAnalyzer(next pagegraph.Analyzer, logger *slog.Logger) *LoggingAnalyzer {
	return &LoggingAnalyzer{next: next, logger: logger}
}

// Analyze delegates to the wrapped analyzer and logs graph size.
func (a *LoggingAnalyzer) Analyze(ctx context.Context, html, url string) (g *pagegraph.Graph, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
		}
		if g != nil {
			attrs = append(attrs,
				"objects", g.Metadata.TotalObjects,
				"relationships", g.Metadata.TotalRelationships,
				"complexity", g.Metadata.Performance.Complexity,
			)
			if g.Metadata.Truncated {
				attrs = append(attrs, "truncated", true)
			}
		}
		attrs = append(attrs, "err", err)
		a.logger.Info("analyze", attrs...)
	}(time.Now())
	return a.next.Analyze(ctx, html, url)
}
