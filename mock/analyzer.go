package mock

import (
	"context"

	"github.com/fwojciec/pagegraph"
)

var _ pagegraph.Analyzer = (*Analyzer)(nil)

// Analyzer is a mock implementation of pagegraph.Analyzer.
type Analyzer struct {
	AnalyzeFn func(ctx context.Context, html, url string) (*pagegraph.Graph, error)
}

func (a *Analyzer) Analyze(ctx context.Context, html, url string) (*pagegraph.Graph, error) {
	return a.AnalyzeFn(ctx, html, url)
}

var _ pagegraph.GeneratorDetector = (*GeneratorDetector)(nil)

// GeneratorDetector is a mock implementation of pagegraph.GeneratorDetector.
type GeneratorDetector struct {
	DetectFn func(html string) pagegraph.Generator
}

func (d *GeneratorDetector) Detect(html string) pagegraph.Generator {
	return d.DetectFn(html)
}
