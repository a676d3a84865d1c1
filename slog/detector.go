package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/pagegraph"
)

// Ensure LoggingDetector implements pagegraph.GeneratorDetector.
var _ pagegraph.GeneratorDetector = (*LoggingDetector)(nil)

// LoggingDetector wraps a GeneratorDetector with debug logging.
type LoggingDetector struct {
	next   pagegraph.GeneratorDetector
	logger *slog.Logger
}

// NewLoggingDetector creates a new LoggingDetector.
func NewLoggingDetector(next pagegraph.GeneratorDetector, logger *slog.Logger) *LoggingDetector {
	return &LoggingDetector{next: next, logger: logger}
}

// Detect delegates to the wrapped detector and logs the result.
func (d *LoggingDetector) Detect(html string) pagegraph.Generator {
	begin := time.Now()
	generator := d.next.Detect(html)
	name := string(generator)
	if generator == pagegraph.GeneratorUnknown {
		name = "(unknown)"
	}
	d.logger.Debug("generator detection",
		"generator", name,
		"duration", time.Since(begin),
	)
	return generator
}
