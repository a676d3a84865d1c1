package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/pagegraph"
	"github.com/fwojciec/pagegraph/batch"
	"github.com/fwojciec/pagegraph/etree"
)

// sourceWidth is the widest source shown in a progress line.
const sourceWidth = 60

// newExporter returns the exporter for a wire format.
func newExporter(format string) (pagegraph.Exporter, error) {
	switch format {
	case "json":
		return &pagegraph.JSONExporter{Indent: "  "}, nil
	case "jsonld":
		return &pagegraph.JSONLDExporter{Indent: "  "}, nil
	case "graphml":
		return etree.NewGraphMLExporter(2), nil
	}
	return nil, pagegraph.Errorf(pagegraph.EINVALID, "unknown format %q", format)
}

// render returns g in format, where "summary" is the plain-text report.
func render(g *pagegraph.Graph, format string) (string, error) {
	if format == "summary" {
		return pagegraph.FormatSummary(pagegraph.Summarize(g), pagegraph.Assess(g)), nil
	}
	exp, err := newExporter(format)
	if err != nil {
		return "", err
	}
	return exp.Export(g)
}

// extension returns the file extension used for format.
func extension(format string) string {
	if format == "summary" {
		return "txt"
	}
	return format
}

// progressLine renders a batch event for stderr. Only completed and failed
// sources produce a line.
func progressLine(e batch.ProgressEvent) (string, bool) {
	src := shortSource(e.Source, sourceWidth)
	switch e.Type {
	case batch.ProgressCompleted:
		return fmt.Sprintf("[%d/%d] %s (%s)", e.Completed, e.Total, src, humanBytes(e.Bytes)), true
	case batch.ProgressFailed:
		return fmt.Sprintf("[%d/%d] %s: %s", e.Completed, e.Total, src, pagegraph.ErrorMessage(e.Error)), true
	}
	return "", false
}

// shortSource drops the URL scheme and, past width, keeps the tail of the
// source, which names the page.
func shortSource(src string, width int) string {
	src = strings.TrimPrefix(src, "https://")
	src = strings.TrimPrefix(src, "http://")
	switch {
	case width <= 0:
		return ""
	case len(src) <= width:
		return src
	case width <= 3:
		return src[:width]
	}
	return "..." + src[len(src)-(width-3):]
}

// humanBytes formats a page size in B, KB or MB.
func humanBytes(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v, unit := float64(n)/1024, "KB"
	if v >= 1024 {
		v, unit = v/1024, "MB"
	}
	return fmt.Sprintf("%.1f %s", v, unit)
}
