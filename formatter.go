package pagegraph

import (
	"fmt"
	"sort"
	"strings"
)

// FormatSummary renders a summary and optional assessment as plain text
// for terminal output.
func FormatSummary(s *Summary, a *Assessment) string {
	var b strings.Builder

	title := s.Title
	if title == "" {
		title = DefaultTitle
	}
	fmt.Fprintf(&b, "%s\n", title)
	if s.URL != "" {
		fmt.Fprintf(&b, "  url:           %s\n", s.URL)
	}
	if s.Generator != GeneratorUnknown {
		fmt.Fprintf(&b, "  generator:     %s\n", s.Generator)
	}
	fmt.Fprintf(&b, "  objects:       %d\n", s.TotalObjects)
	fmt.Fprintf(&b, "  relationships: %d\n", s.TotalRelationships)
	fmt.Fprintf(&b, "  max depth:     %d\n", s.MaxDepth)
	fmt.Fprintf(&b, "  complexity:    %.2f\n", s.Complexity)
	fmt.Fprintf(&b, "  analysis time: %.2fms\n", s.AnalysisTime)
	if s.Truncated {
		b.WriteString("  truncated:     yes\n")
	}

	writeCounts(&b, "objects by type", s.ObjectsByType)
	writeCounts(&b, "objects by role", s.ObjectsByRole)
	writeCounts(&b, "relationships by type", s.RelationshipsByType)

	if len(s.SchemaOrgTypes) > 0 {
		fmt.Fprintf(&b, "schema.org types: %s\n", strings.Join(s.SchemaOrgTypes, ", "))
	}

	if a != nil {
		for _, alert := range a.Alerts {
			fmt.Fprintf(&b, "[%s] %s: %s\n", alert.Severity, alert.Code, alert.Message)
		}
		for _, rec := range a.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	return b.String()
}

// writeCounts writes a sorted "key: n" block. Empty maps are skipped.
func writeCounts[K ~string](b *strings.Builder, heading string, counts map[K]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]K, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	fmt.Fprintf(b, "%s:\n", heading)
	for _, k := range keys {
		fmt.Fprintf(b, "  %-16s %d\n", string(k), counts[k])
	}
}
