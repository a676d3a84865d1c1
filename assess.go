package pagegraph

import (
	"fmt"
	"sort"
	"strings"
)

// Severity ranks an alert.
type Severity string

// Severity levels.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Complexity and nesting thresholds used by Assess.
const (
	ComplexityWarning  = 100.0
	ComplexityCritical = 250.0
	MaxHealthyDepth    = 15
)

// Alert flags a structural problem on the page.
type Alert struct {
	Severity  Severity `json:"severity"`
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	ObjectIDs []string `json:"objectIds,omitempty"`
}

// Assessment is the list of alerts and recommendations for one graph.
type Assessment struct {
	Alerts          []Alert  `json:"alerts"`
	Recommendations []string `json:"recommendations"`
}

// Assess inspects a graph and reports problems worth fixing.
// Alerts are ordered by severity, critical first.
func Assess(g *Graph) *Assessment {
	a := &Assessment{Alerts: []Alert{}, Recommendations: []string{}}
	complexity := g.Metadata.Performance.Complexity

	switch {
	case complexity >= ComplexityCritical:
		a.alert(SeverityCritical, "complexity", fmt.Sprintf("complexity %.2f exceeds %.0f", complexity, ComplexityCritical))
		a.recommend("Split the page into smaller components and flatten wrapper elements")
	case complexity >= ComplexityWarning:
		a.alert(SeverityWarning, "complexity", fmt.Sprintf("complexity %.2f exceeds %.0f", complexity, ComplexityWarning))
		a.recommend("Reduce nesting and remove redundant wrapper elements")
	}

	if depth := g.MaxDepth(); depth > MaxHealthyDepth {
		a.alert(SeverityWarning, "deep-nesting", fmt.Sprintf("maximum depth %d exceeds %d", depth, MaxHealthyDepth))
	}

	objects := g.ObjectList()
	referenced := make(map[string]bool)
	labelled := make(map[string]bool)
	for _, rel := range g.Relationships {
		switch rel.Type {
		case RelReference:
			referenced[rel.Source] = true
		case RelSemantic:
			labelled[rel.Target] = true
		}
	}

	var brokenLinks, missingAlt, unlabelled []string
	var hasMain, hasH1, hasHeading, hasSchema bool
	for _, obj := range objects {
		if href, ok := obj.Attr("href"); ok && len(href) > 1 && href[0] == '#' && !referenced[obj.ID] {
			brokenLinks = append(brokenLinks, obj.ID)
		}
		if obj.Tag == "img" {
			if alt, ok := obj.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
				missingAlt = append(missingAlt, obj.ID)
			}
		}
		if isLabelable(obj) && !labelled[obj.ID] && !hasAccessibleName(obj) {
			unlabelled = append(unlabelled, obj.ID)
		}
		if obj.SemanticRole == RoleMainContent || obj.SemanticRole == "main" {
			hasMain = true
		}
		if obj.Tag == "h1" {
			hasH1 = true
		}
		if len(obj.Tag) == 2 && obj.Tag[0] == 'h' && obj.Tag[1] >= '1' && obj.Tag[1] <= '6' {
			hasHeading = true
		}
		if obj.SchemaOrgType != "" {
			hasSchema = true
		}
	}

	if len(brokenLinks) > 0 {
		a.alertObjects(SeverityWarning, "broken-fragment", fmt.Sprintf("%d fragment links have no target", len(brokenLinks)), brokenLinks)
	}
	if len(missingAlt) > 0 {
		a.alertObjects(SeverityWarning, "missing-alt", fmt.Sprintf("%d images have no alt text", len(missingAlt)), missingAlt)
		a.recommend("Add descriptive alt text to images")
	}
	if len(unlabelled) > 0 {
		a.alertObjects(SeverityInfo, "unlabelled-control", fmt.Sprintf("%d form controls have no label", len(unlabelled)), unlabelled)
		a.recommend("Associate every form control with a <label for> element")
	}
	if len(objects) > 0 && !hasMain {
		a.recommend("Wrap the primary content in a <main> landmark")
	}
	if hasHeading && !hasH1 {
		a.alert(SeverityInfo, "missing-h1", "page has headings but no h1")
	}
	if len(objects) > 0 && !hasSchema {
		a.recommend("Add schema.org structured data (JSON-LD or microdata)")
	}

	sort.SliceStable(a.Alerts, func(i, j int) bool {
		return severityRank(a.Alerts[i].Severity) > severityRank(a.Alerts[j].Severity)
	})
	return a
}

func (a *Assessment) alert(sev Severity, code, msg string) {
	a.Alerts = append(a.Alerts, Alert{Severity: sev, Code: code, Message: msg})
}

func (a *Assessment) alertObjects(sev Severity, code, msg string, ids []string) {
	a.Alerts = append(a.Alerts, Alert{Severity: sev, Code: code, Message: msg, ObjectIDs: ids})
}

func (a *Assessment) recommend(msg string) {
	a.Recommendations = append(a.Recommendations, msg)
}

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

func isLabelable(obj *Object) bool {
	switch obj.Tag {
	case "select", "textarea":
		return true
	case "input":
		switch strings.ToLower(obj.Attributes["type"]) {
		case "hidden", "submit", "button", "reset", "image":
			return false
		}
		return true
	}
	return false
}

func hasAccessibleName(obj *Object) bool {
	for _, attr := range []string{"aria-label", "aria-labelledby", "title"} {
		if strings.TrimSpace(obj.Attributes[attr]) != "" {
			return true
		}
	}
	return false
}
