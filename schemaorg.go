package pagegraph

import (
	"encoding/json"
	"strings"
	"time"
)

// SchemaOrgPage is a JSON-LD WebPage summarizing a graph.
type SchemaOrgPage struct {
	Context      string               `json:"@context"`
	Type         string               `json:"@type"`
	URL          string               `json:"url"`
	Name         string               `json:"name"`
	DateModified time.Time            `json:"dateModified"`
	MainEntity   SchemaOrgMainEntity  `json:"mainEntity"`
	HasPart      []SchemaOrgGraphPart `json:"hasPart"`
}

// SchemaOrgMainEntity summarizes the analysis figures.
type SchemaOrgMainEntity struct {
	Type               string  `json:"@type"`
	Name               string  `json:"name"`
	TotalObjects       int     `json:"totalObjects"`
	TotalRelationships int     `json:"totalRelationships"`
	Complexity         float64 `json:"complexity"`
	AnalysisTime       float64 `json:"analysisTime"`
}

// SchemaOrgGraphPart is one object that carries a schema.org type.
type SchemaOrgGraphPart struct {
	Type           string `json:"@type"`
	Identifier     string `json:"identifier"`
	Name           string `json:"name"`
	AdditionalType string `json:"additionalType,omitempty"`
}

// GenerateSchemaOrgData builds the JSON-LD summary of a graph.
// Parts are listed in document order.
func GenerateSchemaOrgData(g *Graph) *SchemaOrgPage {
	page := &SchemaOrgPage{
		Context:      "https://schema.org",
		Type:         "WebPage",
		URL:          g.Metadata.URL,
		Name:         g.Metadata.Title,
		DateModified: g.Metadata.AnalyzedAt,
		MainEntity: SchemaOrgMainEntity{
			Type:               "Dataset",
			Name:               "HTML structure analysis",
			TotalObjects:       g.Metadata.TotalObjects,
			TotalRelationships: g.Metadata.TotalRelationships,
			Complexity:         g.Metadata.Performance.Complexity,
			AnalysisTime:       g.Metadata.Performance.AnalysisTime,
		},
		HasPart: []SchemaOrgGraphPart{},
	}
	for _, obj := range g.ObjectList() {
		if obj.SchemaOrgType == "" {
			continue
		}
		name := obj.Text
		if name == "" {
			name = obj.Tag
		}
		page.HasPart = append(page.HasPart, SchemaOrgGraphPart{
			Type:           obj.SchemaOrgType,
			Identifier:     obj.ID,
			Name:           name,
			AdditionalType: obj.SemanticRole,
		})
	}
	return page
}

// SchemaTypeFromJSONLD returns the first usable @type found in a JSON-LD
// script body. Top-level arrays and @graph lists are searched in order.
// Malformed JSON yields false.
func SchemaTypeFromJSONLD(body string) (string, bool) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", false
	}
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return "", false
	}
	return findSchemaType(v)
}

func findSchemaType(v any) (string, bool) {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if t, ok := findSchemaType(item); ok {
				return t, true
			}
		}
	case map[string]any:
		if t, ok := schemaTypeValue(node["@type"]); ok {
			return t, true
		}
		if graph, ok := node["@graph"]; ok {
			return findSchemaType(graph)
		}
	}
	return "", false
}

func schemaTypeValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return "", false
		}
		return SchemaTypeFromItemtype(t), true
	case []any:
		for _, item := range t {
			if s, ok := schemaTypeValue(item); ok {
				return s, true
			}
		}
	}
	return "", false
}
