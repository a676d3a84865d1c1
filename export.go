package pagegraph

import (
	"encoding/json"
	"fmt"
)

var (
	_ Exporter = (*JSONExporter)(nil)
	_ Exporter = (*JSONLDExporter)(nil)
)

// JSONExporter writes the full graph as JSON.
type JSONExporter struct {
	Indent string
}

// Format returns "json".
func (e *JSONExporter) Format() string { return "json" }

// Export returns g as a JSON document.
func (e *JSONExporter) Export(g *Graph) (string, error) {
	return marshal(g, e.Indent)
}

// JSONLDExporter writes the schema.org description of a graph.
type JSONLDExporter struct {
	Indent string
}

// Format returns "jsonld".
func (e *JSONLDExporter) Format() string { return "jsonld" }

// Export returns the schema.org JSON-LD document for g.
func (e *JSONLDExporter) Export(g *Graph) (string, error) {
	return marshal(GenerateSchemaOrgData(g), e.Indent)
}

func marshal(v any, indent string) (string, error) {
	var buf []byte
	var err error
	if indent != "" {
		buf, err = json.MarshalIndent(v, "", indent)
	} else {
		buf, err = json.Marshal(v)
	}
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	return string(buf), nil
}

// ParseGraphJSON decodes a graph written by JSONExporter and restores the
// adjacency lists when they were omitted.
func ParseGraphJSON(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, Errorf(EINVALID, "invalid graph JSON: %v", err)
	}
	if g.Objects == nil {
		g.Objects = map[string]*Object{}
	}
	if g.Relationships == nil {
		g.Relationships = []*Relationship{}
	}
	for _, obj := range g.Objects {
		if obj.Relationships == nil {
			obj.Relationships = []string{}
		}
	}
	g.Link()
	return &g, nil
}
