// Package etree serializes pagegraph graphs as GraphML using
// github.com/beevik/etree.
package etree

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/pagegraph"
)

// Ensure GraphMLExporter implements pagegraph.Exporter at compile time.
var _ pagegraph.Exporter = (*GraphMLExporter)(nil)

// GraphMLNamespace is the GraphML XML namespace.
const GraphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

// graphMLKey declares a data attribute in the GraphML header.
type graphMLKey struct {
	id, domain, name, typ string
}

// Attribute names are part of the export contract; edge key ids are
// prefixed so they do not collide with node keys of the same name.
// Consumers should look keys up by attr.name, not by id.
var graphMLKeys = []graphMLKey{
	{"type", "node", "type", "string"},
	{"tag", "node", "tag", "string"},
	{"semanticRole", "node", "semanticRole", "string"},
	{"schemaOrgType", "node", "schemaOrgType", "string"},
	{"size", "node", "size", "int"},
	{"depth", "node", "depth", "int"},
	{"edgeType", "edge", "type", "string"},
	{"strength", "edge", "strength", "double"},
}

// GraphMLExporter writes graphs as GraphML documents.
type GraphMLExporter struct {
	indent int
}

// NewGraphMLExporter creates a new GraphMLExporter that indents with
// the given number of spaces. Zero disables indentation.
func NewGraphMLExporter(indent int) *GraphMLExporter {
	return &GraphMLExporter{indent: indent}
}

// Format returns "graphml".
func (e *GraphMLExporter) Format() string {
	return "graphml"
}

// Export returns g as a GraphML document. Nodes appear in document order,
// edges in discovery order. Values are XML-escaped.
func (e *GraphMLExporter) Export(g *pagegraph.Graph) (string, error) {
	doc := e.document(g)
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("writing GraphML: %w", err)
	}
	return s, nil
}

// WriteTo writes g as GraphML to w.
func (e *GraphMLExporter) WriteTo(w io.Writer, g *pagegraph.Graph) (int64, error) {
	return e.document(g).WriteTo(w)
}

func (e *GraphMLExporter) document(g *pagegraph.Graph) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("graphml")
	root.CreateAttr("xmlns", GraphMLNamespace)

	for _, k := range graphMLKeys {
		key := root.CreateElement("key")
		key.CreateAttr("id", k.id)
		key.CreateAttr("for", k.domain)
		key.CreateAttr("attr.name", k.name)
		key.CreateAttr("attr.type", k.typ)
	}

	graph := root.CreateElement("graph")
	graph.CreateAttr("id", "G")
	graph.CreateAttr("edgedefault", "directed")

	for _, obj := range g.ObjectList() {
		node := graph.CreateElement("node")
		node.CreateAttr("id", obj.ID)
		addData(node, "type", string(obj.Type))
		addData(node, "tag", obj.Tag)
		addData(node, "semanticRole", obj.SemanticRole)
		addData(node, "schemaOrgType", obj.SchemaOrgType)
		addData(node, "size", strconv.Itoa(obj.Performance.Size))
		addData(node, "depth", strconv.Itoa(obj.Position.Depth))
	}

	for _, rel := range g.Relationships {
		edge := graph.CreateElement("edge")
		edge.CreateAttr("id", rel.ID)
		edge.CreateAttr("source", rel.Source)
		edge.CreateAttr("target", rel.Target)
		addData(edge, "edgeType", string(rel.Type))
		addData(edge, "strength", strconv.FormatFloat(rel.Strength, 'f', -1, 64))
	}

	if e.indent > 0 {
		doc.Indent(e.indent)
	}
	return doc
}

func addData(parent *etree.Element, key, value string) {
	data := parent.CreateElement("data")
	data.CreateAttr("key", key)
	data.SetText(value)
}

// GraphMLGraph is the structure read back from a GraphML document.
type GraphMLGraph struct {
	Nodes []GraphMLNode
	Edges []GraphMLEdge
}

// GraphMLNode is a node with its data values keyed by attribute name.
type GraphMLNode struct {
	ID   string
	Data map[string]string
}

// GraphMLEdge is an edge with its data values keyed by attribute name.
type GraphMLEdge struct {
	ID     string
	Source string
	Target string
	Data   map[string]string
}

// ReadGraphML parses a GraphML document. Data values are keyed by the
// attr.name declared in the header, so node and edge "type" both appear
// under "type".
func ReadGraphML(r io.Reader) (*GraphMLGraph, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, pagegraph.Errorf(pagegraph.EINVALID, "parsing GraphML: %v", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "graphml" {
		return nil, pagegraph.Errorf(pagegraph.EINVALID, "missing graphml root element")
	}

	names := make(map[string]string)
	for _, key := range root.SelectElements("key") {
		id := key.SelectAttrValue("id", "")
		names[id] = key.SelectAttrValue("attr.name", id)
	}

	graph := root.SelectElement("graph")
	if graph == nil {
		return nil, pagegraph.Errorf(pagegraph.EINVALID, "missing graph element")
	}

	out := &GraphMLGraph{}
	for _, n := range graph.SelectElements("node") {
		out.Nodes = append(out.Nodes, GraphMLNode{
			ID:   n.SelectAttrValue("id", ""),
			Data: readData(n, names),
		})
	}
	for _, e := range graph.SelectElements("edge") {
		out.Edges = append(out.Edges, GraphMLEdge{
			ID:     e.SelectAttrValue("id", ""),
			Source: e.SelectAttrValue("source", ""),
			Target: e.SelectAttrValue("target", ""),
			Data:   readData(e, names),
		})
	}
	return out, nil
}

// ReadGraphMLString is like ReadGraphML for a string.
func ReadGraphMLString(s string) (*GraphMLGraph, error) {
	return ReadGraphML(strings.NewReader(s))
}

func readData(el *etree.Element, names map[string]string) map[string]string {
	data := make(map[string]string)
	for _, d := range el.SelectElements("data") {
		key := d.SelectAttrValue("key", "")
		if name, ok := names[key]; ok {
			key = name
		}
		data[key] = d.Text()
	}
	return data
}
