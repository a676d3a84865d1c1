package goquery

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/pagegraph"
	"golang.org/x/net/html"
)

// Ensure Analyzer implements pagegraph.Analyzer at compile time.
var _ pagegraph.Analyzer = (*Analyzer)(nil)

const jsonLDSelector = `script[type="application/ld+json"]`

// Analyzer builds structure graphs from HTML documents.
// Analyzer is safe for concurrent use; object ids are unique across all
// graphs produced by the same Analyzer.
type Analyzer struct {
	ids      *pagegraph.IDCounter
	opts     pagegraph.AnalyzerOptions
	detector pagegraph.GeneratorDetector
	now      func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithIDCounter sets the counter used for object ids.
func WithIDCounter(c *pagegraph.IDCounter) Option {
	return func(a *Analyzer) {
		a.ids = c
	}
}

// WithLimits bounds the depth and number of extracted objects.
func WithLimits(opts pagegraph.AnalyzerOptions) Option {
	return func(a *Analyzer) {
		a.opts = opts
	}
}

// WithDetector records the detected site generator in graph metadata.
func WithDetector(d pagegraph.GeneratorDetector) Option {
	return func(a *Analyzer) {
		a.detector = d
	}
}

// WithClock replaces time.Now for AnalyzedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer creates a new Analyzer with its own id counter.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		ids: pagegraph.NewIDCounter("obj_"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze parses html and builds its structure graph.
func (a *Analyzer) Analyze(ctx context.Context, s string, url string) (*pagegraph.Graph, error) {
	begin := time.Now()

	doc, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return a.analyze(ctx, doc, s, url, begin)
}

// AnalyzeDocument builds the structure graph of an already parsed document.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, doc *goquery.Document, url string) (*pagegraph.Graph, error) {
	return a.analyze(ctx, doc, "", url, time.Now())
}

func (a *Analyzer) analyze(ctx context.Context, doc *goquery.Document, src, url string, begin time.Time) (*pagegraph.Graph, error) {
	objects, truncated, err := a.extract(ctx, doc, TraversalRoot(doc))
	if err != nil {
		return nil, err
	}

	g := pagegraph.Assemble(objects, pagegraph.BuildRelationships(objects))
	g.Metadata.URL = url
	g.Metadata.Title = Title(doc)
	g.Metadata.Truncated = truncated
	if a.detector != nil {
		g.Metadata.Generator = a.detect(doc, src)
	}
	g.Metadata.Performance.AnalysisTime = float64(time.Since(begin).Microseconds()) / 1000
	g.Metadata.AnalyzedAt = a.now().UTC()
	return g, nil
}

// documentDetector is implemented by detectors that can reuse a parsed document.
type documentDetector interface {
	DetectDocument(doc *goquery.Document) pagegraph.Generator
}

func (a *Analyzer) detect(doc *goquery.Document, src string) pagegraph.Generator {
	if d, ok := a.detector.(documentDetector); ok {
		return d.DetectDocument(doc)
	}
	if src == "" {
		src, _ = goquery.OuterHtml(doc.Selection)
	}
	return a.detector.Detect(src)
}

// frame is one pending element of the depth-first walk.
type frame struct {
	node   *html.Node
	depth  int
	index  int
	parent string
}

// extract walks the tree below root depth-first in document order and
// returns one object per element. It uses an explicit stack so deeply
// nested documents cannot exhaust the goroutine stack.
func (a *Analyzer) extract(ctx context.Context, doc *goquery.Document, root *html.Node) ([]*pagegraph.Object, bool, error) {
	objects := []*pagegraph.Object{}
	if root == nil || root.Type != html.ElementNode {
		return objects, false, nil
	}

	schemaTypes := make(map[*html.Node]string)
	truncated := false
	stack := []frame{{node: root}}
	var children []*html.Node

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if a.opts.MaxDepth > 0 && f.depth > a.opts.MaxDepth {
			truncated = true
			continue
		}
		if a.opts.MaxObjects > 0 && len(objects) >= a.opts.MaxObjects {
			truncated = true
			break
		}

		obj := a.newObject(doc, f, schemaTypes)
		objects = append(objects, obj)

		children = elementChildren(f.node, children[:0])
		// Push in reverse so the first child is popped first.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				node:   children[i],
				depth:  f.depth + 1,
				index:  i,
				parent: obj.ID,
			})
		}
	}
	return objects, truncated, nil
}

func (a *Analyzer) newObject(doc *goquery.Document, f frame, schemaTypes map[*html.Node]string) *pagegraph.Object {
	n := f.node
	tag := strings.ToLower(n.Data)
	attrs := attributes(n)
	text := directText(n)

	obj := &pagegraph.Object{
		ID:            a.ids.Next(),
		Type:          pagegraph.ClassifyTag(tag),
		Tag:           tag,
		Attributes:    attrs,
		Text:          text,
		Relationships: []string{},
		Position: pagegraph.Position{
			Depth:  f.depth,
			Index:  f.index,
			Parent: f.parent,
		},
		SemanticRole:  pagegraph.InferSemanticRole(tag, attrs),
		SchemaOrgType: schemaType(doc, n, attrs, schemaTypes),
	}

	size := len(text) + outerHTMLLen(n)
	for k, v := range attrs {
		size += len(k) + len(v)
	}
	obj.Performance.Size = size
	return obj
}

// schemaType returns the itemtype's last path segment, or else the first
// valid @type among JSON-LD scripts below the element's parent. Results for
// a parent are cached since all its children share them.
func schemaType(doc *goquery.Document, n *html.Node, attrs map[string]string, cache map[*html.Node]string) string {
	if itemtype, ok := attrs["itemtype"]; ok && strings.TrimSpace(itemtype) != "" {
		return pagegraph.SchemaTypeFromItemtype(itemtype)
	}
	parent := n.Parent
	if parent == nil {
		return ""
	}
	if t, ok := cache[parent]; ok {
		return t
	}
	var found string
	selectionFor(doc, parent).Find(jsonLDSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t, ok := pagegraph.SchemaTypeFromJSONLD(s.Text()); ok {
			found = t
			return false
		}
		return true
	})
	cache[parent] = found
	return found
}

// attributes copies element attributes verbatim. Namespaced attributes
// (e.g. xlink:href) keep their prefix.
func attributes(n *html.Node) map[string]string {
	attrs := make(map[string]string, len(n.Attr))
	for _, attr := range n.Attr {
		key := attr.Key
		if attr.Namespace != "" {
			key = attr.Namespace + ":" + key
		}
		attrs[key] = attr.Val
	}
	return attrs
}

// directText joins the element's own text nodes, ignoring descendants.
func directText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

func elementChildren(n *html.Node, buf []*html.Node) []*html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			buf = append(buf, c)
		}
	}
	return buf
}

// countWriter counts bytes written to it.
type countWriter struct {
	n int
}

func (w *countWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	return len(p), nil
}

// outerHTMLLen returns the length of the serialized element.
func outerHTMLLen(n *html.Node) int {
	var w countWriter
	_ = html.Render(&w, n)
	return w.n
}
