package pagegraph

import (
	"context"
	"math"
	"time"
)

// DefaultTitle is used when a document has no title.
const DefaultTitle = "Untitled"

// Graph is the complete result of analyzing one document.
type Graph struct {
	Objects       map[string]*Object `json:"objects"`
	Order         []string           `json:"order"` // object ids in document order
	Relationships []*Relationship    `json:"relationships"`
	Metadata      GraphMetadata      `json:"metadata"`
}

// GraphMetadata holds page-level facts about a graph.
type GraphMetadata struct {
	URL                string           `json:"url"`
	Title              string           `json:"title"`
	AnalyzedAt         time.Time        `json:"analyzedAt"`
	TotalObjects       int              `json:"totalObjects"`
	TotalRelationships int              `json:"totalRelationships"`
	Truncated          bool             `json:"truncated,omitempty"`
	Generator          Generator        `json:"generator,omitempty"`
	Performance        GraphPerformance `json:"performance"`
}

// GraphPerformance holds derived performance figures.
type GraphPerformance struct {
	AnalysisTime float64 `json:"analysisTime"` // milliseconds
	Complexity   float64 `json:"complexity"`
}

// Assemble merges objects and relationships into a graph, mirrors every
// relationship into both endpoints' adjacency lists and fills in counts and
// complexity. Objects must be in document order.
func Assemble(objects []*Object, relationships []*Relationship) *Graph {
	g := &Graph{
		Objects:       make(map[string]*Object, len(objects)),
		Order:         make([]string, 0, len(objects)),
		Relationships: relationships,
	}
	if g.Relationships == nil {
		g.Relationships = []*Relationship{}
	}
	for _, obj := range objects {
		if obj.Relationships == nil {
			obj.Relationships = []string{}
		}
		g.Objects[obj.ID] = obj
		g.Order = append(g.Order, obj.ID)
	}
	g.Link()

	g.Metadata.TotalObjects = len(g.Objects)
	g.Metadata.TotalRelationships = len(g.Relationships)
	g.Metadata.Performance.Complexity = Complexity(len(g.Objects), len(g.Relationships), g.MaxDepth())
	return g
}

// Link mirrors each relationship into the adjacency lists of both endpoints.
// Relationships whose endpoints are missing are skipped. Existing adjacency
// entries are kept and never duplicated.
func (g *Graph) Link() {
	seen := make(map[[2]string]struct{})
	for id, obj := range g.Objects {
		for _, other := range obj.Relationships {
			seen[[2]string{id, other}] = struct{}{}
		}
	}
	connect := func(obj *Object, other string) {
		key := [2]string{obj.ID, other}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		obj.Relationships = append(obj.Relationships, other)
	}

	for _, rel := range g.Relationships {
		src, ok := g.Objects[rel.Source]
		if !ok {
			continue
		}
		dst, ok := g.Objects[rel.Target]
		if !ok {
			continue
		}
		connect(src, dst.ID)
		connect(dst, src.ID)
	}
}

// ObjectList returns the objects in document order.
func (g *Graph) ObjectList() []*Object {
	list := make([]*Object, 0, len(g.Order))
	for _, id := range g.Order {
		if obj, ok := g.Objects[id]; ok {
			list = append(list, obj)
		}
	}
	return list
}

// MaxDepth returns the deepest object depth, or 0 for an empty graph.
func (g *Graph) MaxDepth() int {
	max := 0
	for _, obj := range g.Objects {
		if obj.Position.Depth > max {
			max = obj.Position.Depth
		}
	}
	return max
}

// Validate returns an error if the graph breaks referential integrity.
func (g *Graph) Validate() error {
	for id, obj := range g.Objects {
		if obj.ID != id {
			return Errorf(EINVALID, "object key %q does not match id %q", id, obj.ID)
		}
		if !obj.HasParent() {
			continue
		}
		parent, ok := g.Objects[obj.Position.Parent]
		if !ok {
			return Errorf(EINVALID, "object %q has unknown parent %q", id, obj.Position.Parent)
		}
		if obj.Position.Depth != parent.Position.Depth+1 {
			return Errorf(EINVALID, "object %q depth %d is not parent depth %d + 1",
				id, obj.Position.Depth, parent.Position.Depth)
		}
	}
	for _, rel := range g.Relationships {
		if _, ok := g.Objects[rel.Source]; !ok {
			return Errorf(EINVALID, "relationship %q has unknown source %q", rel.ID, rel.Source)
		}
		if _, ok := g.Objects[rel.Target]; !ok {
			return Errorf(EINVALID, "relationship %q has unknown target %q", rel.ID, rel.Target)
		}
	}
	return nil
}

// Complexity is the weighted page complexity score, rounded to two decimals.
// Depth dominates; the score is absolute, not normalized to page size.
func Complexity(objectCount, relationshipCount, maxDepth int) float64 {
	score := float64(objectCount)*0.3 + float64(relationshipCount)*0.4 + float64(maxDepth)*10
	return round2(score)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// AnalyzerOptions bounds the work done on a single document.
// Zero values mean unlimited.
type AnalyzerOptions struct {
	// MaxDepth skips elements (and their subtrees) deeper than this depth.
	MaxDepth int `json:"maxDepth" yaml:"max_depth"`

	// MaxObjects stops extraction once this many objects exist.
	MaxObjects int `json:"maxObjects" yaml:"max_objects"`
}

// Analyzer turns an HTML document into a Graph.
type Analyzer interface {
	// Analyze parses html and builds its structure graph.
	// The url is stored as metadata and never fetched.
	// Returns EINVALID if the document cannot be parsed.
	Analyze(ctx context.Context, html string, url string) (*Graph, error)
}

// Exporter serializes a graph to a wire format.
type Exporter interface {
	// Export returns the serialized graph.
	Export(g *Graph) (string, error)

	// Format returns the short format name (e.g., "graphml").
	Format() string
}
