package pagegraph

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// ObjectType classifies an element by its tag.
type ObjectType string

// ObjectType constants. Every tag maps to exactly one of them.
const (
	ObjectInteractive ObjectType = "interactive"
	ObjectMedia       ObjectType = "media"
	ObjectStructural  ObjectType = "structural"
	ObjectContent     ObjectType = "content"
	ObjectData        ObjectType = "data"
	ObjectForm        ObjectType = "form"
	ObjectOther       ObjectType = "other"
)

// Object is one extracted HTML element.
type Object struct {
	ID            string            `json:"id"`
	Type          ObjectType        `json:"type"`
	Tag           string            `json:"tag"`
	Attributes    map[string]string `json:"attributes"`
	Text          string            `json:"text"`
	Position      Position          `json:"position"`
	Relationships []string          `json:"relationships"`
	SemanticRole  string            `json:"semanticRole,omitempty"`
	SchemaOrgType string            `json:"schemaOrgType,omitempty"`
	Performance   ObjectPerformance `json:"performance"`
}

// Position locates an object in the traversal tree.
// Parent is empty for the traversal root.
type Position struct {
	Depth  int    `json:"depth"`
	Index  int    `json:"index"`
	Parent string `json:"parent,omitempty"`
}

// ObjectPerformance carries per-object weight estimates.
type ObjectPerformance struct {
	// Size is text length plus attribute name and value lengths plus the
	// length of the serialized element. It is a relative weight, not bytes.
	Size int `json:"size"`
}

// Attr returns the value of the named attribute and whether it is present.
func (o *Object) Attr(name string) (string, bool) {
	v, ok := o.Attributes[name]
	return v, ok
}

// HasParent reports whether the object has a parent in the graph.
func (o *Object) HasParent() bool {
	return o.Position.Parent != ""
}

// ObjectRow is the flattened storage form of an Object.
type ObjectRow struct {
	ID            string
	Type          string
	Tag           string
	SemanticRole  string
	SchemaOrgType string
	Text          string
	Depth         int
	Index         int
	ParentID      string
	Size          int
	Attributes    string // JSON
}

// Row flattens the object for row-oriented storage.
func (o *Object) Row() (ObjectRow, error) {
	attrs := o.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	buf, err := json.Marshal(attrs)
	if err != nil {
		return ObjectRow{}, fmt.Errorf("marshal attributes of %s: %w", o.ID, err)
	}
	return ObjectRow{
		ID:            o.ID,
		Type:          string(o.Type),
		Tag:           o.Tag,
		SemanticRole:  o.SemanticRole,
		SchemaOrgType: o.SchemaOrgType,
		Text:          o.Text,
		Depth:         o.Position.Depth,
		Index:         o.Position.Index,
		ParentID:      o.Position.Parent,
		Size:          o.Performance.Size,
		Attributes:    string(buf),
	}, nil
}

// ObjectFromRow rebuilds an Object from its storage form.
// The adjacency list is left empty; Graph.Link restores it.
func ObjectFromRow(row ObjectRow) (*Object, error) {
	attrs := map[string]string{}
	if row.Attributes != "" {
		if err := json.Unmarshal([]byte(row.Attributes), &attrs); err != nil {
			return nil, fmt.Errorf("unmarshal attributes of %s: %w", row.ID, err)
		}
	}
	return &Object{
		ID:            row.ID,
		Type:          ObjectType(row.Type),
		Tag:           row.Tag,
		Attributes:    attrs,
		Text:          row.Text,
		Position:      Position{Depth: row.Depth, Index: row.Index, Parent: row.ParentID},
		Relationships: []string{},
		SemanticRole:  row.SemanticRole,
		SchemaOrgType: row.SchemaOrgType,
		Performance:   ObjectPerformance{Size: row.Size},
	}, nil
}

// IDCounter hands out sequential identifiers with a fixed prefix.
// It is safe for concurrent use.
type IDCounter struct {
	prefix string
	n      atomic.Uint64
}

// NewIDCounter returns a counter producing prefix1, prefix2, ...
func NewIDCounter(prefix string) *IDCounter {
	return &IDCounter{prefix: prefix}
}

// Next returns the next identifier.
func (c *IDCounter) Next() string {
	return fmt.Sprintf("%s%d", c.prefix, c.n.Add(1))
}
