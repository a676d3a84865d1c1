package pagegraph

import (
	"encoding/json"
	"fmt"
)

// RelationshipType names the kind of connection between two objects.
type RelationshipType string

// RelationshipType constants.
const (
	RelParentChild RelationshipType = "parent-child"
	RelSibling     RelationshipType = "sibling"
	RelReference   RelationshipType = "reference"
	RelSemantic    RelationshipType = "semantic"
	RelNavigation  RelationshipType = "navigation"
	RelContent     RelationshipType = "content"
)

// Fixed relationship strengths. They are relative signals, not probabilities.
const (
	StrengthParentChild = 1.0
	StrengthLabelFor    = 0.9
	StrengthNavigation  = 0.9
	StrengthReference   = 0.8
	StrengthSibling     = 0.6
)

// Relationship is a directed edge between two objects.
type Relationship struct {
	ID       string               `json:"id"`
	Source   string               `json:"source"`
	Target   string               `json:"target"`
	Type     RelationshipType     `json:"type"`
	Strength float64              `json:"strength"`
	Metadata RelationshipMetadata `json:"metadata"`
}

// RelationshipMetadata is the type-specific context of a relationship.
// The concrete type is determined by the relationship type.
type RelationshipMetadata interface {
	relationshipMetadata()
}

// ParentChildMetadata describes where the child sits under its parent.
type ParentChildMetadata struct {
	Depth int `json:"depth"`
	Index int `json:"index"`
}

// ReferenceMetadata records the attribute that produced a reference edge.
type ReferenceMetadata struct {
	ReferenceType string `json:"referenceType"`
	Value         string `json:"value"`
}

// LabelForMetadata links a label to the form control it describes.
type LabelForMetadata struct {
	Relationship string `json:"relationship"`
	FormControl  string `json:"formControl"`
}

// SiblingMetadata names the shared parent and object type.
type SiblingMetadata struct {
	CommonParent string     `json:"commonParent"`
	SharedType   ObjectType `json:"sharedType"`
}

// NavigationMetadata describes a link contained in a navigation element.
type NavigationMetadata struct {
	NavType  string `json:"navType"`
	LinkText string `json:"linkText"`
}

func (ParentChildMetadata) relationshipMetadata() {}
func (ReferenceMetadata) relationshipMetadata()   {}
func (LabelForMetadata) relationshipMetadata()    {}
func (SiblingMetadata) relationshipMetadata()     {}
func (NavigationMetadata) relationshipMetadata()  {}

// MetadataJSON returns the metadata encoded as a JSON object.
func (r *Relationship) MetadataJSON() (string, error) {
	if r.Metadata == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(r.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal metadata of %s: %w", r.ID, err)
	}
	return string(buf), nil
}

// UnmarshalJSON decodes a relationship, choosing the metadata variant by type.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string           `json:"id"`
		Source   string           `json:"source"`
		Target   string           `json:"target"`
		Type     RelationshipType `json:"type"`
		Strength float64          `json:"strength"`
		Metadata json.RawMessage  `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	md, err := DecodeMetadata(raw.Type, raw.Metadata)
	if err != nil {
		return err
	}
	*r = Relationship{
		ID:       raw.ID,
		Source:   raw.Source,
		Target:   raw.Target,
		Type:     raw.Type,
		Strength: raw.Strength,
		Metadata: md,
	}
	return nil
}

// DecodeMetadata decodes JSON metadata into the variant used by typ.
// Empty input and types without metadata yield nil.
func DecodeMetadata(typ RelationshipType, data []byte) (RelationshipMetadata, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var err error
	switch typ {
	case RelParentChild:
		var md ParentChildMetadata
		err = json.Unmarshal(data, &md)
		return md, err
	case RelReference:
		var md ReferenceMetadata
		err = json.Unmarshal(data, &md)
		return md, err
	case RelSemantic:
		var md LabelForMetadata
		err = json.Unmarshal(data, &md)
		return md, err
	case RelSibling:
		var md SiblingMetadata
		err = json.Unmarshal(data, &md)
		return md, err
	case RelNavigation:
		var md NavigationMetadata
		err = json.Unmarshal(data, &md)
		return md, err
	}
	return nil, nil
}

type edgeKey struct {
	source, target string
	typ            RelationshipType
}

// relationshipSet accumulates edges in discovery order, dropping exact
// duplicates of (source, target, type).
type relationshipSet struct {
	ids   int
	seen  map[edgeKey]struct{}
	edges []*Relationship
}

func (s *relationshipSet) add(source, target string, typ RelationshipType, strength float64, md RelationshipMetadata) {
	k := edgeKey{source, target, typ}
	if _, ok := s.seen[k]; ok {
		return
	}
	s.seen[k] = struct{}{}
	s.ids++
	s.edges = append(s.edges, &Relationship{
		ID:       fmt.Sprintf("rel_%d", s.ids),
		Source:   source,
		Target:   target,
		Type:     typ,
		Strength: strength,
		Metadata: md,
	})
}

// BuildRelationships infers edges between objects. It runs once over the
// complete object set, so an edge may point at an element that appears
// later in the document.
//
// Objects are processed in slice order and, per object, edges are emitted as
// parent-child, reference, label-for, sibling, navigation.
func BuildRelationships(objects []*Object) []*Relationship {
	byElementID := make(map[string][]*Object)
	children := make(map[string][]*Object)
	for _, obj := range objects {
		if id, ok := obj.Attributes["id"]; ok {
			byElementID[id] = append(byElementID[id], obj)
		}
		if obj.HasParent() {
			children[obj.Position.Parent] = append(children[obj.Position.Parent], obj)
		}
	}

	set := &relationshipSet{seen: make(map[edgeKey]struct{})}
	for _, obj := range objects {
		if obj.HasParent() {
			set.add(obj.Position.Parent, obj.ID, RelParentChild, StrengthParentChild,
				ParentChildMetadata{Depth: obj.Position.Depth, Index: obj.Position.Index})
		}

		if href, ok := obj.Attributes["href"]; ok && len(href) > 0 && href[0] == '#' {
			for _, target := range byElementID[href[1:]] {
				set.add(obj.ID, target.ID, RelReference, StrengthReference,
					ReferenceMetadata{ReferenceType: "href", Value: href})
			}
		}

		if forID, ok := obj.Attributes["for"]; ok {
			for _, target := range byElementID[forID] {
				set.add(obj.ID, target.ID, RelSemantic, StrengthLabelFor,
					LabelForMetadata{Relationship: "label-for", FormControl: target.Tag})
			}
		}

		if obj.HasParent() {
			for _, sib := range children[obj.Position.Parent] {
				if sib.ID == obj.ID || sib.Type != obj.Type {
					continue
				}
				set.add(obj.ID, sib.ID, RelSibling, StrengthSibling,
					SiblingMetadata{CommonParent: obj.Position.Parent, SharedType: obj.Type})
			}
		}

		if obj.SemanticRole == RoleNavigation || obj.Tag == "nav" {
			for _, child := range children[obj.ID] {
				if child.Tag != "a" {
					continue
				}
				set.add(obj.ID, child.ID, RelNavigation, StrengthNavigation,
					NavigationMetadata{NavType: "contains-link", LinkText: child.Text})
			}
		}
	}
	return set.edges
}
