package pagegraph

// Summary aggregates object and relationship counts of a graph.
type Summary struct {
	URL                 string                   `json:"url"`
	Title               string                   `json:"title"`
	TotalObjects        int                      `json:"totalObjects"`
	TotalRelationships  int                      `json:"totalRelationships"`
	MaxDepth            int                      `json:"maxDepth"`
	Complexity          float64                  `json:"complexity"`
	AnalysisTime        float64                  `json:"analysisTime"`
	Truncated           bool                     `json:"truncated,omitempty"`
	Generator           Generator                `json:"generator,omitempty"`
	ObjectsByType       map[ObjectType]int       `json:"objectsByType"`
	ObjectsByRole       map[string]int           `json:"objectsByRole"`
	RelationshipsByType map[RelationshipType]int `json:"relationshipsByType"`
	SchemaOrgTypes      []string                 `json:"schemaOrgTypes"`
}

// Summarize counts objects by type and role and relationships by type.
func Summarize(g *Graph) *Summary {
	s := &Summary{
		URL:                 g.Metadata.URL,
		Title:               g.Metadata.Title,
		TotalObjects:        g.Metadata.TotalObjects,
		TotalRelationships:  g.Metadata.TotalRelationships,
		MaxDepth:            g.MaxDepth(),
		Complexity:          g.Metadata.Performance.Complexity,
		AnalysisTime:        g.Metadata.Performance.AnalysisTime,
		Truncated:           g.Metadata.Truncated,
		Generator:           g.Metadata.Generator,
		ObjectsByType:       make(map[ObjectType]int),
		ObjectsByRole:       make(map[string]int),
		RelationshipsByType: make(map[RelationshipType]int),
		SchemaOrgTypes:      []string{},
	}
	seen := make(map[string]bool)
	for _, obj := range g.ObjectList() {
		s.ObjectsByType[obj.Type]++
		if obj.SemanticRole != "" {
			s.ObjectsByRole[obj.SemanticRole]++
		}
		if obj.SchemaOrgType != "" && !seen[obj.SchemaOrgType] {
			seen[obj.SchemaOrgType] = true
			s.SchemaOrgTypes = append(s.SchemaOrgTypes, obj.SchemaOrgType)
		}
	}
	for _, rel := range g.Relationships {
		s.RelationshipsByType[rel.Type]++
	}
	return s
}
