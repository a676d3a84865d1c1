package pagegraph_test

import (
	"testing"

	"github.com/fwojciec/pagegraph"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("counts objects and relationships", func(t *testing.T) {
		t.Parallel()

		g := navGraph()
		g.Metadata.Generator = pagegraph.GeneratorHugo

		s := pagegraph.Summarize(g)

		assert.Equal(t, "Nav Page", s.Title)
		assert.Equal(t, 4, s.TotalObjects)
		assert.Equal(t, 7, s.TotalRelationships)
		assert.Equal(t, 2, s.MaxDepth)
		assert.Equal(t, pagegraph.GeneratorHugo, s.Generator)
		assert.Equal(t, map[pagegraph.ObjectType]int{
			pagegraph.ObjectStructural:  2,
			pagegraph.ObjectInteractive: 1,
			pagegraph.ObjectOther:       1,
		}, s.ObjectsByType)
		assert.Equal(t, map[string]int{pagegraph.RoleNavigation: 1, "link": 1}, s.ObjectsByRole)
		assert.Equal(t, map[pagegraph.RelationshipType]int{
			pagegraph.RelParentChild: 3,
			pagegraph.RelSibling:     2,
			pagegraph.RelNavigation:  1,
			pagegraph.RelReference:   1,
		}, s.RelationshipsByType)
		assert.Empty(t, s.SchemaOrgTypes)
	})

	t.Run("lists schema.org types once in document order", func(t *testing.T) {
		t.Parallel()

		g := navGraph()
		g.Objects["obj_2"].SchemaOrgType = "Product"
		g.Objects["obj_3"].SchemaOrgType = "Offer"
		g.Objects["obj_4"].SchemaOrgType = "Product"

		s := pagegraph.Summarize(g)

		assert.Equal(t, []string{"Product", "Offer"}, s.SchemaOrgTypes)
	})
}
