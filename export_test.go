package pagegraph_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fwojciec/pagegraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func navGraph() *pagegraph.Graph {
	objects := navObjects()
	g := pagegraph.Assemble(objects, pagegraph.BuildRelationships(objects))
	g.Metadata.URL = "https://example.com/nav"
	g.Metadata.Title = "Nav Page"
	g.Metadata.AnalyzedAt = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	return g
}

func TestJSONExporter(t *testing.T) {
	t.Parallel()

	t.Run("round-trips through ParseGraphJSON", func(t *testing.T) {
		t.Parallel()

		g := navGraph()
		exp := &pagegraph.JSONExporter{Indent: "  "}

		out, err := exp.Export(g)
		require.NoError(t, err)
		assert.Equal(t, "json", exp.Format())

		got, err := pagegraph.ParseGraphJSON([]byte(out))
		require.NoError(t, err)
		assert.Equal(t, g.Order, got.Order)
		assert.Equal(t, g.Metadata, got.Metadata)
		require.Len(t, got.Relationships, len(g.Relationships))
		for i := range g.Relationships {
			assert.Equal(t, g.Relationships[i], got.Relationships[i])
		}
		for id, obj := range g.Objects {
			assert.Equal(t, obj, got.Objects[id])
		}
	})

	t.Run("writes compact output without indent", func(t *testing.T) {
		t.Parallel()

		out, err := (&pagegraph.JSONExporter{}).Export(navGraph())

		require.NoError(t, err)
		assert.NotContains(t, out, "\n")
	})
}

func TestParseGraphJSON(t *testing.T) {
	t.Parallel()

	t.Run("restores omitted adjacency lists", func(t *testing.T) {
		t.Parallel()

		data := `{
			"objects": {
				"obj_1": {"id":"obj_1","type":"structural","tag":"body","attributes":{},"position":{"depth":0,"index":0}},
				"obj_2": {"id":"obj_2","type":"content","tag":"p","attributes":{},"position":{"depth":1,"index":0,"parent":"obj_1"}}
			},
			"order": ["obj_1","obj_2"],
			"relationships": [{"id":"rel_1","source":"obj_1","target":"obj_2","type":"parent-child","strength":1,"metadata":{"depth":1,"index":0}}],
			"metadata": {"url":"","title":"","analyzedAt":"2025-01-15T10:00:00Z","totalObjects":2,"totalRelationships":1,"performance":{"analysisTime":0,"complexity":10.4}}
		}`

		g, err := pagegraph.ParseGraphJSON([]byte(data))

		require.NoError(t, err)
		assert.Equal(t, []string{"obj_2"}, g.Objects["obj_1"].Relationships)
		assert.Equal(t, []string{"obj_1"}, g.Objects["obj_2"].Relationships)
		assert.Equal(t, pagegraph.ParentChildMetadata{Depth: 1, Index: 0}, g.Relationships[0].Metadata)
		require.NoError(t, g.Validate())
	})

	t.Run("fills empty collections", func(t *testing.T) {
		t.Parallel()

		g, err := pagegraph.ParseGraphJSON([]byte(`{}`))

		require.NoError(t, err)
		assert.NotNil(t, g.Objects)
		assert.NotNil(t, g.Relationships)
	})

	t.Run("returns EINVALID on malformed JSON", func(t *testing.T) {
		t.Parallel()

		_, err := pagegraph.ParseGraphJSON([]byte(`{"objects":`))

		assert.Equal(t, pagegraph.EINVALID, pagegraph.ErrorCode(err))
	})
}

func TestJSONLDExporter(t *testing.T) {
	t.Parallel()

	g := navGraph()
	g.Objects["obj_4"].SchemaOrgType = "Product"
	g.Objects["obj_4"].Text = "Widget"
	exp := &pagegraph.JSONLDExporter{}

	out, err := exp.Export(g)
	require.NoError(t, err)
	assert.Equal(t, "jsonld", exp.Format())

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "https://schema.org", doc["@context"])
	assert.Equal(t, "WebPage", doc["@type"])
	assert.Equal(t, "Nav Page", doc["name"])
	parts, ok := doc["hasPart"].([]any)
	require.True(t, ok)
	require.Len(t, parts, 1)
	assert.Equal(t, "Product", parts[0].(map[string]any)["@type"])
}
