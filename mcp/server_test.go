package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fwojciec/pagegraph"
	"github.com/fwojciec/pagegraph/etree"
	"github.com/fwojciec/pagegraph/goquery"
	pgmcp "github.com/fwojciec/pagegraph/mcp"
	"github.com/fwojciec/pagegraph/mock"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const navPage = `<html><head><title>Nav Page</title></head>
<body><nav><a href="#x">Jump</a></nav><div id="x">Target</div></body></html>`

func session(t *testing.T, tools *pgmcp.Tools) *mcp.ClientSession {
	t.Helper()
	srv := tools.NewServer()

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "pagegraph-test", Version: "0.1.0"}, nil)
	s, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func call(t *testing.T, s *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	res, err := s.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func newTools(graphs pagegraph.GraphService) *pgmcp.Tools {
	return &pgmcp.Tools{
		Analyzer: goquery.NewAnalyzer(),
		Graphs:   graphs,
		Exporters: map[string]pagegraph.Exporter{
			"graphml": etree.NewGraphMLExporter(0),
			"jsonld":  &pagegraph.JSONLDExporter{},
		},
	}
}

func TestTools_Analyze(t *testing.T) {
	t.Parallel()

	t.Run("returns graph JSON", func(t *testing.T) {
		t.Parallel()

		s := session(t, newTools(nil))

		res := call(t, s, pgmcp.ToolAnalyze, map[string]any{"html": navPage, "url": "https://example.com/nav"})

		require.False(t, res.IsError)
		g, err := pagegraph.ParseGraphJSON([]byte(text(t, res)))
		require.NoError(t, err)
		assert.Equal(t, 4, g.Metadata.TotalObjects)
		assert.Equal(t, "https://example.com/nav", g.Metadata.URL)
	})

	t.Run("returns GraphML", func(t *testing.T) {
		t.Parallel()

		s := session(t, newTools(nil))

		res := call(t, s, pgmcp.ToolAnalyze, map[string]any{"html": navPage, "format": "graphml"})

		require.False(t, res.IsError)
		doc, err := etree.ReadGraphMLString(text(t, res))
		require.NoError(t, err)
		assert.Len(t, doc.Edges, 7)
	})

	t.Run("reports unknown formats as tool errors", func(t *testing.T) {
		t.Parallel()

		s := session(t, newTools(nil))

		res := call(t, s, pgmcp.ToolAnalyze, map[string]any{"html": navPage, "format": "csv"})

		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "unknown format")
	})
}

func TestTools_Assess(t *testing.T) {
	t.Parallel()

	s := session(t, newTools(nil))

	res := call(t, s, pgmcp.ToolAssess, map[string]any{"html": `<body><img src="a.png"></body>`})

	require.False(t, res.IsError)
	var body struct {
		Summary    pagegraph.Summary    `json:"summary"`
		Assessment pagegraph.Assessment `json:"assessment"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &body))
	assert.Equal(t, 2, body.Summary.TotalObjects)
	require.NotEmpty(t, body.Assessment.Alerts)
	assert.Equal(t, "missing-alt", body.Assessment.Alerts[0].Code)
}

func TestTools_Graphs(t *testing.T) {
	t.Parallel()

	t.Run("graph tools are absent without a store", func(t *testing.T) {
		t.Parallel()

		s := session(t, newTools(nil))

		res, err := s.ListTools(context.Background(), nil)

		require.NoError(t, err)
		var names []string
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{pgmcp.ToolAnalyze, pgmcp.ToolAssess}, names)
	})

	t.Run("lists saved graphs", func(t *testing.T) {
		t.Parallel()

		var got pagegraph.GraphFilter
		graphs := &mock.GraphService{
			FindGraphsFn: func(_ context.Context, f pagegraph.GraphFilter) ([]*pagegraph.GraphRecord, error) {
				got = f
				return []*pagegraph.GraphRecord{{
					ID:        "graph-1",
					URL:       "https://example.com",
					CreatedAt: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
					Graph:     &pagegraph.Graph{Metadata: pagegraph.GraphMetadata{Title: "Home", TotalObjects: 12}},
				}}, nil
			},
		}
		s := session(t, newTools(graphs))

		res := call(t, s, pgmcp.ToolListGraphs, map[string]any{"url": "https://example.com", "limit": 3})

		require.False(t, res.IsError)
		assert.Equal(t, 3, got.Limit)
		require.NotNil(t, got.URL)
		assert.JSONEq(t, `{"graphs":[{"id":"graph-1","url":"https://example.com","title":"Home",
			"createdAt":"2025-01-15T10:00:00Z","totalObjects":12,"totalRelationships":0,"complexity":0}]}`, text(t, res))
	})

	t.Run("fetches a saved graph", func(t *testing.T) {
		t.Parallel()

		g, err := goquery.NewAnalyzer().Analyze(context.Background(), navPage, "")
		require.NoError(t, err)
		graphs := &mock.GraphService{
			FindGraphByIDFn: func(_ context.Context, id string) (*pagegraph.GraphRecord, error) {
				if id != "graph-1" {
					return nil, pagegraph.Errorf(pagegraph.ENOTFOUND, "graph not found")
				}
				return &pagegraph.GraphRecord{ID: id, Graph: g}, nil
			},
		}
		s := session(t, newTools(graphs))

		res := call(t, s, pgmcp.ToolGetGraph, map[string]any{"id": "graph-1", "format": "jsonld"})
		require.False(t, res.IsError)
		assert.Contains(t, text(t, res), "https://schema.org")

		res = call(t, s, pgmcp.ToolGetGraph, map[string]any{"id": "missing"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "graph not found")
	})
}
