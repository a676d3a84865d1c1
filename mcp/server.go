// Package mcp exposes pagegraph analysis as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fwojciec/pagegraph"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names.
const (
	ToolAnalyze    = "pagegraph_analyze"
	ToolAssess     = "pagegraph_assess"
	ToolListGraphs = "pagegraph_list_graphs"
	ToolGetGraph   = "pagegraph_get_graph"
)

// Implementation identifies the server to MCP clients.
var Implementation = &mcp.Implementation{Name: "pagegraph", Version: "0.1.0"}

// Tools registers analysis tools on an MCP server. The graph tools are
// only registered when Graphs is set.
type Tools struct {
	Analyzer  pagegraph.Analyzer
	Graphs    pagegraph.GraphService
	Exporters map[string]pagegraph.Exporter
}

// NewServer returns an MCP server with all tools registered.
func (t *Tools) NewServer() *mcp.Server {
	srv := mcp.NewServer(Implementation, nil)
	t.Register(srv)
	return srv
}

// Register adds the tools to srv.
func (t *Tools) Register(srv *mcp.Server) {
	srv.AddTool(&mcp.Tool{
		Name:        ToolAnalyze,
		Description: "Analyze an HTML document into a structure graph. Returns the graph as json, graphml or jsonld.",
		InputSchema: inputSchema(map[string]any{
			"html":   map[string]any{"type": "string", "description": "HTML document"},
			"url":    map[string]any{"type": "string", "description": "URL recorded in the graph metadata"},
			"format": map[string]any{"type": "string", "description": "Output format", "enum": t.formats()},
		}, []string{"html"}),
	}, t.handleAnalyze)

	srv.AddTool(&mcp.Tool{
		Name:        ToolAssess,
		Description: "Summarize an HTML document's structure and report alerts and recommendations.",
		InputSchema: inputSchema(map[string]any{
			"html": map[string]any{"type": "string", "description": "HTML document"},
			"url":  map[string]any{"type": "string", "description": "URL recorded in the graph metadata"},
		}, []string{"html"}),
	}, t.handleAssess)

	if t.Graphs == nil {
		return
	}

	srv.AddTool(&mcp.Tool{
		Name:        ToolListGraphs,
		Description: "List saved graphs, newest first.",
		InputSchema: inputSchema(map[string]any{
			"url":   map[string]any{"type": "string", "description": "Only graphs of this URL"},
			"limit": map[string]any{"type": "integer", "description": "Maximum number of graphs"},
		}, nil),
	}, t.handleListGraphs)

	srv.AddTool(&mcp.Tool{
		Name:        ToolGetGraph,
		Description: "Fetch a saved graph by ID.",
		InputSchema: inputSchema(map[string]any{
			"id":     map[string]any{"type": "string", "description": "Graph ID"},
			"format": map[string]any{"type": "string", "description": "Output format", "enum": t.formats()},
		}, []string{"id"}),
	}, t.handleGetGraph)
}

type analyzeArgs struct {
	HTML   string `json:"html"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

func (t *Tools) handleAnalyze(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args analyzeArgs
	if err := decode(req, &args); err != nil {
		return toolError(err), nil
	}
	exp, err := t.exporter(args.Format)
	if err != nil {
		return toolError(err), nil
	}

	g, err := t.Analyzer.Analyze(ctx, args.HTML, args.URL)
	if err != nil {
		return toolError(err), nil
	}
	content, err := exp.Export(g)
	if err != nil {
		return toolError(err), nil
	}
	return textResult(content), nil
}

func (t *Tools) handleAssess(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args analyzeArgs
	if err := decode(req, &args); err != nil {
		return toolError(err), nil
	}

	g, err := t.Analyzer.Analyze(ctx, args.HTML, args.URL)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{
		"summary":    pagegraph.Summarize(g),
		"assessment": pagegraph.Assess(g),
	})
}

type listArgs struct {
	URL   string `json:"url"`
	Limit int    `json:"limit"`
}

type graphItem struct {
	ID                 string  `json:"id"`
	URL                string  `json:"url"`
	Title              string  `json:"title"`
	CreatedAt          string  `json:"createdAt"`
	TotalObjects       int     `json:"totalObjects"`
	TotalRelationships int     `json:"totalRelationships"`
	Complexity         float64 `json:"complexity"`
}

func (t *Tools) handleListGraphs(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args listArgs
	if err := decode(req, &args); err != nil {
		return toolError(err), nil
	}
	if args.Limit < 0 {
		return toolError(pagegraph.Errorf(pagegraph.EINVALID, "limit must not be negative")), nil
	}

	filter := pagegraph.GraphFilter{Limit: args.Limit}
	if args.URL != "" {
		filter.URL = &args.URL
	}
	recs, err := t.Graphs.FindGraphs(ctx, filter)
	if err != nil {
		return toolError(err), nil
	}

	items := make([]graphItem, 0, len(recs))
	for _, rec := range recs {
		item := graphItem{
			ID:        rec.ID,
			URL:       rec.URL,
			CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		}
		if rec.Graph != nil {
			md := rec.Graph.Metadata
			item.Title = md.Title
			item.TotalObjects = md.TotalObjects
			item.TotalRelationships = md.TotalRelationships
			item.Complexity = md.Performance.Complexity
		}
		items = append(items, item)
	}
	return jsonResult(map[string]any{"graphs": items})
}

type getArgs struct {
	ID     string `json:"id"`
	Format string `json:"format"`
}

func (t *Tools) handleGetGraph(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args getArgs
	if err := decode(req, &args); err != nil {
		return toolError(err), nil
	}
	exp, err := t.exporter(args.Format)
	if err != nil {
		return toolError(err), nil
	}

	rec, err := t.Graphs.FindGraphByID(ctx, args.ID)
	if err != nil {
		return toolError(err), nil
	}
	content, err := exp.Export(rec.Graph)
	if err != nil {
		return toolError(err), nil
	}
	return textResult(content), nil
}

// exporter resolves a format name; empty means json.
func (t *Tools) exporter(format string) (pagegraph.Exporter, error) {
	if format == "" {
		format = "json"
	}
	if exp, ok := t.Exporters[format]; ok {
		return exp, nil
	}
	if format == "json" {
		return &pagegraph.JSONExporter{}, nil
	}
	return nil, pagegraph.Errorf(pagegraph.EINVALID, "unknown format %q", format)
}

func (t *Tools) formats() []string {
	var others []string
	for name := range t.Exporters {
		if name != "json" {
			others = append(others, name)
		}
	}
	sort.Strings(others)
	return append([]string{"json"}, others...)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func decode(req *mcp.CallToolRequest, v any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return pagegraph.Errorf(pagegraph.EINVALID, "invalid arguments: %v", err)
	}
	return nil
}

// toolError reports err to the client as a tool error. Internal details
// are replaced by the generic message.
func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(errors.New(pagegraph.ErrorMessage(err)))
	return &res
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Errorf("marshal: %w", err)), nil
	}
	return textResult(string(data)), nil
}
