package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/pagegraph"
	"github.com/fwojciec/pagegraph/batch"
	"github.com/fwojciec/pagegraph/chi"
	pgmcp "github.com/fwojciec/pagegraph/mcp"
	"github.com/fwojciec/pagegraph/sqlite"
	"github.com/fwojciec/pagegraph/yaml"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config *yaml.Config
	DB     *sqlite.DB
	Graphs pagegraph.GraphService
	Runner *batch.Runner
	Server *chi.Server
	Tools  *pgmcp.Tools
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `help:"Path to a YAML configuration file" placeholder:"FILE"`
	DB      string `name:"db" help:"Database path (overrides PAGEGRAPH_DB)" placeholder:"PATH"`
	Verbose bool   `short:"v" help:"Log operations to stderr"`

	Analyze AnalyzeCmd `cmd:"" help:"Analyze HTML files or URLs"`
	List    ListCmd    `cmd:"" help:"List saved graphs"`
	Show    ShowCmd    `cmd:"" help:"Show a saved graph"`
	Export  ExportCmd  `cmd:"" help:"Export a saved graph"`
	Delete  DeleteCmd  `cmd:"" help:"Delete a saved graph"`
	Serve   ServeCmd   `cmd:"" help:"Serve the analyzer and saved graphs over HTTP"`
	MCP     MCPCmd     `cmd:"" name:"mcp" help:"Serve analysis tools over MCP on stdio"`
}

// AnalyzeCmd is the "analyze" subcommand.
type AnalyzeCmd struct {
	Sources     []string `arg:"" help:"HTML files, URLs, or - for stdin"`
	URL         string   `help:"URL recorded in the graph metadata (single source only)"`
	Format      string   `short:"f" enum:"json,graphml,jsonld,summary" default:"summary" help:"Output format (json, graphml, jsonld, summary)"`
	Save        bool     `short:"s" help:"Save graphs to the database"`
	Out         string   `short:"o" help:"Write one file per source into this directory" placeholder:"DIR"`
	Browser     bool     `short:"b" help:"Render URLs in headless Chrome"`
	MaxDepth    int      `help:"Skip elements deeper than this (0 uses config)"`
	MaxObjects  int      `help:"Stop after this many objects (0 uses config)"`
	Concurrency int      `short:"c" help:"Concurrent sources (0 uses config)"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	URL   string `help:"Only graphs of this URL"`
	Limit int    `short:"n" help:"Maximum number of graphs"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID     string `arg:"" help:"Graph ID"`
	Format string `short:"f" enum:"summary,json" default:"summary" help:"Output format (summary, json)"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	ID     string `arg:"" help:"Graph ID"`
	Format string `short:"f" enum:"json,graphml,jsonld" default:"graphml" help:"Export format (json, graphml, jsonld)"`
	Out    string `short:"o" help:"Write into this directory instead of stdout" placeholder:"DIR"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Graph ID"`
	Force bool   `help:"Confirm deletion"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr       string `short:"a" help:"Listen address (default from config, :8080)"`
	MaxDepth   int    `help:"Skip elements deeper than this (0 uses config)"`
	MaxObjects int    `help:"Stop after this many objects (0 uses config)"`
}

// MCPCmd is the "mcp" subcommand.
type MCPCmd struct{}
