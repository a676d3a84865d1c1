package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/pagegraph"
	"github.com/fwojciec/pagegraph/batch"
	"github.com/fwojciec/pagegraph/chi"
	"github.com/fwojciec/pagegraph/etree"
	"github.com/fwojciec/pagegraph/fs"
	"github.com/fwojciec/pagegraph/goquery"
	pgmcp "github.com/fwojciec/pagegraph/mcp"
	pghttp "github.com/fwojciec/pagegraph/http"
	"github.com/fwojciec/pagegraph/rod"
	pgslog "github.com/fwojciec/pagegraph/slog"
	"github.com/fwojciec/pagegraph/sqlite"
	"github.com/fwojciec/pagegraph/yaml"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A .env file in the working directory may set PAGEGRAPH_DB.
	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run(); --db and the config file
	// take precedence.
	DBPath string

	// Stdin is read for the "-" source.
	Stdin io.Reader

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	GraphService pagegraph.GraphService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
		Stdin:  os.Stdin,
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("pagegraph"),
		kong.Description("Analyze the structure of HTML pages as graphs"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'pagegraph --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	command := kongCtx.Selected().Name

	// Configuration: defaults, then file, then flags.
	cfg := yaml.Default()
	if cli.Config != "" {
		if cfg, err = yaml.LoadFile(cli.Config); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", pagegraph.ErrorMessage(err))
			return err
		}
	}
	deps.Config = cfg

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	// Open the database only for commands that use it.
	if command != "analyze" || cli.Analyze.Save {
		dbPath := m.DBPath
		if cfg.Database.Path != "" {
			dbPath = cfg.Database.Path
		}
		if cli.DB != "" {
			dbPath = cli.DB
		}

		m.DB = sqlite.NewDB(dbPath)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set PAGEGRAPH_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", dbPath, err)
		}
		defer m.Close()

		m.GraphService = pgslog.NewLoggingGraphService(sqlite.NewGraphService(m.DB), deps.Logger)
		deps.DB = m.DB
		deps.Graphs = m.GraphService
	}

	if command == "analyze" {
		runner, closeFn, err := m.newRunner(cli, deps)
		if err != nil {
			return err
		}
		defer closeFn()
		deps.Runner = runner
	}

	switch command {
	case "serve":
		deps.Server = newServer(cli, deps)
	case "mcp":
		deps.Tools = &pgmcp.Tools{
			Analyzer: newAnalyzer(cfg.Analyzer, deps.Logger),
			Graphs:   deps.Graphs,
			Exporters: map[string]pagegraph.Exporter{
				"graphml": etree.NewGraphMLExporter(2),
				"jsonld":  &pagegraph.JSONLDExporter{Indent: "  "},
			},
		}
	}

	return kongCtx.Run(deps)
}

// newRunner wires the analyzer and sources used by the analyze command.
func (m *Main) newRunner(cli *CLI, deps *Dependencies) (*batch.Runner, func(), error) {
	cfg := deps.Config
	c := &cli.Analyze

	opts := cfg.Analyzer
	if c.MaxDepth > 0 {
		opts.MaxDepth = c.MaxDepth
	}
	if c.MaxObjects > 0 {
		opts.MaxObjects = c.MaxObjects
	}
	concurrency := cfg.Fetch.Concurrency
	if c.Concurrency > 0 {
		concurrency = c.Concurrency
	}

	runner := &batch.Runner{
		Files:       fs.NewFileSource(m.Stdin),
		Analyzer:    newAnalyzer(opts, deps.Logger),
		Graphs:      deps.Graphs,
		RateLimiter: batch.NewHostLimiter(cfg.Fetch.RateLimit, 1),
		Concurrency: concurrency,
		Retry:       &batch.Backoff{Delays: cfg.RetryDelays()},
		Logger:      deps.Logger,
	}

	closeFn := func() {}
	if hasURL(c.Sources) {
		var fetcher pagegraph.Fetcher
		if c.Browser || cfg.Fetch.Browser {
			f, err := rod.NewFetcher(
				rod.WithFetchTimeout(cfg.Fetch.Timeout),
				rod.WithStealth(cfg.Fetch.Stealth),
				rod.WithRecycleAfter(cfg.Fetch.RecycleAfter),
				rod.WithLogger(deps.Logger),
			)
			if err != nil {
				fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed")
				return nil, nil, fmt.Errorf("failed to start browser: %w", err)
			}
			fetcher = f
		} else {
			httpOpts := []pghttp.Option{pghttp.WithTimeout(cfg.Fetch.Timeout)}
			if cfg.Fetch.UserAgent != "" {
				httpOpts = append(httpOpts, pghttp.WithUserAgent(cfg.Fetch.UserAgent))
			}
			fetcher = pghttp.NewFetcher(httpOpts...)
		}
		logged := pgslog.NewLoggingFetcher(fetcher, deps.Logger)
		runner.Fetcher = logged
		closeFn = func() { _ = logged.Close() }
	}

	if c.URL != "" {
		runner.URLFor = func(string) string { return c.URL }
	}

	return runner, closeFn, nil
}

// newServer wires the HTTP API used by the serve command.
func newServer(cli *CLI, deps *Dependencies) *chi.Server {
	opts := deps.Config.Analyzer
	if cli.Serve.MaxDepth > 0 {
		opts.MaxDepth = cli.Serve.MaxDepth
	}
	if cli.Serve.MaxObjects > 0 {
		opts.MaxObjects = cli.Serve.MaxObjects
	}
	return chi.NewServer(newAnalyzer(opts, deps.Logger), deps.Logger,
		chi.WithGraphService(deps.Graphs),
		chi.WithExporter(etree.NewGraphMLExporter(2)),
		chi.WithExporter(&pagegraph.JSONLDExporter{}),
		chi.WithMaxBodySize(deps.Config.Server.MaxBodySize),
	)
}

// newAnalyzer returns the logged goquery analyzer shared by all commands.
func newAnalyzer(opts pagegraph.AnalyzerOptions, logger *slog.Logger) pagegraph.Analyzer {
	analyzer := goquery.NewAnalyzer(
		goquery.WithLimits(opts),
		goquery.WithDetector(pgslog.NewLoggingDetector(goquery.NewDetector(), logger)),
	)
	return pgslog.NewLoggingAnalyzer(analyzer, logger)
}

func hasURL(sources []string) bool {
	for _, s := range sources {
		if pagegraph.IsURL(s) {
			return true
		}
	}
	return false
}

func defaultDBPath() string {
	if path := os.Getenv("PAGEGRAPH_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "pagegraph.db"
	}
	dir := filepath.Join(home, ".pagegraph")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "pagegraph.db")
}
