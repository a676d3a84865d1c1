// Package sqlite provides SQLite-based storage for analyzed pagegraph graphs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fwojciec/pagegraph"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SchemaVersion is the schema this package writes, recorded in the
// database's user_version.
const SchemaVersion = 1

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// pragma is a connection setting applied on open.
type pragma struct {
	stmt     string
	fileOnly bool // in-memory databases reject it
}

var pragmas = []pragma{
	{stmt: "PRAGMA busy_timeout = 5000"},
	{stmt: "PRAGMA journal_mode = WAL", fileOnly: true},
	{stmt: "PRAGMA foreign_keys = ON"},
}

// Open opens the database, applies connection settings and creates or
// checks the schema. A database written by a newer version is rejected
// with ECONFLICT.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time.
	conn.SetMaxOpenConns(1)

	if err := db.init(conn); err != nil {
		conn.Close()
		return err
	}
	db.db = conn
	return nil
}

func (db *DB) init(conn *sql.DB) error {
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, p := range pragmas {
		if p.fileOnly && db.path == ":memory:" {
			continue
		}
		if _, err := conn.Exec(p.stmt); err != nil {
			return fmt.Errorf("%s: %w", p.stmt, err)
		}
	}

	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	switch {
	case version > SchemaVersion:
		return pagegraph.Errorf(pagegraph.ECONFLICT,
			"database schema version %d is newer than supported version %d", version, SchemaVersion)
	case version == SchemaVersion:
		return nil
	}

	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, opts)
}

// schema holds the graph tables. Objects and relationships are keyed by
// (graph_id, id) since object ids are only unique within the analyzer run
// that produced them.
const schema = `
CREATE TABLE IF NOT EXISTS graphs (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	generator TEXT NOT NULL DEFAULT '',
	truncated INTEGER NOT NULL DEFAULT 0,
	total_objects INTEGER NOT NULL DEFAULT 0,
	total_relationships INTEGER NOT NULL DEFAULT 0,
	analysis_time REAL NOT NULL DEFAULT 0,
	complexity REAL NOT NULL DEFAULT 0,
	analyzed_at TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS objects (
	graph_id TEXT NOT NULL REFERENCES graphs(id) ON DELETE CASCADE,
	id TEXT NOT NULL,
	ordinal INTEGER NOT NULL,
	type TEXT NOT NULL,
	tag TEXT NOT NULL,
	semantic_role TEXT NOT NULL DEFAULT '',
	schema_org_type TEXT NOT NULL DEFAULT '',
	text TEXT NOT NULL DEFAULT '',
	depth INTEGER NOT NULL,
	idx INTEGER NOT NULL,
	parent_id TEXT NOT NULL DEFAULT '',
	size INTEGER NOT NULL DEFAULT 0,
	attributes TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (graph_id, id)
);

CREATE TABLE IF NOT EXISTS relationships (
	graph_id TEXT NOT NULL REFERENCES graphs(id) ON DELETE CASCADE,
	id TEXT NOT NULL,
	ordinal INTEGER NOT NULL,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	type TEXT NOT NULL,
	strength REAL NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (graph_id, id)
);

CREATE INDEX IF NOT EXISTS idx_graphs_url ON graphs(url);
CREATE INDEX IF NOT EXISTS idx_graphs_content_hash ON graphs(content_hash);
CREATE INDEX IF NOT EXISTS idx_objects_graph_ordinal ON objects(graph_id, ordinal);
CREATE INDEX IF NOT EXISTS idx_relationships_graph_ordinal ON relationships(graph_id, ordinal);
`
