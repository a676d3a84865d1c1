package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/pagegraph"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ pagegraph.GraphService = (*GraphService)(nil)

// GraphService implements pagegraph.GraphService using SQLite.
type GraphService struct {
	db  *DB
	now func() time.Time
}

// NewGraphService creates a new GraphService.
func NewGraphService(db *DB) *GraphService {
	return &GraphService{db: db, now: time.Now}
}

// CreateGraph stores rec.Graph with its objects and relationships in a
// single transaction. The content hash is computed from html.
func (s *GraphService) CreateGraph(ctx context.Context, rec *pagegraph.GraphRecord, html string) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	id := uuid.New().String()
	createdAt := s.now().UTC()
	contentHash := hashContent(html)
	url := rec.URL
	if url == "" {
		url = rec.Graph.Metadata.URL
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	md := rec.Graph.Metadata
	_, err = tx.ExecContext(ctx, `
		INSERT INTO graphs (id, url, title, content_hash, generator, truncated, total_objects,
			total_relationships, analysis_time, complexity, analyzed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, url, md.Title, contentHash, string(md.Generator), md.Truncated,
		md.TotalObjects, md.TotalRelationships, md.Performance.AnalysisTime, md.Performance.Complexity,
		formatTime(md.AnalyzedAt), formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("insert graph: %w", err)
	}

	objStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO objects (graph_id, id, ordinal, type, tag, semantic_role, schema_org_type, text,
			depth, idx, parent_id, size, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer objStmt.Close()

	for i, obj := range rec.Graph.ObjectList() {
		row, err := obj.Row()
		if err != nil {
			return err
		}
		if _, err := objStmt.ExecContext(ctx, id, row.ID, i, row.Type, row.Tag, row.SemanticRole,
			row.SchemaOrgType, row.Text, row.Depth, row.Index, row.ParentID, row.Size, row.Attributes); err != nil {
			return fmt.Errorf("insert object %s: %w", row.ID, err)
		}
	}

	relStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO relationships (graph_id, id, ordinal, source, target, type, strength, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer relStmt.Close()

	for i, rel := range rec.Graph.Relationships {
		meta, err := rel.MetadataJSON()
		if err != nil {
			return err
		}
		if _, err := relStmt.ExecContext(ctx, id, rel.ID, i, rel.Source, rel.Target,
			string(rel.Type), rel.Strength, meta); err != nil {
			return fmt.Errorf("insert relationship %s: %w", rel.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	rec.ID = id
	rec.CreatedAt = createdAt
	rec.ContentHash = contentHash
	rec.URL = url
	return nil
}

// FindGraphByID retrieves a graph with all objects and relationships.
// Stored metadata is returned as recorded, not recomputed.
func (s *GraphService) FindGraphByID(ctx context.Context, id string) (*pagegraph.GraphRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, `SELECT `+graphColumns+` FROM graphs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pagegraph.Errorf(pagegraph.ENOTFOUND, "graph not found")
	}
	if err != nil {
		return nil, err
	}

	g := rec.Graph
	if err := s.loadObjects(ctx, g, id); err != nil {
		return nil, err
	}
	if err := s.loadRelationships(ctx, g, id); err != nil {
		return nil, err
	}
	g.Link()

	return rec, nil
}

func (s *GraphService) loadObjects(ctx context.Context, g *pagegraph.Graph, graphID string) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, tag, semantic_role, schema_org_type, text, depth, idx, parent_id, size, attributes
		FROM objects
		WHERE graph_id = ?
		ORDER BY ordinal ASC
	`, graphID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row pagegraph.ObjectRow
		if err := rows.Scan(&row.ID, &row.Type, &row.Tag, &row.SemanticRole, &row.SchemaOrgType,
			&row.Text, &row.Depth, &row.Index, &row.ParentID, &row.Size, &row.Attributes); err != nil {
			return err
		}
		obj, err := pagegraph.ObjectFromRow(row)
		if err != nil {
			return err
		}
		g.Objects[obj.ID] = obj
		g.Order = append(g.Order, obj.ID)
	}
	return rows.Err()
}

func (s *GraphService) loadRelationships(ctx context.Context, g *pagegraph.Graph, graphID string) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, target, type, strength, metadata
		FROM relationships
		WHERE graph_id = ?
		ORDER BY ordinal ASC
	`, graphID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rel pagegraph.Relationship
		var typ, meta string
		if err := rows.Scan(&rel.ID, &rel.Source, &rel.Target, &typ, &rel.Strength, &meta); err != nil {
			return err
		}
		rel.Type = pagegraph.RelationshipType(typ)
		if meta != "{}" {
			md, err := pagegraph.DecodeMetadata(rel.Type, []byte(meta))
			if err != nil {
				return fmt.Errorf("decode metadata of %s: %w", rel.ID, err)
			}
			rel.Metadata = md
		}
		g.Relationships = append(g.Relationships, &rel)
	}
	return rows.Err()
}

// FindGraphs retrieves graph records matching the filter, newest first.
func (s *GraphService) FindGraphs(ctx context.Context, filter pagegraph.GraphFilter) ([]*pagegraph.GraphRecord, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + graphColumns + " FROM graphs WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}
	if filter.ContentHash != nil {
		query.WriteString(" AND content_hash = ?")
		args = append(args, *filter.ContentHash)
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*pagegraph.GraphRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

// DeleteGraph permanently removes a graph. Objects and relationships are
// removed by the foreign key cascade.
func (s *GraphService) DeleteGraph(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM graphs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return pagegraph.Errorf(pagegraph.ENOTFOUND, "graph not found")
	}

	return nil
}

const graphColumns = `id, url, title, content_hash, generator, truncated, total_objects,
	total_relationships, analysis_time, complexity, analyzed_at, created_at`

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one graphs row into a record with an empty graph.
func scanRecord(sc scanner) (*pagegraph.GraphRecord, error) {
	var rec pagegraph.GraphRecord
	var md pagegraph.GraphMetadata
	var generator, analyzedAt, createdAt string

	if err := sc.Scan(&rec.ID, &rec.URL, &md.Title, &rec.ContentHash, &generator, &md.Truncated,
		&md.TotalObjects, &md.TotalRelationships, &md.Performance.AnalysisTime,
		&md.Performance.Complexity, &analyzedAt, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if md.AnalyzedAt, err = parseTime(analyzedAt, "analyzed_at"); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	md.URL = rec.URL
	md.Generator = pagegraph.Generator(generator)

	rec.Graph = &pagegraph.Graph{
		Objects:       map[string]*pagegraph.Object{},
		Order:         []string{},
		Relationships: []*pagegraph.Relationship{},
		Metadata:      md,
	}
	return &rec, nil
}
