package pagegraph

import (
	"context"
	"time"
)

// GraphRecord is a graph persisted together with its storage identity.
type GraphRecord struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	ContentHash string    `json:"contentHash"`
	CreatedAt   time.Time `json:"createdAt"`

	// Graph is nil when the record was loaded without its objects
	// (see GraphService.FindGraphs).
	Graph *Graph `json:"graph,omitempty"`
}

// Validate returns an error if the record contains invalid fields.
func (r *GraphRecord) Validate() error {
	if r.Graph == nil {
		return Errorf(EINVALID, "graph required")
	}
	return r.Graph.Validate()
}

// GraphService represents a service for managing analyzed graphs.
type GraphService interface {
	// CreateGraph stores a graph with all objects and relationships.
	// The record ID and CreatedAt are assigned by the service.
	CreateGraph(ctx context.Context, rec *GraphRecord, html string) error

	// FindGraphByID retrieves a graph with all objects and relationships.
	// Returns ENOTFOUND if the graph does not exist.
	FindGraphByID(ctx context.Context, id string) (*GraphRecord, error)

	// FindGraphs retrieves graph records matching the filter.
	// Only metadata is loaded; Graph.Objects and Graph.Relationships are empty.
	FindGraphs(ctx context.Context, filter GraphFilter) ([]*GraphRecord, error)

	// DeleteGraph permanently removes a graph, its objects and relationships.
	// Returns ENOTFOUND if the graph does not exist.
	DeleteGraph(ctx context.Context, id string) error
}

// GraphFilter represents a filter for FindGraphs.
type GraphFilter struct {
	ID          *string `json:"id"`
	URL         *string `json:"url"`
	ContentHash *string `json:"contentHash"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
