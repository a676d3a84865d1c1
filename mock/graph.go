package mock

import (
	"context"

	"github.com/fwojciec/pagegraph"
)

var _ pagegraph.GraphService = (*GraphService)(nil)

// GraphService is a mock implementation of pagegraph.GraphService.
type GraphService struct {
	CreateGraphFn   func(ctx context.Context, rec *pagegraph.GraphRecord, html string) error
	FindGraphByIDFn func(ctx context.Context, id string) (*pagegraph.GraphRecord, error)
	FindGraphsFn    func(ctx context.Context, filter pagegraph.GraphFilter) ([]*pagegraph.GraphRecord, error)
	DeleteGraphFn   func(ctx context.Context, id string) error
}

func (s *GraphService) CreateGraph(ctx context.Context, rec *pagegraph.GraphRecord, html string) error {
	return s.CreateGraphFn(ctx, rec, html)
}

func (s *GraphService) FindGraphByID(ctx context.Context, id string) (*pagegraph.GraphRecord, error) {
	return s.FindGraphByIDFn(ctx, id)
}

func (s *GraphService) FindGraphs(ctx context.Context, filter pagegraph.GraphFilter) ([]*pagegraph.GraphRecord, error) {
	return s.FindGraphsFn(ctx, filter)
}

func (s *GraphService) DeleteGraph(ctx context.Context, id string) error {
	return s.DeleteGraphFn(ctx, id)
}
