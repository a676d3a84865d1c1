package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/pagegraph"
)

// Ensure LoggingGraphService implements pagegraph.GraphService.
var _ pagegraph.GraphService = (*LoggingGraphService)(nil)

// LoggingGraphService wraps a GraphService with logging.
type LoggingGraphService struct {
	next   pagegraph.GraphService
	logger *slog.Logger
}

// NewLoggingGraphService creates a new LoggingGraphService.
func NewLoggingGraphService(next pagegraph.GraphService, logger *slog.Logger) *LoggingGraphService {
	return &LoggingGraphService{next: next, logger: logger}
}

func (s *LoggingGraphService) CreateGraph(ctx context.Context, rec *pagegraph.GraphRecord, html string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("create graph",
			"id", rec.ID,
			"url", rec.URL,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.CreateGraph(ctx, rec, html)
}

func (s *LoggingGraphService) FindGraphByID(ctx context.Context, id string) (rec *pagegraph.GraphRecord, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find graph",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindGraphByID(ctx, id)
}

func (s *LoggingGraphService) FindGraphs(ctx context.Context, filter pagegraph.GraphFilter) (recs []*pagegraph.GraphRecord, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find graphs",
			"count", len(recs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindGraphs(ctx, filter)
}

func (s *LoggingGraphService) DeleteGraph(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("delete graph",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteGraph(ctx, id)
}
