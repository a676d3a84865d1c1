package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/pagegraph"
	"github.com/fwojciec/pagegraph/mock"
	pgslog "github.com/fwojciec/pagegraph/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingGraphService(t *testing.T) {
	t.Parallel()

	t.Run("logs create with assigned ID", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.GraphService{
			CreateGraphFn: func(ctx context.Context, rec *pagegraph.GraphRecord, html string) error {
				rec.ID = "g-1"
				return nil
			},
		}

		rec := &pagegraph.GraphRecord{URL: "https://example.com", Graph: pagegraph.Assemble(nil, nil)}
		err := pgslog.NewLoggingGraphService(inner, logger).CreateGraph(context.Background(), rec, "")

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "id=g-1")
		assert.Contains(t, buf.String(), "url=https://example.com")
	})

	t.Run("logs delete errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.GraphService{
			DeleteGraphFn: func(ctx context.Context, id string) error {
				return pagegraph.Errorf(pagegraph.ENOTFOUND, "graph not found")
			},
		}

		err := pgslog.NewLoggingGraphService(inner, logger).DeleteGraph(context.Background(), "g-2")

		assert.Equal(t, pagegraph.ENOTFOUND, pagegraph.ErrorCode(err))
		assert.Contains(t, buf.String(), "msg=\"delete graph\"")
		assert.Contains(t, buf.String(), "id=g-2")
	})

	t.Run("logs lookups at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.GraphService{
			FindGraphsFn: func(ctx context.Context, filter pagegraph.GraphFilter) ([]*pagegraph.GraphRecord, error) {
				return []*pagegraph.GraphRecord{{ID: "a"}, {ID: "b"}}, nil
			},
			FindGraphByIDFn: func(ctx context.Context, id string) (*pagegraph.GraphRecord, error) {
				return &pagegraph.GraphRecord{ID: id}, nil
			},
		}
		svc := pgslog.NewLoggingGraphService(inner, logger)

		recs, err := svc.FindGraphs(context.Background(), pagegraph.GraphFilter{})
		require.NoError(t, err)
		assert.Len(t, recs, 2)

		rec, err := svc.FindGraphByID(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, "a", rec.ID)

		assert.Contains(t, buf.String(), "count=2")
		assert.Contains(t, buf.String(), `msg="find graph" id=a`)
	})
}
