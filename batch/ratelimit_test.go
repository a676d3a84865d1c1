package batch_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/pagegraph/batch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// elapsed returns how long n waits on host take.
func elapsed(t *testing.T, l *batch.HostLimiter, host string, n int) time.Duration {
	t.Helper()
	begin := time.Now()
	for range n {
		require.NoError(t, l.Wait(context.Background(), host))
	}
	return time.Since(begin)
}

func TestHostLimiter(t *testing.T) {
	t.Parallel()

	t.Run("spaces requests to one host", func(t *testing.T) {
		t.Parallel()

		l := batch.NewHostLimiter(10, 1)

		assert.GreaterOrEqual(t, elapsed(t, l, "example.com", 3), 180*time.Millisecond)
	})

	t.Run("hosts have separate budgets", func(t *testing.T) {
		t.Parallel()

		l := batch.NewHostLimiter(1, 1)
		require.NoError(t, l.Wait(context.Background(), "a.example.com"))

		assert.Less(t, elapsed(t, l, "b.example.com", 1), 50*time.Millisecond)
	})

	t.Run("case and default ports share a budget", func(t *testing.T) {
		t.Parallel()

		l := batch.NewHostLimiter(1, 1)
		require.NoError(t, l.Wait(context.Background(), "Example.com:443"))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := l.Wait(ctx, "example.com")

		assert.Error(t, err)
	})

	t.Run("non-default ports are separate hosts", func(t *testing.T) {
		t.Parallel()

		l := batch.NewHostLimiter(1, 1)
		require.NoError(t, l.Wait(context.Background(), "example.com"))

		assert.Less(t, elapsed(t, l, "example.com:8080", 1), 50*time.Millisecond)
	})

	t.Run("burst admits several requests at once", func(t *testing.T) {
		t.Parallel()

		l := batch.NewHostLimiter(1, 3)

		assert.Less(t, elapsed(t, l, "example.com", 3), 50*time.Millisecond)
	})

	t.Run("zero rate disables limiting", func(t *testing.T) {
		t.Parallel()

		l := batch.NewHostLimiter(0, 0)

		assert.Less(t, elapsed(t, l, "example.com", 20), 50*time.Millisecond)
	})

	t.Run("returns the context error when cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, batch.NewHostLimiter(0, 1).Wait(ctx, "example.com"), context.Canceled)
	})
}
