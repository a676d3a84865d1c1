package batch_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fwojciec/pagegraph"
	"github.com/fwojciec/pagegraph/batch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failing returns an op that fails with errs in order, then succeeds.
func failing(calls *int, errs ...error) func(context.Context) error {
	return func(context.Context) error {
		*calls++
		if *calls <= len(errs) {
			return errs[*calls-1]
		}
		return nil
	}
}

func TestBackoff_Do(t *testing.T) {
	t.Parallel()

	t.Run("stops at the first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		b := &batch.Backoff{Delays: []time.Duration{0, 0}}

		require.NoError(t, b.Do(context.Background(), failing(&calls)))
		assert.Equal(t, 1, calls)
	})

	t.Run("reports each retry", func(t *testing.T) {
		t.Parallel()

		calls := 0
		var retries []string
		b := &batch.Backoff{
			Delays: []time.Duration{0, time.Millisecond, 0},
			OnRetry: func(attempt int, wait time.Duration, err error) {
				retries = append(retries, fmt.Sprintf("%d %s %v", attempt, wait, err))
			},
		}

		err := b.Do(context.Background(), failing(&calls, errors.New("reset"), errors.New("timeout")))

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []string{"1 0s reset", "2 1ms timeout"}, retries)
	})

	t.Run("gives up after the last delay", func(t *testing.T) {
		t.Parallel()

		calls := 0
		b := &batch.Backoff{Delays: []time.Duration{0, 0}}

		err := b.Do(context.Background(), failing(&calls, errors.New("a"), errors.New("b"), errors.New("c"), errors.New("d")))

		assert.EqualError(t, err, "c")
		assert.Equal(t, 3, calls)
	})

	t.Run("no delays means a single attempt", func(t *testing.T) {
		t.Parallel()

		calls := 0

		err := (&batch.Backoff{}).Do(context.Background(), failing(&calls, errors.New("a")))

		assert.EqualError(t, err, "a")
		assert.Equal(t, 1, calls)
	})

	t.Run("final errors are not retried", func(t *testing.T) {
		t.Parallel()

		for _, code := range []string{pagegraph.ENOTFOUND, pagegraph.EINVALID} {
			calls := 0
			b := &batch.Backoff{Delays: []time.Duration{0, 0}}

			err := b.Do(context.Background(), failing(&calls, pagegraph.Errorf(code, "nope")))

			assert.Equal(t, code, pagegraph.ErrorCode(err))
			assert.Equal(t, 1, calls)
		}
	})

	t.Run("cancellation interrupts the wait", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		b := &batch.Backoff{
			Delays:  []time.Duration{time.Hour},
			OnRetry: func(int, time.Duration, error) { cancel() },
		}

		begin := time.Now()
		err := b.Do(ctx, func(context.Context) error { return errors.New("boom") })

		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(begin), time.Second)
	})
}

func TestDefaultBackoff(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, batch.DefaultBackoff().Delays)
}
