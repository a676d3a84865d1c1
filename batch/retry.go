package batch

import (
	"context"
	"time"

	"github.com/fwojciec/pagegraph"
)

// Backoff retries transient failures, waiting for each of Delays in turn.
// Not-found and invalid-input errors are final and never retried.
type Backoff struct {
	Delays []time.Duration

	// OnRetry is called before each wait with the failed attempt number
	// (starting at 1) and its error.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultBackoff waits 1s, 2s and 4s between four attempts.
func DefaultBackoff() *Backoff {
	return &Backoff{Delays: []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}}
}

// Do calls op until it succeeds, fails with a final error or the delays
// are used up, and returns op's last error. A cancelled context ends the
// wait early with the context error.
func (b *Backoff) Do(ctx context.Context, op func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil || final(err) || attempt >= len(b.Delays) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		wait := b.Delays[attempt]
		if b.OnRetry != nil {
			b.OnRetry(attempt+1, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func final(err error) bool {
	switch pagegraph.ErrorCode(err) {
	case pagegraph.ENOTFOUND, pagegraph.EINVALID:
		return true
	}
	return false
}
