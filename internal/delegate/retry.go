package delegate

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackoff yields attempt*step delays: step, 2*step, 3*step, ...
// The delegate submission uses it with step=2s and two retries, giving
// three attempts with ~2s and ~4s pauses between them.
type linearBackoff struct {
	step    time.Duration
	attempt int
}

var _ backoff.BackOff = (*linearBackoff)(nil)

func (b *linearBackoff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackoff) Reset() {
	b.attempt = 0
}

// retryPolicy returns the bounded policy for delegate submissions:
// maxAttempts total attempts with linearly growing delays.
func retryPolicy(step time.Duration, maxAttempts int) backoff.BackOff {
	return backoff.WithMaxRetries(&linearBackoff{step: step}, uint64(maxAttempts-1))
}
