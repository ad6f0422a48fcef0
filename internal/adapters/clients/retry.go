package clients

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"time"

	"github.com/jsamuelsen/quotebook/internal/platform/config"
)

// defaultJitter is used when RetryConfig.JitterFactor is zero.
const defaultJitter = 0.25

// backoff returns the wait after the given 1-based attempt:
// InitialInterval * Multiplier^(attempt-1), capped at MaxInterval, then
// spread by ±JitterFactor.
func backoff(cfg config.RetryConfig, attempt int) time.Duration {
	wait := float64(cfg.InitialInterval) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if ceiling := float64(cfg.MaxInterval); ceiling > 0 && wait > ceiling {
		wait = ceiling
	}

	jitter := cfg.JitterFactor
	if jitter <= 0 {
		jitter = defaultJitter
	}

	wait *= 1 + jitter*(2*rand.Float64()-1) //nolint:gosec // jitter only

	return time.Duration(wait)
}

// retryable reports whether a transport error is worth another attempt.
// Timeouts and dial or connection errors are; cancellation is not.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
