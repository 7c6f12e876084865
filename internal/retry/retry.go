package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maitred/internal/models"
)

// Policy bounds how a collaborator call is attempted.
type Policy struct {
	MaxRetries     int
	Delay          time.Duration
	AttemptTimeout time.Duration
}

// Once is the default policy for collaborator calls: one retry after a short pause.
var Once = Policy{MaxRetries: 1, Delay: 200 * time.Millisecond, AttemptTimeout: 30 * time.Second}

// Do runs fn until it succeeds, returns a permanent error, or the retry
// budget is spent. Each attempt gets its own timeout. The pause before
// attempt n is n*Delay.
//
// Validation and not-found errors are returned immediately. Malformed output
// is returned as is after the last attempt; any other final error is wrapped
// with models.ErrCollaboratorUnavailable.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 && p.Delay > 0 {
			timer := time.NewTimer(time.Duration(attempt) * p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%w: %v", models.ErrCollaboratorUnavailable, ctx.Err())
			case <-timer.C:
			}
		}

		lastErr = attemptOnce(ctx, p.AttemptTimeout, fn)
		if lastErr == nil {
			return nil
		}
		if permanent(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			break
		}
	}

	if errors.Is(lastErr, models.ErrMalformedOutput) || errors.Is(lastErr, models.ErrCollaboratorUnavailable) {
		return lastErr
	}
	return fmt.Errorf("%w: %v", models.ErrCollaboratorUnavailable, lastErr)
}

func attemptOnce(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

func permanent(err error) bool {
	return errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrNotFound)
}
