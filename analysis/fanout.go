package analysis

import (
	"context"
	"errors"
	"time"

	"clausecheck-backend/llm"
	"clausecheck-backend/models"

	"golang.org/x/sync/errgroup"
)

// forEach runs fn for every index in [0, n) with at most limit calls in flight.
// Each call owns index i. No new call starts once ctx is done.
func forEach(ctx context.Context, limit, n int, fn func(ctx context.Context, i int)) {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

// callService issues one service call under its own timeout.
// Any error returned is a ServiceTimeoutError or ServiceUnavailableError.
func callService(ctx context.Context, svc llm.Service, timeout time.Duration, req llm.Request) (string, error) {
	if svc == nil {
		return "", models.NewError(models.KindServiceUnavailable, "text-understanding service not configured")
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := svc.Generate(callCtx, req)
	if err == nil {
		return out, nil
	}

	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, models.ErrServiceTimeout) {
		return "", models.WrapError(models.KindServiceTimeout, err, "%s call exceeded %s", req.Task, timeout)
	}
	if !models.IsServiceFailure(err) {
		return "", models.WrapError(models.KindServiceUnavailable, err, "%s call failed", req.Task)
	}
	return "", err
}
