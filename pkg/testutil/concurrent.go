package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	dErrors "ibanmanager/pkg/domain-errors"
	"ibanmanager/pkg/platform/sentinel"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes  int32
	Duplicates int32
	Conflicts  int32
	NotFounds  int32
	Errors     int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Duplicates + r.Conflicts + r.NotFounds + r.Errors
}

// RunConcurrent executes fn in parallel goroutines and buckets the outcomes.
// Both sentinel and domain errors are recognized:
//   - duplicate: sentinel.ErrAlreadyUsed or duplicate_iban
//   - conflict: sentinel.ErrConflict or invalid_status_transition
//   - not found: sentinel.ErrNotFound or iban_not_found
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, dupes, conflicts, notFounds, errs atomic.Int32

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed), dErrors.HasCode(err, dErrors.CodeDuplicateIBAN):
				dupes.Add(1)
			case errors.Is(err, sentinel.ErrConflict), dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound), dErrors.HasCode(err, dErrors.CodeIBANNotFound):
				notFounds.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	wg.Wait()

	return &ConcurrentResult{
		Successes:  successes.Load(),
		Duplicates: dupes.Load(),
		Conflicts:  conflicts.Load(),
		NotFounds:  notFounds.Load(),
		Errors:     errs.Load(),
	}
}

// RunConcurrentCtx executes fn in parallel goroutines sharing ctx.
func RunConcurrentCtx(ctx context.Context, goroutines int, fn func(ctx context.Context, idx int) error) *ConcurrentResult {
	return RunConcurrent(goroutines, func(idx int) error {
		return fn(ctx, idx)
	})
}
