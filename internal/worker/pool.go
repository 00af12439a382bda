// Package worker runs a service over many inputs with a bounded pool of
// goroutines.
package worker

import (
	"context"
	"sync"

	"github.com/tbckr/nsolver/internal/services"
)

// Result is the outcome of running a service for one input.
type Result struct {
	Input  string
	Output services.Result
	Err    error
}

// Run processes inputs with at most concurrency workers pulling from a
// shared queue. Results are index-addressed, so the returned slice is in
// input order regardless of completion order.
//
// Once ctx is canceled no further inputs are started; their slots hold
// ctx.Err() and a nil Output.
func Run(ctx context.Context, svc services.Service, inputs []string, concurrency int) []Result {
	results := make([]Result, len(inputs))
	for i, in := range inputs {
		results[i].Input = in
	}
	if len(inputs) == 0 {
		return results
	}
	concurrency = max(1, min(concurrency, len(inputs)))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range concurrency {
		wg.Go(func() {
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				out, err := svc.Run(ctx, inputs[i])
				results[i].Output = out
				results[i].Err = err
			}
		})
	}

	next := 0
dispatch:
	for ; next < len(inputs); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(inputs); i++ {
		results[i].Err = ctx.Err()
	}
	return results
}
