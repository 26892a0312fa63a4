// Package batch runs independent per-file jobs on a bounded pool and hands
// their results back in input order.
package batch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of one job.
type Result[T, R any] struct {
	Seq   int
	Input T
	Value R
	Err   error
}

// Run calls fn for every input with at most workers calls in flight and
// passes each result to emit in input order. A job error is carried in its
// Result and does not stop the batch. If emit returns an error, jobs that
// have not started yet are cancelled and the error is returned.
// If workers is 0, runtime.NumCPU() is used.
func Run[T, R any](ctx context.Context, inputs []T, workers int,
	fn func(context.Context, T) (R, error), emit func(Result[T, R]) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Result[T, R], 2*workers)

	go func() {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, in := range inputs {
			g.Go(func() error {
				r := Result[T, R]{Seq: i, Input: in}
				if err := gctx.Err(); err != nil {
					r.Err = err
				} else {
					r.Value, r.Err = fn(gctx, in)
				}
				results <- r
				// job errors stay in the result so the other jobs keep running
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	return OrderedCollect(results, func(r Result[T, R]) error {
		if err := emit(r); err != nil {
			cancel()
			return err
		}
		return nil
	})
}

// Collect runs fn over inputs like Run and returns every result in input order.
func Collect[T, R any](ctx context.Context, inputs []T, workers int,
	fn func(context.Context, T) (R, error)) []Result[T, R] {
	out := make([]Result[T, R], 0, len(inputs))
	_ = Run(ctx, inputs, workers, fn, func(r Result[T, R]) error {
		out = append(out, r)
		return nil
	})
	return out
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect[T, R any](results <-chan Result[T, R], fn func(Result[T, R]) error) error {
	pending := make(map[int]Result[T, R])
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
