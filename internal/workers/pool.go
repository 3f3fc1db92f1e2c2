// Package workers runs per-item stage work on a bounded pool.
package workers

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultSize is used when a non-positive size is requested
const DefaultSize = 8

// Pool bounds the number of in-flight item calls.
//
// One Pool is shared by every stage of a run, so concurrent stages compete
// for the same permits and the run never has more than Size calls in flight.
type Pool struct {
	size int
	sem  *semaphore.Weighted
}

// NewPool creates a pool with the given number of permits
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{
		size: size,
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

// Size returns the number of permits
func (p *Pool) Size() int {
	return p.size
}

// ItemError reports the item that aborted a stage
type ItemError struct {
	Stage  string
	ItemID string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s stage failed for %s: %v", e.Stage, e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// ProgressFunc is called after each item completes successfully
type ProgressFunc func(done, total int, itemID string)

// Fan applies fn to every item on the pool and returns the results keyed by item id.
//
// Items are dispatched in input order. Fan returns only once every started call
// has returned. The first failure cancels the remaining items, discards all
// results and is returned as an *ItemError.
func Fan[T, R any](
	ctx context.Context,
	pool *Pool,
	stage string,
	items []T,
	key func(T) string,
	fn func(context.Context, T) (R, error),
	progress ProgressFunc,
) (map[string]R, error) {
	total := len(items)
	if total == 0 {
		return map[string]R{}, nil
	}

	jobs := make(chan T, total)
	for _, item := range items {
		jobs <- item
	}
	close(jobs)

	numWorkers := pool.size
	if total < numWorkers {
		numWorkers = total // Don't spawn more workers than items
	}

	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make(map[string]R, total)
	done := 0

	for i := 0; i < numWorkers; i++ {
		g.Go(func() error {
			for item := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				id := key(item)

				if err := pool.sem.Acquire(gctx, 1); err != nil {
					return err
				}
				res, err := fn(gctx, item)
				pool.sem.Release(1)

				if err != nil {
					return &ItemError{Stage: stage, ItemID: id, Err: err}
				}

				mu.Lock()
				results[id] = res
				done++
				n := done
				mu.Unlock()

				if progress != nil {
					progress(n, total, id)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
