package dynamo

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParallelFor splits [0, n) into contiguous chunks and runs fn on each chunk
// concurrently, returning once every chunk has finished (the barrier).
// workers <= 0 selects runtime.NumCPU(). Ranges smaller than minChunk run
// inline on the calling goroutine.
func ParallelFor(n, workers, minChunk int, fn func(start, end int) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		return fn(0, n)
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		s, e := start, end
		g.Go(func() error {
			return fn(s, e)
		})
	}

	return g.Wait()
}
