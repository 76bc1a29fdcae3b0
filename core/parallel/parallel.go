// Package parallel provides a chunked worker helper for embarrassingly
// parallel loops over index ranges.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items across the available CPU cores and executes fn
// for each half-open range [start, end). Callers must ensure fn writes to
// disjoint, pre-allocated slots so output order stays deterministic.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Ceiling division so the last chunk picks up the remainder.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items is at or below
// threshold, in parallel otherwise. Small inputs are not worth the
// goroutine overhead.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
