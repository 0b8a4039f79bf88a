package impulse

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// task splits data into workersCount contiguous chunks and maps fn over
// them, keeping the results for which fn reports true. Results keep the
// order of data. A panicking chunk contributes no results and is reported in
// the returned error; the other chunks are unaffected. With a single worker
// everything runs on the calling goroutine.
func task[T, R any](workersCount int, data []T, fn func(item T) (R, bool)) ([]R, error) {
	dataSize := len(data)
	if dataSize == 0 {
		return nil, nil
	}
	workersCount = max(1, min(workersCount, dataSize))
	chunkSize := (dataSize + workersCount - 1) / workersCount

	chunks := make([][]R, workersCount)
	errs := make([]error, workersCount)

	run := func(workerID, start, end int) (err error) {
		defer func() {
			if r := recover(); r != nil {
				chunks[workerID] = nil
				err = fmt.Errorf("chunk %d [%d:%d]: panic: %v", workerID, start, end, r)
			}
		}()
		for i := start; i < end; i++ {
			if result, ok := fn(data[i]); ok {
				chunks[workerID] = append(chunks[workerID], result)
			}
		}
		return nil
	}

	var failed bool
	if workersCount == 1 {
		errs[0] = run(0, 0, dataSize)
		failed = errs[0] != nil
	} else {
		var g errgroup.Group
		for workerID := 0; workerID < workersCount; workerID++ {
			start, end := workerID*chunkSize, min((workerID+1)*chunkSize, dataSize)
			if start >= end {
				break
			}
			g.Go(func() error {
				errs[workerID] = run(workerID, start, end)
				return errs[workerID]
			})
		}
		failed = g.Wait() != nil
	}

	results := make([]R, 0, dataSize)
	for _, chunk := range chunks {
		results = append(results, chunk...)
	}
	if !failed {
		return results, nil
	}
	// Wait keeps the first error only, errs holds every failed chunk
	return results, errors.Join(errs...)
}
