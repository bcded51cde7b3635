package meshcheck

import "sync"

// taskResults runs fn over data chunked across workersCount goroutines and
// returns one result per input, order preserved. Each worker writes a
// disjoint range of the result slice, so no locking is needed.
func taskResults[T, R any](workersCount int, data []T, fn func(data T) R) []R {
	results := make([]R, len(data))

	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				results[i] = fn(data[i])
			}
		}(workerID*chunkSize, min((workerID+1)*chunkSize, dataSize))
	}
	wg.Wait()

	return results
}
