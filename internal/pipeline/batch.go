package pipeline

import (
	"context"
	"sync"
)

// BatchResult pairs a job's index in the submitted slice with its record
// and error.
type BatchResult struct {
	Index  int
	Record *RunRecord
	Err    error
}

// RunBatch executes jobs concurrently with at most Config.Workers in
// flight, returning one result per job in submission order. A cancelled
// context stops launching new jobs; jobs already running finish and report
// normally.
func (o *Orchestrator) RunBatch(ctx context.Context, jobs []Job) []BatchResult {
	results := make([]BatchResult, len(jobs))
	workers := o.cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			results[i] = BatchResult{Index: i, Err: err}
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			defer func() { <-sem }()
			record, err := o.Run(ctx, job)
			results[i] = BatchResult{Index: i, Record: record, Err: err}
		}(i, job)
	}
	wg.Wait()
	return results
}
