package usecase

import (
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/mentonehc/hvsync/internal/domain/pipeline"
)

// defaultStageWorkers bounds page fan-out inside a stage. The shared rate
// limiter in the fetcher keeps politeness global, so the pool only caps
// in-flight parsing work.
const defaultStageWorkers = 3

// StageResult is the summary every sync stage returns from Run.
type StageResult struct {
	Module     pipeline.Module `json:"module"`
	OKCount    int             `json:"ok_count"`
	ErrorCount int             `json:"error_count"`
	DryRun     bool            `json:"dry_run,omitempty"`
	Notes      []string        `json:"notes,omitempty"`
}

// Outcome converts the summary into a run record entry.
func (r StageResult) Outcome() pipeline.StageOutcome {
	return pipeline.StageOutcome{
		Module:     r.Module,
		OKCount:    r.OKCount,
		ErrorCount: r.ErrorCount,
	}
}

// runPooled executes taskCount tasks on a bounded worker pool and joins.
// The callback receives the task index; collection happens through channels
// owned by the caller.
func runPooled(workers, taskCount int, fn func(i int)) error {
	if workers <= 0 {
		workers = defaultStageWorkers
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := 0; i < taskCount; i++ {
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			fn(i)
		}); err != nil {
			wg.Done()
			return fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	wg.Wait()

	return nil
}
