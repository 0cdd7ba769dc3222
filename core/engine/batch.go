package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/errors"
	"cloud-architect-sim/internal/logging"
)

// DefaultWorkers is used when a batch is given no worker count
const DefaultWorkers = 4

// Job is one architecture to evaluate in a batch
type Job struct {
	Name    string                 `json:"name"`
	LevelID int                    `json:"level_id"`
	Spec    types.ArchitectureSpec `json:"architecture"`
}

// JobResult is the outcome of one job. Exactly one of Result and
// Error is meaningful.
type JobResult struct {
	Name     string            `json:"name"`
	Result   *ValidationResult `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
	ErrType  errors.Type       `json:"error_type,omitempty"`
	Duration time.Duration     `json:"duration_ns"`
}

// BatchStats summarises a batch run
type BatchStats struct {
	Total          int64         `json:"total"`
	Passed         int64         `json:"passed"`
	Failed         int64         `json:"failed"`
	Errored        int64         `json:"errored"`
	Skipped        int64         `json:"skipped"`
	MaxConcurrency int           `json:"max_concurrency"`
	Duration       time.Duration `json:"duration_ns"`
	Average        time.Duration `json:"average_ns"`
}

// BatchEvaluator evaluates independent architectures on a bounded
// worker pool. Results keep the order of the jobs.
type BatchEvaluator struct {
	engine     *Engine
	maxWorkers int
}

// NewBatchEvaluator creates a batch evaluator
func NewBatchEvaluator(e *Engine, maxWorkers int) *BatchEvaluator {
	if maxWorkers <= 0 {
		maxWorkers = DefaultWorkers
	}
	return &BatchEvaluator{engine: e, maxWorkers: maxWorkers}
}

// Run evaluates every job. A cancelled context leaves the remaining
// jobs unevaluated; they are reported as skipped with the context error.
func (b *BatchEvaluator) Run(ctx context.Context, jobs []Job) ([]JobResult, BatchStats) {
	stats := BatchStats{Total: int64(len(jobs))}
	results := make([]JobResult, len(jobs))
	if len(jobs) == 0 {
		return results, stats
	}

	workers := b.maxWorkers
	if len(jobs) < workers {
		workers = len(jobs)
	}
	stats.MaxConcurrency = workers

	work := make(chan int, len(jobs))
	for i := range jobs {
		work <- i
	}
	close(work)

	var (
		wg      sync.WaitGroup
		elapsed int64
		ran     int64
	)
	start := time.Now()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if err := ctx.Err(); err != nil {
					results[i] = JobResult{Name: jobs[i].Name, Error: err.Error(), ErrType: errors.TypeInternal}
					atomic.AddInt64(&stats.Skipped, 1)
					continue
				}

				res := b.evaluate(jobs[i])
				results[i] = res
				atomic.AddInt64(&elapsed, int64(res.Duration))
				atomic.AddInt64(&ran, 1)

				switch {
				case res.Result == nil:
					atomic.AddInt64(&stats.Errored, 1)
				case res.Result.Valid:
					atomic.AddInt64(&stats.Passed, 1)
				default:
					atomic.AddInt64(&stats.Failed, 1)
				}
			}
		}()
	}
	wg.Wait()

	stats.Duration = time.Since(start)
	if ran > 0 {
		stats.Average = time.Duration(elapsed / ran)
	}

	logging.Debug("batch evaluated",
		zap.Int64("total", stats.Total),
		zap.Int64("passed", stats.Passed),
		zap.Int64("failed", stats.Failed),
		zap.Int64("errored", stats.Errored),
		zap.Int("workers", workers))
	return results, stats
}

func (b *BatchEvaluator) evaluate(job Job) JobResult {
	start := time.Now()
	result, err := b.engine.EvaluateSpec(job.LevelID, job.Spec)

	out := JobResult{Name: job.Name, Duration: time.Since(start)}
	if err != nil {
		out.Error = errors.MessageOf(err)
		out.ErrType = errors.TypeOf(err)
		return out
	}
	out.Result = &result
	return out
}
