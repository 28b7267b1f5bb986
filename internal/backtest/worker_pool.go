package backtest

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ducminhle1904/backtest-engine/internal/monitoring"
	"github.com/ducminhle1904/backtest-engine/internal/strategy"
	"github.com/ducminhle1904/backtest-engine/pkg/types"
)

// WorkerPool runs independent backtests in parallel. Parallelism is at
// the granularity of whole runs: every job owns its own engine, equity
// state and ledger, and results are only published after a run
// completes. A cancelled or failed run publishes an error, never a
// partial ledger.
type WorkerPool struct {
	workerCount int
	jobQueue    chan Job
	resultQueue chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// Job is a single backtest to run.
type Job struct {
	ID       string
	Config   *BacktestConfig
	Data     []types.OHLCV
	Strategy strategy.Strategy
}

// JobResult is the outcome of one job: either a complete result or an
// error, never both.
type JobResult struct {
	ID       string
	Results  *BacktestResults
	Duration time.Duration
	Err      error
}

// NewWorkerPool creates a pool; workerCount <= 0 defaults to NumCPU.
func NewWorkerPool(workerCount, jobBufferSize int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workerCount: workerCount,
		jobQueue:    make(chan Job, jobBufferSize),
		resultQueue: make(chan JobResult, jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop drains submitted jobs and shuts the pool down gracefully.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Abort cancels outstanding work. In-flight runs are discarded, not
// published partially.
func (wp *WorkerPool) Abort() {
	wp.cancel()
}

// Submit queues a job, failing if the pool has been aborted.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Results returns the channel of completed runs.
func (wp *WorkerPool) Results() <-chan JobResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			result := processJob(job)
			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}
		case <-wp.ctx.Done():
			return
		}
	}
}

func processJob(job Job) JobResult {
	startTime := time.Now()
	result := JobResult{ID: job.ID}

	// NewEngine rejects a nil config; the symbol label must not assume one.
	symbol := ""
	if job.Config != nil {
		symbol = job.Config.Symbol
	}

	engine, err := NewEngine(job.Config, job.Strategy)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(startTime)
		monitoring.RecordRun(symbol, "error", result.Duration.Seconds())
		return result
	}

	results, err := engine.Run(job.Data)
	result.Duration = time.Since(startTime)
	if err != nil {
		result.Err = err
		monitoring.RecordRun(symbol, "error", result.Duration.Seconds())
		return result
	}

	result.Results = results
	monitoring.RecordRun(symbol, "ok", result.Duration.Seconds())
	monitoring.RecordTrades(symbol, len(results.Trades))
	monitoring.RecordSizingRejections(symbol, len(results.Warnings))
	return result
}

// ProgressTracker tracks completion of a batch of runs.
type ProgressTracker struct {
	total     int
	completed int
	startTime time.Time
	mutex     sync.RWMutex
}

// NewProgressTracker creates a tracker for a batch of the given size.
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{total: total, startTime: time.Now()}
}

// Increment marks one run as completed.
func (pt *ProgressTracker) Increment() {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.completed++
}

// Progress returns completed count, total, percent done, and elapsed time.
func (pt *ProgressTracker) Progress() (int, int, float64, time.Duration) {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()
	elapsed := time.Since(pt.startTime)
	percent := 0.0
	if pt.total > 0 {
		percent = float64(pt.completed) / float64(pt.total) * 100
	}
	return pt.completed, pt.total, percent, elapsed
}
