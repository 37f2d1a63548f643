package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"webscraper/pkg/logger"
	"webscraper/pkg/ratelimit"
	"webscraper/pkg/retry"
	"webscraper/pkg/webscraper"
)

// ErrPoolStopped is returned by Submit once the pool is shutting down
var ErrPoolStopped = errors.New("worker pool is shutting down")

// ExportJob is a single scraping job export to fetch
type ExportJob struct {
	JobID       int
	SitemapName string
	Format      webscraper.ExportFormat
}

// ExportResult is the outcome of one ExportJob
type ExportResult struct {
	Job      ExportJob
	Path     string
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int64
	Attempts int
}

// Success reports whether the export is present on disk
func (r ExportResult) Success() bool {
	return r.Error == nil
}

// ExportDownloader fetches an export into a local file
type ExportDownloader interface {
	DownloadScrapingJob(ctx context.Context, jobID int, format webscraper.ExportFormat, path string, opts webscraper.DownloadOptions) error
}

// ExportStorage tracks which exports already exist locally
type ExportStorage interface {
	IsDownloaded(jobID int, format string) bool
	ExportPath(jobID int, format string) string
	MarkDownloaded(jobID int, format string)
}

// Options configures a WorkerPool
type Options struct {
	Workers int
	// RetryAttempts bounds attempts per export; only network failures are retried
	RetryAttempts int
	// RetryBackoff spaces network retries, exponential by default
	RetryBackoff retry.BackoffStrategy
	Download     webscraper.DownloadOptions
	// Overwrite re-downloads exports that already exist
	Overwrite bool
	Sleep     retry.SleepFunc
}

// WorkerPool downloads exports concurrently
type WorkerPool struct {
	opts        Options
	jobQueue    chan ExportJob
	resultQueue chan ExportResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      ExportDownloader
	storage     ExportStorage
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
	stopOnce    sync.Once
}

// NewWorkerPool creates a pool bound to ctx. A nil limiter disables pacing.
func NewWorkerPool(
	ctx context.Context,
	opts Options,
	client ExportDownloader,
	storage ExportStorage,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *WorkerPool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 1
	}
	if opts.RetryBackoff == nil {
		opts.RetryBackoff = retry.DefaultExponentialBackoff()
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Wait
	}
	if log == nil {
		log = logger.GetLogger()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		opts:        opts,
		jobQueue:    make(chan ExportJob, opts.Workers*2),
		resultQueue: make(chan ExportResult, opts.Workers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.opts.Workers,
	})

	for i := 0; i < wp.opts.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for queued jobs to finish and closes Results
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		wp.logger.Debug("Stopping worker pool")
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
		wp.logger.Debug("Worker pool stopped")
	})
}

// Abort cancels in-flight downloads; Stop must still be called
func (wp *WorkerPool) Abort() {
	wp.cancel()
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job ExportJob) error {
	select {
	case <-wp.ctx.Done():
		return ErrPoolStopped
	default:
	}

	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"scraping_job_id": job.JobID,
			"format":          string(job.Format),
		})
		return nil
	case <-wp.ctx.Done():
		return ErrPoolStopped
	}
}

// Results returns the channel of finished jobs; it is closed by Stop
func (wp *WorkerPool) Results() <-chan ExportResult {
	return wp.resultQueue
}

// GetQueueSize returns the number of jobs waiting for a worker
func (wp *WorkerPool) GetQueueSize() int {
	return len(wp.jobQueue)
}

// GetActiveWorkers returns the number of workers
func (wp *WorkerPool) GetActiveWorkers() int {
	return wp.opts.Workers
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		var result ExportResult
		if err := wp.ctx.Err(); err != nil {
			result = ExportResult{Job: job, Error: err}
		} else {
			result = wp.processJob(job, id)
		}

		wp.resultQueue <- result
	}
}

func (wp *WorkerPool) processJob(job ExportJob, workerID int) ExportResult {
	start := time.Now()
	format := string(job.Format)
	result := ExportResult{
		Job:  job,
		Path: wp.storage.ExportPath(job.JobID, format),
	}

	if !wp.opts.Overwrite && wp.storage.IsDownloaded(job.JobID, format) {
		result.Skipped = true
		result.Duration = time.Since(start)
		logger.LogExport(wp.logger, job.JobID, format, true, nil)
		return result
	}

	if wp.rateLimiter != nil {
		if err := wp.rateLimiter.Wait(wp.ctx); err != nil {
			result.Error = fmt.Errorf("rate limiter: %w", err)
			result.Duration = time.Since(start)
			return result
		}
	}

	err := retry.Do(func() error {
		result.Attempts++
		return wp.client.DownloadScrapingJob(wp.ctx, job.JobID, job.Format, result.Path, wp.opts.Download)
	}, &retry.Config{
		MaxAttempts: wp.opts.RetryAttempts,
		Backoff:     wp.opts.RetryBackoff,
		RetryIf:     retry.IsNetworkError,
		Sleep:       wp.opts.Sleep,
		Context:     wp.ctx,
		Logger:      wp.logger,
	})
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		logger.LogExport(wp.logger.WithField("worker_id", workerID), job.JobID, format, false, err)
		return result
	}

	if info, statErr := os.Stat(result.Path); statErr == nil {
		result.Size = info.Size()
	}
	wp.storage.MarkDownloaded(job.JobID, format)
	logger.LogExport(wp.logger.WithField("worker_id", workerID), job.JobID, format, false, nil)

	return result
}
