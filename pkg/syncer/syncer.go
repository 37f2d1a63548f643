package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"webscraper/internal/downloader"
	"webscraper/pkg/checkpoint"
	"webscraper/pkg/logger"
	"webscraper/pkg/metadata"
	"webscraper/pkg/ratelimit"
	"webscraper/pkg/retry"
	"webscraper/pkg/storage"
	"webscraper/pkg/ui"
	"webscraper/pkg/webscraper"
)

// ErrCheckpointExists is returned when a previous run left a checkpoint and
// neither Resume nor ForceRestart was requested
var ErrCheckpointExists = errors.New("checkpoint exists - use --resume to continue or --force-restart to start fresh")

// Client is the part of the API client the syncer needs
type Client interface {
	downloader.ExportDownloader
	GetScrapingJobs(opts webscraper.ListScrapingJobsOptions) *webscraper.Iterator[webscraper.ScrapingJob]
}

// Options configures one sync run
type Options struct {
	// SitemapID limits the sync to one sitemap; 0 syncs every sitemap
	SitemapID int
	Format    webscraper.ExportFormat
	Download  webscraper.DownloadOptions
	Workers   int
	// RetryAttempts bounds attempts per export on network failures
	RetryAttempts int
	Overwrite     bool
	Resume        bool
	ForceRestart  bool
	// IncludeUnfinished also exports jobs that are still running
	IncludeUnfinished bool
	// WriteMetadata saves a .meta.json file next to each new export
	WriteMetadata bool
	// Sleep replaces the wait between download retries
	Sleep retry.SleepFunc
}

// Summary reports what a sync run did
type Summary struct {
	Listed     int
	Queued     int
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
	Failures   map[int]error
	Duration   time.Duration
}

// Syncer mirrors scraping job exports into local storage
type Syncer struct {
	client        Client
	storage       *storage.Manager
	rateLimiter   ratelimit.Limiter
	reporter      ui.SyncReporter
	checkpointMgr *checkpoint.Manager
	logger        logger.Logger

	// guards the checkpoint, written by both the submit loop and the
	// result processor
	mu sync.Mutex
}

// New creates a Syncer. A nil limiter disables download pacing.
func New(client Client, store *storage.Manager, limiter ratelimit.Limiter, log logger.Logger) *Syncer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Syncer{
		client:      client,
		storage:     store,
		rateLimiter: limiter,
		reporter:    ui.NopReporter{},
		logger:      log,
	}
}

// SetReporter sets where progress is shown
func (s *Syncer) SetReporter(r ui.SyncReporter) {
	if r == nil {
		r = ui.NopReporter{}
	}
	s.reporter = r
}

// SetCheckpointManager enables resumable runs
func (s *Syncer) SetCheckpointManager(m *checkpoint.Manager) {
	s.checkpointMgr = m
}

// Run lists the scraping jobs in scope and downloads each export not yet on
// disk. It returns an error when any export failed; the summary is always set.
func (s *Syncer) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	summary := &Summary{Failures: make(map[int]error)}
	if opts.Format == "" {
		opts.Format = webscraper.FormatCSV
	}
	format := string(opts.Format)

	cp, err := s.prepareCheckpoint(opts)
	if err != nil {
		return summary, err
	}

	s.logger.InfoWithFields("Starting export sync", map[string]interface{}{
		"sitemap_id": opts.SitemapID,
		"format":     format,
		"resume":     cp != nil && opts.Resume,
		"output_dir": s.storage.GetOutputDir(),
	})

	jobs, err := s.listJobs(ctx, opts, summary)
	if err != nil {
		return summary, err
	}
	s.reporter.SetTotal(len(jobs))
	s.reporter.LogInfo("Found %d scraping jobs to export", len(jobs))

	if opts.WriteMetadata {
		if removed, err := metadata.CleanOrphanedMetadata(s.storage.GetOutputDir()); err != nil {
			s.logger.WithError(err).Warn("Failed to clean orphaned metadata")
		} else if removed > 0 {
			s.logger.WithField("removed", removed).Debug("Removed orphaned metadata files")
		}
	}

	pool := downloader.NewWorkerPool(ctx, downloader.Options{
		Workers:       opts.Workers,
		RetryAttempts: opts.RetryAttempts,
		Download:      opts.Download,
		Overwrite:     opts.Overwrite,
		Sleep:         opts.Sleep,
	}, s.client, s.storage, s.rateLimiter, s.logger)
	pool.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.processResults(pool.Results(), cp, jobs, opts, summary)
	}()

	queued, skipped, submitErr := s.submitJobs(ctx, pool, jobs, opts, cp)
	if submitErr != nil {
		pool.Abort()
	}
	summary.Queued = queued

	s.logger.InfoWithFields("All exports queued, waiting for downloads to complete", map[string]interface{}{
		"total_queued": queued,
	})
	pool.Stop()
	wg.Wait()
	summary.Skipped += skipped
	summary.Duration = time.Since(start)

	if submitErr != nil {
		return summary, submitErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if summary.Failed > 0 {
		s.reporter.LogError("%d exports failed", summary.Failed)
		return summary, fmt.Errorf("%d of %d exports failed", summary.Failed, summary.Queued)
	}

	if s.checkpointMgr != nil && s.checkpointMgr.Exists() {
		if err := s.checkpointMgr.Delete(); err != nil {
			s.logger.WithError(err).Warn("Failed to delete checkpoint")
		} else {
			s.logger.Debug("Checkpoint deleted after successful completion")
		}
	}

	s.logger.InfoWithFields("Export sync completed", map[string]interface{}{
		"downloaded": summary.Downloaded,
		"skipped":    summary.Skipped,
		"bytes":      summary.Bytes,
		"duration":   summary.Duration.String(),
	})
	s.reporter.LogSuccess("Synced %d exports (%d already present)", summary.Downloaded, summary.Skipped)
	return summary, nil
}

func (s *Syncer) prepareCheckpoint(opts Options) (*checkpoint.Checkpoint, error) {
	if s.checkpointMgr == nil {
		return nil, nil
	}
	format := string(opts.Format)
	scope := checkpoint.Scope(opts.SitemapID, format)

	if s.checkpointMgr.Exists() {
		switch {
		case opts.ForceRestart:
			if err := s.checkpointMgr.BackupCheckpoint(); err != nil {
				s.logger.WithError(err).Warn("Failed to back up checkpoint")
			}
			if err := s.checkpointMgr.Delete(); err != nil {
				return nil, fmt.Errorf("failed to delete checkpoint: %w", err)
			}
			s.reporter.LogInfo("Ignoring existing checkpoint")
		case opts.Resume:
			cp, err := s.checkpointMgr.Load()
			if err != nil {
				return nil, fmt.Errorf("failed to load checkpoint: %w", err)
			}
			if cp != nil {
				s.reporter.LogInfo("Resuming: %d exports already downloaded", cp.TotalDownloaded)
				return cp, nil
			}
		default:
			return nil, ErrCheckpointExists
		}
	}

	cp, err := s.checkpointMgr.Create(scope, opts.SitemapID, format)
	if err != nil {
		// the run still works without one
		s.logger.WithError(err).Warn("Failed to create checkpoint")
		return nil, nil
	}
	return cp, nil
}

func (s *Syncer) listJobs(ctx context.Context, opts Options, summary *Summary) ([]webscraper.ScrapingJob, error) {
	it := s.client.GetScrapingJobs(webscraper.ListScrapingJobsOptions{SitemapID: opts.SitemapID})

	var jobs []webscraper.ScrapingJob
	for it.Next(ctx) {
		job := it.Record()
		summary.Listed++
		if !opts.IncludeUnfinished && job.Status != webscraper.JobStatusFinished {
			s.logger.DebugWithFields("Skipping unfinished scraping job", map[string]interface{}{
				"scraping_job_id": job.ID,
				"status":          job.Status,
			})
			continue
		}
		jobs = append(jobs, job)
	}
	if err := it.Err(); err != nil {
		s.logger.WithError(err).Error("Failed to list scraping jobs")
		return nil, fmt.Errorf("failed to list scraping jobs: %w", err)
	}
	return jobs, nil
}

// submitJobs queues every job not already recorded in the checkpoint and
// returns how many were queued and how many were skipped
func (s *Syncer) submitJobs(ctx context.Context, pool *downloader.WorkerPool, jobs []webscraper.ScrapingJob, opts Options, cp *checkpoint.Checkpoint) (queued, skipped int, err error) {
	format := string(opts.Format)

	for i, job := range jobs {
		if err := s.waitWhilePaused(ctx); err != nil {
			return queued, skipped, err
		}

		if cp != nil && !opts.Overwrite && s.inCheckpoint(cp, job.ID) {
			if _, err := os.Stat(s.storage.ExportPath(job.ID, format)); err == nil {
				s.logger.DebugWithFields("Skipping export recorded in checkpoint", map[string]interface{}{
					"scraping_job_id": job.ID,
				})
				skipped++
				s.reporter.CompleteExport(job.ID, 0, true)
				continue
			}
		}

		err := pool.Submit(downloader.ExportJob{
			JobID:       job.ID,
			SitemapName: job.SitemapName,
			Format:      opts.Format,
		})
		if err != nil {
			s.logger.WithError(err).WithField("scraping_job_id", job.ID).Error("Failed to submit export")
			return queued, skipped, err
		}
		queued++
		s.reporter.StartExport(job.ID, job.SitemapName, storage.ExportFileName(job.ID, format))

		if cp != nil {
			s.mu.Lock()
			err := s.checkpointMgr.UpdateProgress(cp, i+1, queued)
			s.mu.Unlock()
			if err != nil {
				s.logger.WithError(err).Warn("Failed to update checkpoint progress")
			}
		}
	}
	return queued, skipped, nil
}

func (s *Syncer) waitWhilePaused(ctx context.Context) error {
	for s.reporter.IsPaused() {
		if err := retry.Wait(ctx, 200*time.Millisecond); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (s *Syncer) inCheckpoint(cp *checkpoint.Checkpoint, jobID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cp.IsExportDownloaded(jobID)
}

func (s *Syncer) processResults(results <-chan downloader.ExportResult, cp *checkpoint.Checkpoint, jobs []webscraper.ScrapingJob, opts Options, summary *Summary) {
	byID := make(map[int]*webscraper.ScrapingJob, len(jobs))
	for i := range jobs {
		byID[jobs[i].ID] = &jobs[i]
	}

	total := len(jobs)
	done := 0
	for result := range results {
		done++
		jobID := result.Job.JobID

		if result.Success() {
			if result.Skipped {
				summary.Skipped++
			} else {
				summary.Downloaded++
				summary.Bytes += result.Size
			}
			s.reporter.CompleteExport(jobID, result.Size, result.Skipped)

			if opts.WriteMetadata && !result.Skipped {
				s.saveMetadata(byID[jobID], result, opts)
			}

			if cp != nil {
				s.mu.Lock()
				err := s.checkpointMgr.RecordDownload(cp, jobID, storage.ExportFileName(jobID, string(result.Job.Format)))
				s.mu.Unlock()
				if err != nil {
					s.logger.WithError(err).Warn("Failed to record download in checkpoint")
				}
			}
		} else {
			summary.Failed++
			summary.Failures[jobID] = result.Error
			s.reporter.FailExport(jobID, result.Error)

			if cp != nil {
				s.mu.Lock()
				err := s.checkpointMgr.RecordFailure(cp, jobID, result.Error)
				s.mu.Unlock()
				if err != nil {
					s.logger.WithError(err).Warn("Failed to record failure in checkpoint")
				}
			}
		}

		logger.LogSyncProgress(s.logger, done, total)
	}
}

func (s *Syncer) saveMetadata(job *webscraper.ScrapingJob, result downloader.ExportResult, opts Options) {
	if job == nil || result.Path == "" {
		return
	}
	meta := metadata.FromScrapingJob(job, result.Job.Format, opts.Download.Raw, result.Size)
	if err := meta.Save(result.Path); err != nil {
		s.logger.WithError(err).WithField("scraping_job_id", job.ID).Warn("Failed to save export metadata")
	}
}
