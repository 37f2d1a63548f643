package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"webscraper/pkg/checkpoint"
	"webscraper/pkg/logger"
	"webscraper/pkg/storage"
	"webscraper/pkg/syncer"
	"webscraper/pkg/ui"
	"webscraper/pkg/ui/tui"
	"webscraper/pkg/webscraper"
)

var (
	syncSitemapID         int
	syncFormat            string
	syncConcurrent        int
	syncRateLimit         int
	syncOutputDir         string
	syncRaw               bool
	syncKeepCompressed    bool
	syncOverwrite         bool
	syncResume            bool
	syncForceRestart      bool
	syncIncludeUnfinished bool
	syncNoCheckpoint      bool
	syncNoMetadata        bool
	useTUI                bool
	notify                bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download the exports of every finished scraping job",
	Long: `Download the exports of every finished scraping job into the output
directory, several at a time.

Exports already on disk are skipped. Progress is kept in a checkpoint so an
interrupted sync can be continued with --resume.`,
	Example: `  # Everything, as CSV
  webscraper sync

  # The jobs of one sitemap as JSON lines with the dashboard
  webscraper sync --sitemap-id 123 --format json --tui

  # Continue an interrupted sync
  webscraper sync --resume`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	flags := syncCmd.Flags()
	flags.IntVar(&syncSitemapID, "sitemap-id", 0, "only sync the jobs of this sitemap")
	flags.StringVarP(&syncFormat, "format", "f", "", "export format: csv, json or xlsx (default from config)")
	flags.IntVar(&syncConcurrent, "concurrent", 0, "number of concurrent downloads (default from config)")
	flags.IntVar(&syncRateLimit, "rate-limit", 0, "API requests per minute (default from config)")
	flags.StringVar(&syncOutputDir, "output-dir", "", "directory for exports (default from config)")
	flags.BoolVar(&syncRaw, "raw", false, "download unprocessed exports")
	flags.BoolVar(&syncKeepCompressed, "keep-compressed", false, "write gzip encoded responses as received")
	flags.BoolVar(&syncOverwrite, "overwrite", false, "download exports that are already on disk again")
	flags.BoolVar(&syncResume, "resume", false, "continue from the last checkpoint")
	flags.BoolVar(&syncForceRestart, "force-restart", false, "ignore the checkpoint and start over")
	flags.BoolVar(&syncIncludeUnfinished, "include-unfinished", false, "also export jobs that are still running")
	flags.BoolVar(&syncNoCheckpoint, "no-checkpoint", false, "do not record progress")
	flags.BoolVar(&syncNoMetadata, "no-metadata", false, "do not write a .meta.json file next to each export")
	flags.BoolVar(&useTUI, "tui", false, "use the interactive dashboard")
	flags.BoolVar(&notify, "notify", false, "send a desktop notification when done")

	syncCmd.MarkFlagsMutuallyExclusive("resume", "force-restart")
}

func runSync(cmd *cobra.Command, args []string) error {
	client, cfg, err := newClient(map[string]interface{}{
		"format":     syncFormat,
		"concurrent": syncConcurrent,
		"rate-limit": syncRateLimit,
		"raw":        syncRaw,
		"output-dir": syncOutputDir,
	})
	if err != nil {
		return err
	}

	format, err := webscraper.ParseExportFormat(cfg.Download.Format)
	if err != nil {
		return err
	}

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return err
	}

	// the client transport already paces API calls
	s := syncer.New(client, store, nil, logger.GetLogger())

	if !syncNoCheckpoint {
		cpManager, err := checkpoint.NewManager(checkpoint.Scope(syncSitemapID, string(format)))
		if err != nil {
			return err
		}
		s.SetCheckpointManager(cpManager)
	}

	opts := syncer.Options{
		SitemapID: syncSitemapID,
		Format:    format,
		Download: webscraper.DownloadOptions{
			Raw:            cfg.Download.Raw,
			KeepCompressed: syncKeepCompressed || !cfg.Download.Decompress,
		},
		Workers:           cfg.Download.ConcurrentDownloads,
		RetryAttempts:     cfg.Download.RetryAttempts,
		Overwrite:         syncOverwrite || cfg.Output.OverwriteExisting,
		Resume:            syncResume,
		ForceRestart:      syncForceRestart,
		IncludeUnfinished: syncIncludeUnfinished,
		WriteMetadata:     !syncNoMetadata,
	}

	label := "all sitemaps"
	if syncSitemapID > 0 {
		label = fmt.Sprintf("sitemap %d", syncSitemapID)
	}

	var summary *syncer.Summary
	var runErr error
	if useTUI {
		summary, runErr = runSyncWithTUI(cmd, s, opts, label)
	} else {
		ui.PrintLogo()
		ui.PrintInfo("Syncing", label)
		ui.PrintInfo("Output directory", store.GetOutputDir())

		var display *ui.ProgressDisplay
		if !ui.IsQuietMode() {
			display = ui.NewProgressDisplayTo(cmd.OutOrStdout(), label, 0, logLevel == "debug")
			s.SetReporter(display)
		}
		summary, runErr = s.Run(cmd.Context(), opts)
		if display != nil && summary != nil && summary.Queued > 0 {
			display.Complete()
		}
	}

	notifier := ui.NewNotifier(notify)
	if runErr != nil {
		if errors.Is(runErr, syncer.ErrCheckpointExists) {
			if info, err := checkpointInfo(syncSitemapID, string(format)); err == nil && info != nil {
				ui.PrintWarning(fmt.Sprintf("Previous sync of %s stopped %s ago after %d exports (%d failed)",
					label, ui.FormatDuration(info.Age), info.TotalDownloaded, info.TotalFailed))
			}
			return runErr
		}
		notifier.SendError("Sync failed", runErr.Error())
		return runErr
	}

	notifier.SendSuccess("Sync complete", fmt.Sprintf("%d downloaded, %d skipped (%s)",
		summary.Downloaded, summary.Skipped, ui.FormatBytes(summary.Bytes)))
	return nil
}

// runSyncWithTUI runs the sync in the background while the dashboard owns
// the terminal
func runSyncWithTUI(cmd *cobra.Command, s *syncer.Syncer, opts syncer.Options, label string) (*syncer.Summary, error) {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	dashboard := tui.NewTUI(ctx, "Syncing "+label)
	s.SetReporter(dashboard)

	type result struct {
		summary *syncer.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := s.Run(ctx, opts)
		dashboard.Finish()
		done <- result{summary, err}
	}()

	if err := dashboard.Run(); err != nil {
		logger.WithError(err).Error("Dashboard failed")
	}

	// quitting the dashboard aborts a sync still in progress
	cancel()
	r := <-done
	return r.summary, r.err
}

func checkpointInfo(sitemapID int, format string) (*checkpoint.Info, error) {
	manager, err := checkpoint.NewManager(checkpoint.Scope(sitemapID, format))
	if err != nil {
		return nil, err
	}
	return manager.GetCheckpointInfo()
}
