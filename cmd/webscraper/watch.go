package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"webscraper/pkg/retry"
	"webscraper/pkg/ui"
	"webscraper/pkg/ui/tui"
	"webscraper/pkg/webscraper"
)

var (
	watchInterval time.Duration
	watchDownload bool
	watchFormat   string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Follow a scraping job until it is done",
	Long: `Poll a scraping job and show its progress until it finishes, fails or
is stopped. On a terminal the progress is drawn live; otherwise one line is
printed per poll.`,
	Example: `  # Follow a job and download the result when it finishes
  webscraper watch 500 --download --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "time between polls")
	watchCmd.Flags().BoolVar(&watchDownload, "download", false, "download the export when the job finishes")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "", "export format for --download (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	jobID, err := parseID(args[0], "scraping job")
	if err != nil {
		return err
	}
	if watchInterval <= 0 {
		return fmt.Errorf("invalid interval %s", watchInterval)
	}

	client, cfg, err := newClient(map[string]interface{}{"format": watchFormat})
	if err != nil {
		return err
	}

	fetch := func(ctx context.Context) (*webscraper.ScrapingJob, error) {
		return client.GetScrapingJob(ctx, jobID)
	}

	out := cmd.OutOrStdout()
	var job *webscraper.ScrapingJob
	if isTerminal(out) && !ui.IsQuietMode() {
		job, err = tui.Watch(cmd.Context(), fetch, watchInterval, out)
	} else {
		job, err = pollJob(cmd.Context(), fetch, watchInterval, out)
	}
	if err != nil {
		return fmt.Errorf("failed to watch scraping job %d: %w", jobID, err)
	}
	if job == nil || !job.Done() {
		// the user quit early
		return nil
	}

	fmt.Fprintf(out, "Scraping job %d %s: %s pages, %d records\n",
		job.ID, job.Status, progressText(job), job.StoredRecordCount)

	if job.Status != webscraper.JobStatusFinished {
		return fmt.Errorf("scraping job %d ended as %s", job.ID, job.Status)
	}
	if watchDownload {
		return downloadExport(cmd, client, cfg, jobID, "")
	}
	return nil
}

// pollJob prints one line per poll until the job is done
func pollJob(ctx context.Context, fetch tui.JobFetcher, interval time.Duration, out io.Writer) (*webscraper.ScrapingJob, error) {
	for {
		job, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if job.Done() {
			return job, nil
		}
		if !ui.IsQuietMode() {
			fmt.Fprintf(out, "%s  %-10s %s\n", time.Now().Format("15:04:05"), job.Status, progressText(job))
		}
		if err := retry.Wait(ctx, interval); err != nil {
			return job, err
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
