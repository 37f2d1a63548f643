package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"webscraper/pkg/ui"
	"webscraper/pkg/webscraper"
)

var (
	jobSitemapID       int
	jobDriver          string
	jobPageLoadDelay   int
	jobRequestInterval int
	jobProxy           int
	jobStartURLs       []string
	jobCustomID        string
)

// jobCmd represents the job command
var jobCmd = &cobra.Command{
	Use:     "job",
	Aliases: []string{"jobs"},
	Short:   "Manage scraping jobs",
	Long: `Start, inspect and delete scraping jobs, and look at the pages a job
could not scrape.`,
}

var jobCreateCmd = &cobra.Command{
	Use:   "create --sitemap-id <id>",
	Short: "Start a scraping job for a sitemap",
	Example: `  # Scrape with the default settings
  webscraper job create --sitemap-id 123

  # Use the JavaScript driver and override the start URL
  webscraper job create --sitemap-id 123 --driver fulljs --start-url https://example.com/shop`,
	Args: cobra.NoArgs,
	RunE: runJobCreate,
}

var jobGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show a scraping job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobGet,
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scraping jobs",
	Example: `  # Every scraping job
  webscraper job list

  # Jobs of one sitemap as JSON
  webscraper job list --sitemap-id 123 -o json`,
	Args: cobra.NoArgs,
	RunE: runJobList,
}

var jobDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a scraping job and its data",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobDelete,
}

var jobProblematicURLsCmd = &cobra.Command{
	Use:     "problematic-urls <job-id>",
	Aliases: []string{"problems"},
	Short:   "List pages that failed or came back empty",
	Args:    cobra.ExactArgs(1),
	RunE:    runJobProblematicURLs,
}

var jobDataQualityCmd = &cobra.Command{
	Use:     "data-quality <job-id>",
	Aliases: []string{"quality"},
	Short:   "Show the data quality report of a scraping job",
	Args:    cobra.ExactArgs(1),
	RunE:    runJobDataQuality,
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobCreateCmd)
	jobCmd.AddCommand(jobGetCmd)
	jobCmd.AddCommand(jobListCmd)
	jobCmd.AddCommand(jobDeleteCmd)
	jobCmd.AddCommand(jobProblematicURLsCmd)
	jobCmd.AddCommand(jobDataQualityCmd)

	jobCreateCmd.Flags().IntVar(&jobSitemapID, "sitemap-id", 0, "sitemap to scrape")
	jobCreateCmd.Flags().StringVar(&jobDriver, "driver", "", "driver: fast or fulljs")
	jobCreateCmd.Flags().IntVar(&jobPageLoadDelay, "page-load-delay", 0, "page load delay in milliseconds")
	jobCreateCmd.Flags().IntVar(&jobRequestInterval, "request-interval", 0, "request interval in milliseconds")
	jobCreateCmd.Flags().IntVar(&jobProxy, "proxy", 0, "proxy: 0 off, 1 on, or a custom proxy id")
	jobCreateCmd.Flags().StringSliceVar(&jobStartURLs, "start-url", nil, "override the sitemap start URLs")
	jobCreateCmd.Flags().StringVar(&jobCustomID, "custom-id", "", "your own identifier for the job")
	_ = jobCreateCmd.MarkFlagRequired("sitemap-id")

	jobListCmd.Flags().IntVar(&jobSitemapID, "sitemap-id", 0, "only list jobs of this sitemap")
}

func runJobCreate(cmd *cobra.Command, args []string) error {
	if jobSitemapID <= 0 {
		return fmt.Errorf("invalid sitemap id %d", jobSitemapID)
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	created, err := client.CreateScrapingJob(cmd.Context(), webscraper.ScrapingJobConfig{
		SitemapID:       jobSitemapID,
		Driver:          jobDriver,
		PageLoadDelay:   jobPageLoadDelay,
		RequestInterval: jobRequestInterval,
		Proxy:           jobProxy,
		StartURLs:       jobStartURLs,
		CustomID:        jobCustomID,
	})
	if err != nil {
		return fmt.Errorf("failed to create scraping job: %w", err)
	}

	return render(cmd, created, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Scraping job created: %d\n", created.ID)
		return err
	})
}

func runJobGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "scraping job")
	if err != nil {
		return err
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	job, err := client.GetScrapingJob(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get scraping job %d: %w", id, err)
	}

	return render(cmd, job, func(w io.Writer) error {
		table := newTable(w, "Field", "Value")
		rows := [][]string{
			{"ID", strconv.Itoa(job.ID)},
			{"Sitemap", fmt.Sprintf("%s (%d)", job.SitemapName, job.SitemapID)},
			{"Status", job.Status},
			{"Progress", progressText(job)},
			{"Failed pages", strconv.Itoa(job.JobsFailed)},
			{"Empty pages", strconv.Itoa(job.JobsEmpty)},
			{"Records", strconv.Itoa(job.StoredRecordCount)},
			{"Driver", job.Driver},
			{"Duration", ui.FormatDuration(time.Duration(job.ScrapingDuration) * time.Second)},
			{"Created", createdText(job.TimeCreated)},
		}
		if job.CustomID != nil {
			rows = append(rows, []string{"Custom ID", *job.CustomID})
		}
		for _, row := range rows {
			_ = table.Append(row)
		}
		return table.Render()
	})
}

func runJobList(cmd *cobra.Command, args []string) error {
	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	jobs, err := client.GetScrapingJobs(webscraper.ListScrapingJobsOptions{SitemapID: jobSitemapID}).Collect(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list scraping jobs: %w", err)
	}

	return render(cmd, jobs, func(w io.Writer) error {
		if len(jobs) == 0 {
			fmt.Fprintln(w, "No scraping jobs found")
			return nil
		}

		table := newTable(w, "ID", "Sitemap", "Status", "Progress", "Records", "Failed", "Created")
		for i := range jobs {
			job := &jobs[i]
			_ = table.Append([]string{
				strconv.Itoa(job.ID),
				job.SitemapName,
				job.Status,
				progressText(job),
				strconv.Itoa(job.StoredRecordCount),
				strconv.Itoa(job.JobsFailed),
				createdText(job.TimeCreated),
			})
		}
		return table.Render()
	})
}

func runJobDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "scraping job")
	if err != nil {
		return err
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	if err := client.DeleteScrapingJob(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete scraping job %d: %w", id, err)
	}
	ui.PrintSuccess(fmt.Sprintf("Scraping job deleted: %d", id))
	return nil
}

func runJobProblematicURLs(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "scraping job")
	if err != nil {
		return err
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	urls, err := client.GetProblematicURLs(id).Collect(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list problematic urls of scraping job %d: %w", id, err)
	}

	return render(cmd, urls, func(w io.Writer) error {
		if len(urls) == 0 {
			fmt.Fprintln(w, "No problematic URLs")
			return nil
		}

		table := newTable(w, "Type", "URL")
		for _, u := range urls {
			_ = table.Append([]string{u.Type, u.URL})
		}
		return table.Render()
	})
}

func runJobDataQuality(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "scraping job")
	if err != nil {
		return err
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	quality, err := client.GetScrapingJobDataQuality(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get data quality of scraping job %d: %w", id, err)
	}

	return render(cmd, quality, func(w io.Writer) error {
		table := newTable(w, "Check", "Got", "Expected", "OK")
		appendCheck := func(name string, check webscraper.QualityCheck) {
			_ = table.Append([]string{
				name,
				strconv.FormatFloat(check.Got, 'f', -1, 64),
				strconv.FormatFloat(check.Expected, 'f', -1, 64),
				yesNo(check.Success),
			})
		}

		appendCheck("min record count", quality.MinRecordCount)
		appendCheck("max failed pages %", quality.MaxFailedPagesPercent)
		appendCheck("max empty pages %", quality.MaxEmptyPagesPercent)

		columns := make([]string, 0, len(quality.MinColumnRecords))
		for column := range quality.MinColumnRecords {
			columns = append(columns, column)
		}
		sort.Strings(columns)
		for _, column := range columns {
			appendCheck("min records: "+column, quality.MinColumnRecords[column])
		}

		if err := table.Render(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Overall: %s\n", yesNo(quality.OverallDataQualitySuccess))
		return err
	})
}

func progressText(job *webscraper.ScrapingJob) string {
	return fmt.Sprintf("%d/%d (%.0f%%)", job.JobsExecuted, job.JobsScheduled, job.Progress()*100)
}

func createdText(unix int64) string {
	if unix <= 0 {
		return ""
	}
	return time.Unix(unix, 0).Format("2006-01-02 15:04")
}
