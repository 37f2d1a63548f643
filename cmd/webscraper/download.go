package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"webscraper/pkg/config"
	"webscraper/pkg/reader"
	"webscraper/pkg/storage"
	"webscraper/pkg/ui"
	"webscraper/pkg/webscraper"
)

var (
	downloadFormat         string
	downloadRaw            bool
	downloadKeepCompressed bool
	downloadOut            string
	downloadOutputDir      string

	recordsGzip  bool
	recordsLimit int
	recordsCount bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <job-id>",
	Short: "Download the results of a scraping job",
	Long: `Download the results of a scraping job as CSV, JSON lines or XLSX.

The file is written to <output-dir>/scraping-job-<id>.<format> unless --out
is given. It only appears once the whole export has been received.`,
	Example: `  # JSON lines into the configured output directory
  webscraper download 500

  # CSV to a specific file
  webscraper download 500 --format csv --out ./result.csv

  # Raw export written to stdout
  webscraper download 500 --raw --out -`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

// recordsCmd represents the records command
var recordsCmd = &cobra.Command{
	Use:   "records <file>",
	Short: "Print the records of a downloaded export",
	Long: `Print the records of a downloaded JSON lines or CSV export, one JSON
object per line. Files ending in .gz are decompressed while reading.`,
	Example: `  webscraper records exports/scraping-job-500.json --limit 10
  webscraper records exports/scraping-job-500.csv --count`,
	Args: cobra.ExactArgs(1),
	RunE: runRecords,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(recordsCmd)

	downloadCmd.Flags().StringVarP(&downloadFormat, "format", "f", "", "export format: csv, json or xlsx (default from config)")
	downloadCmd.Flags().BoolVar(&downloadRaw, "raw", false, "download the unprocessed export")
	downloadCmd.Flags().BoolVar(&downloadKeepCompressed, "keep-compressed", false, "write gzip encoded responses as received")
	downloadCmd.Flags().StringVar(&downloadOut, "out", "", "destination file, - for stdout")
	downloadCmd.Flags().StringVar(&downloadOutputDir, "output-dir", "", "directory for exports (default from config)")

	recordsCmd.Flags().BoolVar(&recordsGzip, "gzip", false, "decompress the file while reading")
	recordsCmd.Flags().IntVar(&recordsLimit, "limit", 0, "stop after this many records")
	recordsCmd.Flags().BoolVar(&recordsCount, "count", false, "only print the number of records")
}

func runDownload(cmd *cobra.Command, args []string) error {
	jobID, err := parseID(args[0], "scraping job")
	if err != nil {
		return err
	}

	client, cfg, err := newClient(map[string]interface{}{
		"format":     downloadFormat,
		"raw":        downloadRaw,
		"output-dir": downloadOutputDir,
	})
	if err != nil {
		return err
	}

	return downloadExport(cmd, client, cfg, jobID, downloadOut)
}

// downloadExport saves the export of jobID to out, or into the output
// directory when out is empty
func downloadExport(cmd *cobra.Command, client *webscraper.Client, cfg *config.Config, jobID int, out string) error {
	format, err := webscraper.ParseExportFormat(cfg.Download.Format)
	if err != nil {
		return err
	}
	opts := webscraper.DownloadOptions{
		Raw:            cfg.Download.Raw,
		KeepCompressed: downloadKeepCompressed || !cfg.Download.Decompress,
	}

	if out == "-" {
		return client.DownloadScrapingJobTo(cmd.Context(), jobID, format, cmd.OutOrStdout(), opts)
	}

	path := out
	if path == "" {
		store, err := storage.NewManager(cfg.Output.BaseDirectory)
		if err != nil {
			return err
		}
		if !cfg.Output.OverwriteExisting && store.IsDownloaded(jobID, string(format)) {
			ui.PrintWarning("Export already downloaded", store.ExportPath(jobID, string(format)))
			return nil
		}
		path = store.ExportPath(jobID, string(format))
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := client.DownloadScrapingJob(cmd.Context(), jobID, format, path, opts); err != nil {
		return fmt.Errorf("failed to download scraping job %d: %w", jobID, err)
	}

	size := int64(0)
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	ui.PrintSuccess(fmt.Sprintf("Downloaded %s (%s)", path, ui.FormatBytes(size)))
	return nil
}

func runRecords(cmd *cobra.Command, args []string) error {
	rows, err := reader.Open(args[0], reader.Options{Gzip: recordsGzip})
	if err != nil {
		return err
	}
	defer rows.Close()

	out := cmd.OutOrStdout()
	encoder := json.NewEncoder(out)

	count := 0
	for row, err := range rows.Rows() {
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		count++
		if !recordsCount {
			if err := encoder.Encode(row); err != nil {
				return err
			}
		}
		if recordsLimit > 0 && count >= recordsLimit {
			break
		}
	}

	if recordsCount {
		fmt.Fprintln(out, count)
	}
	return nil
}
