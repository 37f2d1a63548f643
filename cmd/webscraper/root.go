package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"webscraper/pkg/logger"
	"webscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile   string
	logLevel     string
	apiToken     string
	baseURL      string
	noBackoff    bool
	accountName  string
	outputFormat string
	quiet        bool
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "webscraper",
	Short: "Command line client for the Web Scraper Cloud API",
	Long: `webscraper manages sitemaps and scraping jobs on Web Scraper Cloud and
downloads their results.

Features:
  - Sitemap and scraping job management
  - Export downloads in CSV, JSON or XLSX
  - Concurrent, resumable sync of every finished job
  - Live scraping job progress in the terminal
  - Secure API token storage using the system keychain`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
		ui.SetQuietMode(quiet)

		switch outputFormat {
		case outputTable, outputJSON, outputYAML:
		default:
			return fmt.Errorf("unsupported output format %q (table, json, yaml)", outputFormat)
		}
		return nil
	},
}

// Execute runs the root command, cancelling its context on interrupt
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.GetLogger().WithError(err).Debug("Command failed")
		ui.PrintError("Error", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.webscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "API token (overrides stored tokens)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL")
	rootCmd.PersistentFlags().BoolVar(&noBackoff, "no-backoff", false, "fail immediately on rate limited responses")
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "", "use a specific stored token")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", outputTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and results")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show info logs on stderr")

	rootCmd.SetVersionTemplate(`webscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
