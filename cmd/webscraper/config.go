package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"webscraper/pkg/auth"
	"webscraper/pkg/config"
	"webscraper/pkg/ui"
)

var configForce bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage webscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (WEBSCRAPER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file with every option set to its default.

The file is created as .webscraper.yaml in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging flags, environment, .env files,
the configuration file and defaults. The API token is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)

	initCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".webscraper.yaml"
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	out := cmd.OutOrStdout()
	if !ui.IsQuietMode() {
		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintln(out, "1. Store your API token with 'webscraper auth login'")
		fmt.Fprintln(out, "2. Run 'webscraper config validate' to check the configuration")
		fmt.Fprintln(out, "3. Download every finished job with 'webscraper sync'")
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	display := *cfg
	if display.API.Token != "" {
		display.API.Token = auth.MaskToken(display.API.Token)
	}

	if outputFormat == outputJSON {
		return render(cmd, &display, nil)
	}

	// yaml.v3 writes durations as 1m0s, the form the config file uses
	w := cmd.OutOrStdout()
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&display); err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	if outputFormat == outputYAML || ui.IsQuietMode() {
		return nil
	}

	fmt.Fprintln(w, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(w, "1. Command line flags")
	fmt.Fprintln(w, "2. Environment variables (WEBSCRAPER_*)")
	fmt.Fprintln(w, "3. .env files")
	if path := configPathInUse(); path != "" {
		fmt.Fprintf(w, "4. Configuration file: %s\n", path)
	} else {
		fmt.Fprintln(w, "4. Configuration file: (none found)")
	}
	fmt.Fprintln(w, "5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPathInUse()
	if path == "" {
		ui.PrintWarning("No configuration file found, validating defaults and environment")
	} else {
		ui.PrintInfo("Validating configuration", path)
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	var problems []string
	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}
	if len(problems) > 0 {
		for _, problem := range problems {
			ui.PrintError("  - " + problem)
		}
		return fmt.Errorf("configuration has %d problems", len(problems))
	}

	if cfg.API.Token == "" {
		ui.PrintWarning("No API token configured; stored tokens are used at run time")
	}

	ui.PrintSuccess("Configuration is valid")
	out := cmd.OutOrStdout()
	if !ui.IsQuietMode() {
		fmt.Fprintln(out, "\nConfiguration summary:")
		fmt.Fprintf(out, "  API: %s\n", cfg.API.BaseURL)
		fmt.Fprintf(out, "  Output directory: %s\n", cfg.Output.BaseDirectory)
		fmt.Fprintf(out, "  Concurrent downloads: %d\n", cfg.Download.ConcurrentDownloads)
		fmt.Fprintf(out, "  Export format: %s\n", cfg.Download.Format)
		fmt.Fprintf(out, "  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
		fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	}
	return nil
}

func configPathInUse() string {
	if configFile != "" {
		return configFile
	}
	for _, path := range config.ConfigFileLocations() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
