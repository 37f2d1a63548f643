package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"webscraper/pkg/auth"
	"webscraper/pkg/config"
	"webscraper/pkg/logger"
	"webscraper/pkg/webscraper"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// newCredentialManager is replaced in tests
var newCredentialManager = auth.NewManager

// loadConfig merges the global flags and extra command flags into the
// configuration and initializes the global logger
func loadConfig(extra map[string]interface{}) (*config.Config, error) {
	flags := map[string]interface{}{
		"token":      apiToken,
		"base-url":   baseURL,
		"no-backoff": noBackoff,
		"account":    accountName,
	}
	switch {
	case logLevel != "":
		flags["log-level"] = logLevel
	case verbose:
		flags["log-level"] = "info"
	default:
		// progress output replaces logs unless asked for
		flags["log-level"] = "error"
	}
	for key, value := range extra {
		flags[key] = value
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithField("version", version).Debug("webscraper starting")

	return cfg, nil
}

// resolveToken fills cfg.API.Token from the credential store when no token
// came from flags, environment or config file
func resolveToken(cfg *config.Config) error {
	if cfg.API.Token != "" {
		return nil
	}

	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if cfg.API.Account == "" || cfg.API.Account == auth.DefaultAccountName {
		account, err = manager.RetrieveDefault()
	} else {
		account, err = manager.Retrieve(cfg.API.Account)
	}
	if err != nil {
		return fmt.Errorf("no API token found (run 'webscraper auth login' or set %s): %w", auth.TokenEnvVar, err)
	}

	cfg.API.Token = account.Token
	if account.BaseURL != "" && baseURL == "" {
		cfg.API.BaseURL = account.BaseURL
	}
	logger.WithField("account", account.Name).Debug("Using stored API token")
	return nil
}

// newClient loads the configuration and builds an API client
func newClient(extra map[string]interface{}) (*webscraper.Client, *config.Config, error) {
	cfg, err := loadConfig(extra)
	if err != nil {
		return nil, nil, err
	}
	if err := resolveToken(cfg); err != nil {
		return nil, nil, err
	}

	client, err := webscraper.NewClientFromConfig(cfg, logger.GetLogger())
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

func parseID(arg, what string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

// render writes v as JSON or YAML, or calls table for the default output
func render(cmd *cobra.Command, v any, table func(w io.Writer) error) error {
	out := cmd.OutOrStdout()

	switch outputFormat {
	case outputJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case outputYAML:
		return renderYAML(out, v)
	default:
		return table(out)
	}
}

// renderYAML goes through JSON so field names match the API
func renderYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	blockStyle(&node)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&node); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

func blockStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		blockStyle(child)
	}
}

func newTable(w io.Writer, header ...any) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(header...)
	return table
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
