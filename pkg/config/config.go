package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the production API endpoint
const DefaultBaseURL = "https://api.webscraper.io/api/v1/"

// Config holds all configuration options for the Web Scraper client and CLI
type Config struct {
	// API connection settings
	API APIConfig `yaml:"api" json:"api"`

	// Client-side request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Where exports are written
	Output OutputConfig `yaml:"output" json:"output"`

	// Export download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds the API credentials and transport settings
type APIConfig struct {
	Token           string        `yaml:"token" json:"token"`
	BaseURL         string        `yaml:"base_url" json:"base_url"`
	Backoff         bool          `yaml:"backoff" json:"backoff"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent"`
	Account         string        `yaml:"account" json:"account"`
}

// RateLimitConfig holds client-side pacing configuration.
// RequestsPerMinute of 0 disables pacing.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory     string `yaml:"base_directory" json:"base_directory"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// DownloadConfig holds export download configuration
type DownloadConfig struct {
	ConcurrentDownloads int    `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	Format              string `yaml:"format" json:"format"`
	Raw                 bool   `yaml:"raw" json:"raw"`
	Decompress          bool   `yaml:"decompress" json:"decompress"`
	// RetryAttempts bounds attempts per export on network failures
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:         DefaultBaseURL,
			Backoff:         true,
			RequestTimeout:  60 * time.Second,
			DownloadTimeout: 600 * time.Second,
			UserAgent:       "WebScraper.io Go SDK v1.0",
			Account:         "default",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			BurstSize:         1,
		},
		Output: OutputConfig{
			BaseDirectory:     "./exports",
			OverwriteExisting: false,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
			Format:              "json",
			Raw:                 false,
			Decompress:          true,
			RetryAttempts:       1,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if token := os.Getenv("WEBSCRAPER_API_TOKEN"); token != "" {
		c.API.Token = token
	}
	if baseURL := os.Getenv("WEBSCRAPER_API_BASE_URI"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if backoff := os.Getenv("WEBSCRAPER_BACKOFF"); backoff != "" {
		val, err := strconv.ParseBool(backoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("WEBSCRAPER_BACKOFF: %w", err))
		} else {
			c.API.Backoff = val
		}
	}
	if timeout := os.Getenv("WEBSCRAPER_REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("WEBSCRAPER_REQUEST_TIMEOUT: %w", err))
		} else {
			c.API.RequestTimeout = d
		}
	}
	if timeout := os.Getenv("WEBSCRAPER_DOWNLOAD_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("WEBSCRAPER_DOWNLOAD_TIMEOUT: %w", err))
		} else {
			c.API.DownloadTimeout = d
		}
	}

	if rpm := os.Getenv("WEBSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val >= 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if outputDir := os.Getenv("WEBSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if concurrent := os.Getenv("WEBSCRAPER_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	if retries := os.Getenv("WEBSCRAPER_DOWNLOAD_RETRIES"); retries != "" {
		val, err := strconv.Atoi(retries)
		if err != nil {
			errs = append(errs, fmt.Errorf("WEBSCRAPER_DOWNLOAD_RETRIES: %w", err))
		} else {
			c.Download.RetryAttempts = val
		}
	}

	if logLevel := os.Getenv("WEBSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	for _, loc := range ConfigFileLocations() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// ConfigFileLocations lists the paths searched for a config file, in order
func ConfigFileLocations() []string {
	home := os.Getenv("HOME")
	return []string{
		".webscraper.yaml",
		".webscraper.yml",
		filepath.Join(home, ".config", "webscraper", "config.yaml"),
		filepath.Join(home, ".config", "webscraper", "config.yml"),
		filepath.Join(home, ".webscraper.yaml"),
		filepath.Join(home, ".webscraper.yml"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	} else if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, errors.New("API base URL must start with http:// or https://"))
	}
	if c.API.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.API.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive when rate limiting is enabled"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.RetryAttempts < 1 {
		errs = append(errs, errors.New("download retry attempts must be at least 1"))
	}
	validFormats := map[string]bool{"csv": true, "json": true, "xlsx": true}
	if !validFormats[strings.ToLower(c.Download.Format)] {
		errs = append(errs, fmt.Errorf("invalid export format: %q", c.Download.Format))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Keys follow the CLI flag names.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["token"].(string); ok && token != "" {
		c.API.Token = token
	}
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if noBackoff, ok := flags["no-backoff"].(bool); ok && noBackoff {
		c.API.Backoff = false
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.API.Account = account
	}
	if outputDir, ok := flags["output-dir"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Download.Format = format
	}
	if raw, ok := flags["raw"].(bool); ok && raw {
		c.Download.Raw = true
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".webscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
