package webscraper

import (
	"fmt"
	"strings"
)

const (
	// DefaultBaseURL is the production API endpoint
	DefaultBaseURL = "https://api.webscraper.io/api/v1/"

	// DefaultUserAgent identifies this client to the API
	DefaultUserAgent = "WebScraper.io Go SDK v1.0"

	// AcceptHeader is sent with every request
	AcceptHeader = "application/json, text/javascript, */*"
)

// ExportFormat is a scraping job result file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat validates a user supplied format name
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use csv, json or xlsx)", s)
	}
}

// Extension returns the file extension without the dot
func (f ExportFormat) Extension() string {
	return string(f)
}

func sitemapsPath() string { return "sitemaps" }

func sitemapPath(id int) string {
	if id == 0 {
		return "sitemap"
	}
	return fmt.Sprintf("sitemap/%d", id)
}

func schedulerPath(sitemapID int, action string) string {
	return fmt.Sprintf("sitemap/%d/%s", sitemapID, action)
}

func scrapingJobsPath() string { return "scraping-jobs" }

func scrapingJobPath(id int) string {
	if id == 0 {
		return "scraping-job"
	}
	return fmt.Sprintf("scraping-job/%d", id)
}

func scrapingJobSubPath(id int, sub string) string {
	return fmt.Sprintf("scraping-job/%d/%s", id, sub)
}

func accountPath() string { return "account" }
