package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"webscraper/pkg/storage"
	"webscraper/pkg/webscraper"
)

// Suffix is appended to an export path to name its metadata file
const Suffix = ".meta.json"

// ExportMetadata describes a downloaded export and the scraping job it came from
type ExportMetadata struct {
	// Core identifiers
	JobID       int    `json:"scraping_job_id"`
	SitemapID   int    `json:"sitemap_id"`
	SitemapName string `json:"sitemap_name"`
	CustomID    string `json:"custom_id,omitempty"`

	// Export properties
	Format   string `json:"format"`
	Raw      bool   `json:"raw"`
	FileSize int64  `json:"file_size"`

	// Job outcome
	Status         string `json:"status"`
	Driver         string `json:"driver,omitempty"`
	RecordCount    int    `json:"record_count"`
	PagesScheduled int    `json:"pages_scheduled"`
	PagesExecuted  int    `json:"pages_executed"`
	PagesFailed    int    `json:"pages_failed"`
	PagesEmpty     int    `json:"pages_empty"`

	// Timestamps
	ScrapingDuration time.Duration `json:"scraping_duration"`
	JobCreatedAt     time.Time     `json:"job_created_at"`
	DownloadedAt     time.Time     `json:"downloaded_at"`
}

// FromScrapingJob records job and the export written from it
func FromScrapingJob(job *webscraper.ScrapingJob, format webscraper.ExportFormat, raw bool, fileSize int64) *ExportMetadata {
	meta := &ExportMetadata{
		JobID:            job.ID,
		SitemapID:        job.SitemapID,
		SitemapName:      job.SitemapName,
		Format:           string(format),
		Raw:              raw,
		FileSize:         fileSize,
		Status:           job.Status,
		Driver:           job.Driver,
		RecordCount:      job.StoredRecordCount,
		PagesScheduled:   job.JobsScheduled,
		PagesExecuted:    job.JobsExecuted,
		PagesFailed:      job.JobsFailed,
		PagesEmpty:       job.JobsEmpty,
		ScrapingDuration: time.Duration(job.ScrapingDuration) * time.Second,
		DownloadedAt:     time.Now().UTC(),
	}

	if job.CustomID != nil {
		meta.CustomID = *job.CustomID
	}
	if job.TimeCreated > 0 {
		meta.JobCreatedAt = time.Unix(job.TimeCreated, 0).UTC()
	}

	return meta
}

// Path returns the metadata file of exportPath
func Path(exportPath string) string {
	return exportPath + Suffix
}

// Save writes the metadata next to the export
func (m *ExportMetadata) Save(exportPath string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	err = storage.WriteFileAtomic(Path(exportPath), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// Load reads the metadata of exportPath
func Load(exportPath string) (*ExportMetadata, error) {
	data, err := os.ReadFile(Path(exportPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta ExportMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &meta, nil
}

// FailureRate returns the share of executed pages that failed, as text
func (m *ExportMetadata) FailureRate() string {
	if m.PagesExecuted == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%.1f%%", float64(m.PagesFailed)/float64(m.PagesExecuted)*100)
}

// MetadataExists checks if a metadata file exists for an export
func MetadataExists(exportPath string) bool {
	_, err := os.Stat(Path(exportPath))
	return err == nil
}

// CleanOrphanedMetadata removes metadata files whose export is gone and
// returns how many were removed
func CleanOrphanedMetadata(directory string) (int, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}

		path := filepath.Join(directory, entry.Name())
		exportPath := strings.TrimSuffix(path, Suffix)
		if _, err := os.Stat(exportPath); os.IsNotExist(err) {
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("failed to remove orphaned metadata %s: %w", path, err)
			}
			removed++
		}
	}

	return removed, nil
}
