package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// exportPrefix is the file name prefix of every export written by the Manager
const exportPrefix = "scraping-job-"

// knownFormats are the export extensions picked up when scanning a directory
var knownFormats = map[string]bool{
	"csv":  true,
	"json": true,
	"xlsx": true,
}

// Manager handles export file storage and duplicate detection
type Manager struct {
	outputDir  string
	downloaded map[string]bool
	mu         sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir:  outputDir,
		downloaded: make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// ExportFileName returns the file name an export of jobID in format is stored under
func ExportFileName(jobID int, format string) string {
	return fmt.Sprintf("%s%d.%s", exportPrefix, jobID, format)
}

// ParseExportFileName is the inverse of ExportFileName
func ParseExportFileName(name string) (jobID int, format string, ok bool) {
	if !strings.HasPrefix(name, exportPrefix) {
		return 0, "", false
	}
	ext := filepath.Ext(name)
	format = strings.TrimPrefix(ext, ".")
	if !knownFormats[format] {
		return 0, "", false
	}
	id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, exportPrefix), ext))
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, format, true
}

func exportKey(jobID int, format string) string {
	return fmt.Sprintf("%d.%s", jobID, format)
}

// scanExistingFiles records exports already present in the output directory
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, format, ok := ParseExportFileName(entry.Name()); ok {
			m.downloaded[exportKey(id, format)] = true
		}
	}

	return nil
}

// ExportPath returns where the export of jobID in format lives
func (m *Manager) ExportPath(jobID int, format string) string {
	return filepath.Join(m.outputDir, ExportFileName(jobID, format))
}

// IsDownloaded checks if the export has already been written
func (m *Manager) IsDownloaded(jobID int, format string) bool {
	key := exportKey(jobID, format)

	m.mu.RLock()
	cached := m.downloaded[key]
	m.mu.RUnlock()
	if cached {
		return true
	}

	if _, err := os.Stat(m.ExportPath(jobID, format)); err != nil {
		return false
	}

	m.mu.Lock()
	m.downloaded[key] = true
	m.mu.Unlock()
	return true
}

// SaveExport stores the export read from r
func (m *Manager) SaveExport(r io.Reader, jobID int, format string) error {
	err := WriteFileAtomic(m.ExportPath(jobID, format), func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
	if err != nil {
		return err
	}

	m.MarkDownloaded(jobID, format)
	return nil
}

// MarkDownloaded records an export written by someone else into ExportPath
func (m *Manager) MarkDownloaded(jobID int, format string) {
	m.mu.Lock()
	m.downloaded[exportKey(jobID, format)] = true
	m.mu.Unlock()
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetDownloadedCount returns the number of known exports
func (m *Manager) GetDownloadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.downloaded)
}
