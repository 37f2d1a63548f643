package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"time"

	"webscraper/pkg/logger"
	"webscraper/pkg/storage"
)

const checkpointVersion = 1

var unsafeScope = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Checkpoint is the state of one export sync run
type Checkpoint struct {
	Scope             string         `json:"scope"`
	SitemapID         int            `json:"sitemap_id,omitempty"`
	Format            string         `json:"format"`
	LastProcessedPage int            `json:"last_processed_page"`
	Exports           map[int]string `json:"exports"` // scraping job id -> file name
	Failed            map[int]string `json:"failed,omitempty"`
	TotalQueued       int            `json:"total_queued"`
	TotalDownloaded   int            `json:"total_downloaded"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Version           int            `json:"version"`
}

// Info summarizes a stored checkpoint
type Info struct {
	Scope           string
	TotalDownloaded int
	TotalFailed     int
	LastPage        int
	UpdatedAt       time.Time
	Age             time.Duration
}

// Manager handles checkpoint operations for one scope
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// Scope names the checkpoint for a sync over sitemapID (0 for every
// sitemap) in format
func Scope(sitemapID int, format string) string {
	if sitemapID > 0 {
		return fmt.Sprintf("sitemap-%d-%s", sitemapID, format)
	}
	return "all-" + format
}

// NewManager creates a manager storing checkpoints in the user data directory
func NewManager(scope string) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManagerAt(filepath.Join(dataDir, "checkpoints"), scope)
}

// NewManagerAt creates a manager storing checkpoints in dir
func NewManagerAt(dir, scope string) (*Manager, error) {
	if scope == "" {
		return nil, errors.New("checkpoint scope is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	name := unsafeScope.ReplaceAllString(scope, "_")
	return &Manager{
		checkpointPath: filepath.Join(dir, name+".checkpoint.json"),
		logger:         logger.GetLogger(),
	}, nil
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create starts and saves a fresh checkpoint
func (m *Manager) Create(scope string, sitemapID int, format string) (*Checkpoint, error) {
	now := time.Now()
	checkpoint := &Checkpoint{
		Scope:     scope,
		SitemapID: sitemapID,
		Format:    format,
		Exports:   make(map[int]string),
		Failed:    make(map[int]string),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   checkpointVersion,
	}

	if err := m.Save(checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint created", map[string]interface{}{
		"scope": scope,
		"path":  m.checkpointPath,
	})

	return checkpoint, nil
}

// Load reads the checkpoint, returning nil when none exists
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if checkpoint.Version > checkpointVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %d", checkpoint.Version)
	}
	if checkpoint.Exports == nil {
		checkpoint.Exports = make(map[int]string)
	}
	if checkpoint.Failed == nil {
		checkpoint.Failed = make(map[int]string)
	}

	m.logger.DebugWithFields("Checkpoint loaded", map[string]interface{}{
		"scope":            checkpoint.Scope,
		"total_downloaded": checkpoint.TotalDownloaded,
		"last_page":        checkpoint.LastProcessedPage,
	})

	return &checkpoint, nil
}

// Save writes the checkpoint atomically
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.UpdatedAt = time.Now()

	err := storage.WriteFileAtomic(m.checkpointPath, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(checkpoint)
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Debug("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// UpdateProgress records the last fully queued page of the job list
func (m *Manager) UpdateProgress(checkpoint *Checkpoint, page, queued int) error {
	checkpoint.LastProcessedPage = page
	checkpoint.TotalQueued = queued
	return m.Save(checkpoint)
}

// RecordDownload records a finished export
func (m *Manager) RecordDownload(checkpoint *Checkpoint, jobID int, filename string) error {
	if _, seen := checkpoint.Exports[jobID]; !seen {
		checkpoint.TotalDownloaded++
	}
	checkpoint.Exports[jobID] = filename
	delete(checkpoint.Failed, jobID)
	return m.Save(checkpoint)
}

// RecordFailure records a failed export so it is retried on resume
func (m *Manager) RecordFailure(checkpoint *Checkpoint, jobID int, cause error) error {
	checkpoint.Failed[jobID] = cause.Error()
	return m.Save(checkpoint)
}

// IsExportDownloaded checks if the job's export finished in an earlier run
func (checkpoint *Checkpoint) IsExportDownloaded(jobID int) bool {
	_, ok := checkpoint.Exports[jobID]
	return ok
}

// GetCheckpointInfo summarizes the stored checkpoint, nil when none exists
func (m *Manager) GetCheckpointInfo() (*Info, error) {
	checkpoint, err := m.Load()
	if err != nil || checkpoint == nil {
		return nil, err
	}

	return &Info{
		Scope:           checkpoint.Scope,
		TotalDownloaded: checkpoint.TotalDownloaded,
		TotalFailed:     len(checkpoint.Failed),
		LastPage:        checkpoint.LastProcessedPage,
		UpdatedAt:       checkpoint.UpdatedAt,
		Age:             time.Since(checkpoint.UpdatedAt),
	}, nil
}

// BackupCheckpoint copies the checkpoint to a .backup file
func (m *Manager) BackupCheckpoint() error {
	if !m.Exists() {
		return nil
	}

	src, err := os.Open(m.checkpointPath)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint for backup: %w", err)
	}
	defer src.Close()

	err = storage.WriteFileAtomic(m.checkpointPath+".backup", func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to back up checkpoint: %w", err)
	}

	m.logger.Debug("Checkpoint backed up")
	return nil
}

// getDataDirectory returns the data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "webscraper")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errors.New("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "webscraper")
	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "webscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "webscraper")
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
