package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManagerAt(t.TempDir(), Scope(12, "json"))
	require.NoError(t, err)
	return mgr
}

func TestScope(t *testing.T) {
	assert.Equal(t, "sitemap-12-json", Scope(12, "json"))
	assert.Equal(t, "all-csv", Scope(0, "csv"))
}

func TestNewManagerSanitizesScope(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManagerAt(dir, "../odd scope")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(mgr.Path()))

	_, err = NewManagerAt(dir, "")
	assert.Error(t, err)
}

func TestNewManagerUsesDataHome(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)
	t.Setenv("HOME", t.TempDir())

	mgr, err := NewManager("all-json")
	require.NoError(t, err)
	if filepath.Dir(mgr.Path()) == filepath.Join(dataHome, "webscraper", "checkpoints") {
		return
	}
	// darwin and windows ignore XDG_DATA_HOME
	assert.Contains(t, mgr.Path(), "webscraper")
}

func TestCreateAndLoad(t *testing.T) {
	mgr := newTestManager(t)

	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.False(t, mgr.Exists())

	cp, err := mgr.Create("sitemap-12-json", 12, "json")
	require.NoError(t, err)
	assert.True(t, mgr.Exists())

	loaded, err = mgr.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cp.Scope, loaded.Scope)
	assert.Equal(t, 12, loaded.SitemapID)
	assert.Equal(t, "json", loaded.Format)
	assert.Equal(t, checkpointVersion, loaded.Version)
	assert.NotNil(t, loaded.Exports)
	assert.NotNil(t, loaded.Failed)
}

func TestRecordDownloadAndFailure(t *testing.T) {
	mgr := newTestManager(t)
	cp, err := mgr.Create("sitemap-12-json", 12, "json")
	require.NoError(t, err)

	require.NoError(t, mgr.RecordFailure(cp, 5, errors.New("timeout")))
	require.NoError(t, mgr.RecordDownload(cp, 4, "scraping-job-4.json"))
	require.NoError(t, mgr.RecordDownload(cp, 4, "scraping-job-4.json"))
	require.NoError(t, mgr.UpdateProgress(cp, 2, 7))

	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TotalDownloaded)
	assert.Equal(t, 7, loaded.TotalQueued)
	assert.Equal(t, 2, loaded.LastProcessedPage)
	assert.True(t, loaded.IsExportDownloaded(4))
	assert.False(t, loaded.IsExportDownloaded(5))
	assert.Equal(t, "timeout", loaded.Failed[5])

	require.NoError(t, mgr.RecordDownload(loaded, 5, "scraping-job-5.json"))
	assert.Empty(t, loaded.Failed)
	assert.Equal(t, 2, loaded.TotalDownloaded)
}

func TestGetCheckpointInfo(t *testing.T) {
	mgr := newTestManager(t)

	info, err := mgr.GetCheckpointInfo()
	require.NoError(t, err)
	assert.Nil(t, info)

	cp, err := mgr.Create("sitemap-12-json", 12, "json")
	require.NoError(t, err)
	require.NoError(t, mgr.RecordDownload(cp, 1, "scraping-job-1.json"))
	require.NoError(t, mgr.RecordFailure(cp, 2, errors.New("boom")))

	info, err = mgr.GetCheckpointInfo()
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "sitemap-12-json", info.Scope)
	assert.Equal(t, 1, info.TotalDownloaded)
	assert.Equal(t, 1, info.TotalFailed)
	assert.GreaterOrEqual(t, info.Age, time.Duration(0))
}

func TestDeleteAndBackup(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, mgr.BackupCheckpoint())
	assert.NoFileExists(t, mgr.Path()+".backup")

	_, err := mgr.Create("sitemap-12-json", 12, "json")
	require.NoError(t, err)
	require.NoError(t, mgr.BackupCheckpoint())

	original, err := os.ReadFile(mgr.Path())
	require.NoError(t, err)
	backup, err := os.ReadFile(mgr.Path() + ".backup")
	require.NoError(t, err)
	assert.Equal(t, original, backup)

	require.NoError(t, mgr.Delete())
	assert.False(t, mgr.Exists())
	require.NoError(t, mgr.Delete())
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, os.WriteFile(mgr.Path(), []byte(`{"scope":"x","version":99}`), 0644))

	_, err := mgr.Load()
	assert.ErrorContains(t, err, "unsupported checkpoint version")
}

func TestLoadCorruptFile(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, os.WriteFile(mgr.Path(), []byte("{not json"), 0644))

	_, err := mgr.Load()
	assert.ErrorContains(t, err, "failed to decode checkpoint")
}
