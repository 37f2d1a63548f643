package ui

// SyncReporter receives export sync events
type SyncReporter interface {
	SetTotal(total int)
	StartExport(jobID int, sitemapName, filename string)
	CompleteExport(jobID int, size int64, skipped bool)
	FailExport(jobID int, err error)
	LogInfo(format string, args ...interface{})
	LogSuccess(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
	IsPaused() bool
}

// NopReporter discards every event
type NopReporter struct{}

func (NopReporter) SetTotal(int) {}
func (NopReporter) StartExport(int, string, string) {}
func (NopReporter) CompleteExport(int, int64, bool) {}
func (NopReporter) FailExport(int, error) {}
func (NopReporter) LogInfo(string, ...interface{}) {}
func (NopReporter) LogSuccess(string, ...interface{}) {}
func (NopReporter) LogWarning(string, ...interface{}) {}
func (NopReporter) LogError(string, ...interface{}) {}
func (NopReporter) IsPaused() bool { return false }
