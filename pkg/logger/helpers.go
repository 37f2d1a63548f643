package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LogRequest logs a completed API request at a level matching its status
func LogRequest(l Logger, method, path string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("API request completed", fields)
	case statusCode == 429:
		l.WarnWithFields("API request rate limited", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("API request client error", fields)
	case statusCode >= 500:
		l.ErrorWithFields("API request server error", fields)
	default:
		l.InfoWithFields("API request returned unexpected status", fields)
	}
}

// LogRateLimit logs a 429 backoff decision
func LogRateLimit(l Logger, path string, attempt int, retryAfter int) {
	l.WithFields(map[string]interface{}{
		"path":        path,
		"attempt":     attempt,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogExport logs the outcome of a scraping job export download
func LogExport(l Logger, jobID int, format string, skipped bool, err error) {
	fields := map[string]interface{}{
		"scraping_job_id": jobID,
		"format":          format,
	}

	entry := l.WithFields(fields)

	switch {
	case err != nil:
		entry.WithError(err).Error("Export download failed")
	case skipped:
		entry.Info("Export already downloaded, skipped")
	default:
		entry.Info("Export downloaded")
	}
}

// LogSyncProgress logs how many exports of a sync run are done
func LogSyncProgress(l Logger, done, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(done) / float64(total) * 100
	}

	l.WithFields(map[string]interface{}{
		"done":       done,
		"total":      total,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Sync progress")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
