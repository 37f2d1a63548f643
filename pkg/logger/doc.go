// Package logger provides the structured logging interface used across the
// webscraper client and CLI.
//
// It wraps zerolog. Console output is coloured and written to stderr; when a
// log file is configured, lines are also appended to it.
//
// Basic Usage:
//
//	err := logger.Initialize(&cfg.Logging)
//
//	logger.Info("sync started")
//	logger.WithField("scraping_job_id", 42).Info("export downloaded")
//	logger.WithError(err).Error("export download failed")
//
// Components receive a Logger explicitly and fall back to GetLogger when
// given nil. Tests use NewTestLogger to capture and assert on messages, or
// NewNopLogger to discard them.
package logger
