package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"webscraper/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
		{
			name: "file output",
			cfg: &config.LoggingConfig{
				Level: "info",
				File:  filepath.Join(t.TempDir(), "logs", "webscraper.log"),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"panic", zerolog.PanicLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

// newBufferLogger returns a debug-level logger writing JSON to buf
func newBufferLogger(t *testing.T, buf *bytes.Buffer) Logger {
	t.Helper()
	l, err := NewWithWriter(&config.LoggingConfig{Level: "debug"}, buf)
	require.NoError(t, err)
	return l
}

// decodeLines parses every JSON log line in buf
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 4)

	levels := []string{"debug", "info", "warn", "error"}
	for i, line := range lines {
		assert.Equal(t, levels[i], line["level"])
		assert.Equal(t, levels[i]+" message", line["message"])
		assert.Equal(t, "webscraper", line["app"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&config.LoggingConfig{Level: "warn"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(t, &buf)

	child := parent.WithField("scraping_job_id", 42)
	child.Info("child")
	parent.Info("parent")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, float64(42), lines[0]["scraping_job_id"])
	assert.NotContains(t, lines[1], "scraping_job_id")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf)

	assert.Same(t, logger, logger.WithError(nil))

	logger.WithError(errors.New("boom")).Error("failed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "boom", lines[0]["error"])
}

func TestStructuredFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf)

	logger.InfoWithFields("typed", map[string]interface{}{
		"string":   "test",
		"int":      123,
		"int64":    int64(456),
		"float":    3.5,
		"bool":     true,
		"time":     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"duration": 5 * time.Second,
		"strings":  []string{"a", "b"},
		"ints":     []int{1, 2},
		"err":      errors.New("inner"),
		"custom":   struct{ Name string }{Name: "x"},
	})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, "test", line["string"])
	assert.Equal(t, float64(123), line["int"])
	assert.Equal(t, float64(456), line["int64"])
	assert.Equal(t, true, line["bool"])
	assert.Equal(t, "inner", line["err"])
	assert.Equal(t, []interface{}{"a", "b"}, line["strings"])
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf)

	logger.
		WithField("field1", "value1").
		WithField("field2", "value2").
		WithFields(map[string]interface{}{"field3": 3}).
		WarnWithFields("chained", map[string]interface{}{"field4": "value4"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "value1", lines[0]["field1"])
	assert.Equal(t, "value2", lines[0]["field2"])
	assert.Equal(t, float64(3), lines[0]["field3"])
	assert.Equal(t, "value4", lines[0]["field4"])
}

func TestGlobalLogger(t *testing.T) {
	original := GetLogger()
	defer SetLogger(original)

	testLogger := NewTestLogger()
	SetLogger(testLogger)

	Info("info message")
	Warn("warn message")
	WithField("key", "value").Info("with field")
	WithError(errors.New("oops")).Error("with error")

	assert.True(t, testLogger.HasMessage("info message"))
	assert.True(t, testLogger.HasMessage("warn message"))

	msg, ok := testLogger.FindMessage("with field")
	require.True(t, ok)
	assert.Equal(t, "value", msg.Fields["key"])

	msg, ok = testLogger.FindMessage("with error")
	require.True(t, ok)
	assert.EqualError(t, msg.Error, "oops")
}

func TestHelpers(t *testing.T) {
	testLogger := NewTestLogger()

	LogRequest(testLogger, "GET", "sitemaps", 200, 12.5)
	LogRequest(testLogger, "GET", "sitemaps", 429, 1)
	LogRequest(testLogger, "GET", "sitemap/1", 404, 1)
	LogRequest(testLogger, "GET", "sitemaps", 502, 1)
	LogRateLimit(testLogger, "sitemaps", 1, 3)
	LogExport(testLogger, 7, "csv", false, nil)
	LogExport(testLogger, 8, "csv", true, nil)
	LogExport(testLogger, 9, "csv", false, errors.New("disk full"))
	LogSyncProgress(testLogger, 1, 4)

	assert.True(t, testLogger.HasMessage("API request completed"))
	assert.True(t, testLogger.HasMessage("API request rate limited"))
	assert.True(t, testLogger.HasMessage("API request client error"))
	assert.True(t, testLogger.HasMessage("API request server error"))
	assert.True(t, testLogger.HasMessage("Rate limit reached, backing off"))
	assert.True(t, testLogger.HasMessage("Export downloaded"))
	assert.True(t, testLogger.HasMessage("Export already downloaded, skipped"))
	assert.True(t, testLogger.HasError())

	msg, ok := testLogger.FindMessage("Sync progress")
	require.True(t, ok)
	assert.Equal(t, "25.0%", msg.Fields["percentage"])
}

func TestTestLoggerScoping(t *testing.T) {
	testLogger := NewTestLogger()

	scoped := testLogger.WithField("a", 1).WithError(errors.New("e"))
	scoped.InfoWithFields("scoped", map[string]interface{}{"b": 2})
	testLogger.Info("plain")

	msgs := testLogger.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, msgs[0].Fields)
	assert.EqualError(t, msgs[0].Error, "e")
	assert.Nil(t, msgs[1].Fields)
	assert.Nil(t, msgs[1].Error)

	assert.Contains(t, testLogger.String(), "[INFO] scoped")

	testLogger.Clear()
	assert.Empty(t, testLogger.GetMessages())
	assert.Empty(t, testLogger.String())
}

func TestNopLogger(t *testing.T) {
	nop := NewNopLogger()
	nop.Info("ignored")
	nop.WithField("k", "v").WithError(errors.New("x")).Error("ignored")
	assert.NotNil(t, nop.GetZerolog())
}
