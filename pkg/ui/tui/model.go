package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ExportState is the lifecycle of one export in the dashboard
type ExportState int

const (
	ExportPending ExportState = iota
	ExportActive
	ExportCompleted
	ExportSkipped
	ExportFailed
)

// ExportItem is a single export shown by the dashboard
type ExportItem struct {
	JobID       int
	SitemapName string
	Filename    string
	Size        int64
	State       ExportState
	StartTime   time.Time
	Duration    time.Duration
	Error       error
}

// LogMessage is a dashboard log line
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
}

// Model is the sync dashboard state
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	title       string
	exports     map[int]*ExportItem
	exportOrder []int
	total       int
	completed   int
	skipped     int
	failed      int
	totalSize   int64
	startTime   time.Time
	finished    bool

	width          int
	height         int
	showHelp       bool
	isPaused       bool
	logMessages    []LogMessage
	maxLogMessages int

	mu sync.RWMutex
}

// NewModel creates a dashboard titled title
func NewModel(title string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = labelStyle

	return &Model{
		spinner:        s,
		progress:       progress.New(progress.WithDefaultGradient()),
		title:          title,
		exports:        make(map[int]*ExportItem),
		startTime:      time.Now(),
		maxLogMessages: 50,
	}
}

// Init starts the spinner
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// SetTotal sets the number of exports expected
func (m *Model) SetTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

// StartExport marks an export active, adding it when unknown
func (m *Model) StartExport(jobID int, sitemapName, filename string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.exports[jobID]
	if !ok {
		item = &ExportItem{JobID: jobID}
		m.exports[jobID] = item
		m.exportOrder = append(m.exportOrder, jobID)
	}
	item.SitemapName = sitemapName
	item.Filename = filename
	item.State = ExportActive
	item.StartTime = time.Now()
}

// CompleteExport marks an export finished or skipped
func (m *Model) CompleteExport(jobID int, size int64, skipped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.exports[jobID]
	if !ok {
		return
	}
	item.Size = size
	item.Duration = time.Since(item.StartTime)
	if skipped {
		item.State = ExportSkipped
		m.skipped++
	} else {
		item.State = ExportCompleted
		m.totalSize += size
	}
	m.completed++
}

// FailExport marks an export failed
func (m *Model) FailExport(jobID int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.exports[jobID]
	if !ok {
		return
	}
	item.State = ExportFailed
	item.Error = err
	item.Duration = time.Since(item.StartTime)
	m.failed++
}

// AddLogMessage appends a log line, keeping the most recent ones
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// IsPaused reports whether the user paused the sync
func (m *Model) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// Fraction returns finished exports (including failures) over the total
func (m *Model) Fraction() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fraction()
}

func (m *Model) fraction() float64 {
	if m.total <= 0 {
		return 0
	}
	f := float64(m.completed+m.failed) / float64(m.total)
	if f > 1 {
		f = 1
	}
	return f
}

// ExportsIn returns exports in state, in submission order
func (m *Model) ExportsIn(state ExportState) []*ExportItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exportsIn(state)
}

func (m *Model) exportsIn(state ExportState) []*ExportItem {
	var items []*ExportItem
	for _, id := range m.exportOrder {
		if item := m.exports[id]; item != nil && item.State == state {
			items = append(items, item)
		}
	}
	return items
}

// ETA estimates the remaining time from the average export duration
func (m *Model) ETA() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.eta()
}

func (m *Model) eta() time.Duration {
	finished := m.completed + m.failed
	if finished == 0 || finished >= m.total {
		return 0
	}
	perItem := time.Since(m.startTime) / time.Duration(finished)
	return perItem * time.Duration(m.total-finished)
}
