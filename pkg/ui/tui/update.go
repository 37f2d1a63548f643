package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// TotalMsg sets the number of exports expected
type TotalMsg struct {
	Total int
}

// ExportStartMsg is sent when an export starts
type ExportStartMsg struct {
	JobID       int
	SitemapName string
	Filename    string
}

// ExportCompleteMsg is sent when an export finishes or is skipped
type ExportCompleteMsg struct {
	JobID   int
	Size    int64
	Skipped bool
}

// ExportErrorMsg is sent when an export fails
type ExportErrorMsg struct {
	JobID int
	Error error
}

// LogMsg adds a log line
type LogMsg struct {
	Level   string
	Message string
}

// DoneMsg marks the sync as finished
type DoneMsg struct{}

// TickMsg refreshes time based fields
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width/2 - 8
		m.mu.Unlock()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case TotalMsg:
		m.SetTotal(msg.Total)
		return m, nil

	case ExportStartMsg:
		m.StartExport(msg.JobID, msg.SitemapName, msg.Filename)
		return m, nil

	case ExportCompleteMsg:
		m.CompleteExport(msg.JobID, msg.Size, msg.Skipped)
		return m, nil

	case ExportErrorMsg:
		m.FailExport(msg.JobID, msg.Error)
		m.AddLogMessage("ERROR", msg.Error.Error())
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil

	case DoneMsg:
		m.mu.Lock()
		m.finished = true
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "p", "P":
		m.mu.Lock()
		m.isPaused = !m.isPaused
		paused := m.isPaused
		m.mu.Unlock()
		if paused {
			m.AddLogMessage("WARN", "Sync paused, in-flight exports will finish")
		} else {
			m.AddLogMessage("INFO", "Sync resumed")
		}
		return m, nil

	case "?":
		m.mu.Lock()
		m.showHelp = !m.showHelp
		m.mu.Unlock()
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = nil
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
