package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI runs the sync dashboard and forwards sync events into it
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a full screen dashboard bound to ctx
func NewTUI(ctx context.Context, title string, opts ...tea.ProgramOption) *TUI {
	model := NewModel(title)
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)

	return &TUI{
		program: tea.NewProgram(model, opts...),
		model:   model,
	}
}

// Run blocks until the user quits or ctx is cancelled
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Stop quits the program
func (t *TUI) Stop() {
	t.program.Quit()
}

// Finish marks the sync as done; the dashboard stays up until the user quits
func (t *TUI) Finish() {
	t.program.Send(DoneMsg{})
}

func (t *TUI) SetTotal(total int) {
	t.program.Send(TotalMsg{Total: total})
}

func (t *TUI) StartExport(jobID int, sitemapName, filename string) {
	t.program.Send(ExportStartMsg{JobID: jobID, SitemapName: sitemapName, Filename: filename})
}

func (t *TUI) CompleteExport(jobID int, size int64, skipped bool) {
	t.program.Send(ExportCompleteMsg{JobID: jobID, Size: size, Skipped: skipped})
}

func (t *TUI) FailExport(jobID int, err error) {
	t.program.Send(ExportErrorMsg{JobID: jobID, Error: err})
}

func (t *TUI) log(level, format string, args ...interface{}) {
	t.program.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (t *TUI) LogInfo(format string, args ...interface{}) { t.log("INFO", format, args...) }
func (t *TUI) LogSuccess(format string, args ...interface{}) { t.log("SUCCESS", format, args...) }
func (t *TUI) LogWarning(format string, args ...interface{}) { t.log("WARN", format, args...) }
func (t *TUI) LogError(format string, args ...interface{}) { t.log("ERROR", format, args...) }

// IsPaused reports whether the user paused the sync
func (t *TUI) IsPaused() bool {
	return t.model.IsPaused()
}
