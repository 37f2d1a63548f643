package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"webscraper/pkg/ui"
)

// View renders the dashboard
func (m *Model) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.width == 0 {
		return "Initializing..."
	}

	columnWidth := (m.width - 4) / 2

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(columnWidth),
		m.renderActivePanel(columnWidth),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderQueuePanel(columnWidth),
		m.renderLogsPanel(columnWidth),
	)

	sections := []string{
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right),
	}
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("p pause • q quit • ? help"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	status := m.spinner.View() + " syncing"
	switch {
	case m.finished:
		status = successStyle.Render("✓ finished, press q to exit")
	case m.isPaused:
		status = warningStyle.Render("⏸  paused")
	}
	return headerStyle.Render(fmt.Sprintf("Web Scraper export sync • %s", m.title)) + "  " + status
}

func (m *Model) renderStatsPanel(width int) string {
	stats := []string{
		m.stat("Elapsed:", ui.FormatDuration(time.Since(m.startTime))),
		m.stat("Exports:", fmt.Sprintf("%d/%d", m.completed+m.failed, m.total)),
		m.stat("Skipped:", fmt.Sprintf("%d", m.skipped)),
		m.stat("Failed:", fmt.Sprintf("%d", m.failed)),
		m.stat("Received:", ui.FormatBytes(m.totalSize)),
		m.stat("ETA:", ui.FormatDuration(m.eta())),
		m.progress.ViewAs(m.fraction()),
	}

	return panel(width, " SYNC ", lipgloss.JoinVertical(lipgloss.Left, stats...))
}

func (m *Model) stat(label, value string) string {
	return labelStyle.Render(label) + " " + valueStyle.Render(value)
}

func (m *Model) renderActivePanel(width int) string {
	active := m.exportsIn(ExportActive)
	if len(active) == 0 {
		return panel(width, " ACTIVE ", mutedStyle.Render("No active downloads"))
	}

	lines := make([]string, 0, len(active))
	for _, item := range active {
		lines = append(lines, activeItemStyle.Render(fmt.Sprintf("%s %s • %s • %s",
			m.spinner.View(),
			item.Filename,
			item.SitemapName,
			ui.FormatDuration(time.Since(item.StartTime)),
		)))
	}
	return panel(width, " ACTIVE ", lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderQueuePanel(width int) string {
	var lines []string

	done := append(m.exportsIn(ExportCompleted), m.exportsIn(ExportSkipped)...)
	if len(done) > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("✓ %d done", len(done))))
		start := len(done) - 3
		if start < 0 {
			start = 0
		}
		for _, item := range done[start:] {
			note := ui.FormatBytes(item.Size)
			if item.State == ExportSkipped {
				note = "already downloaded"
			}
			lines = append(lines, doneItemStyle.Render(fmt.Sprintf("✓ %s • %s", item.Filename, note)))
		}
	}

	failed := m.exportsIn(ExportFailed)
	if len(failed) > 0 {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("✗ %d failed", len(failed))))
		for i := 0; i < 3 && i < len(failed); i++ {
			lines = append(lines, doneItemStyle.Render(fmt.Sprintf("✗ scraping job %d", failed[i].JobID)))
		}
	}

	if len(lines) == 0 {
		lines = append(lines, mutedStyle.Render("Nothing finished yet"))
	}
	return panel(width, " RESULTS ", lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderLogsPanel(width int) string {
	start := len(m.logMessages) - 8
	if start < 0 {
		start = 0
	}

	maxLen := width - 22
	if maxLen < 10 {
		maxLen = 10
	}

	var lines []string
	for _, msg := range m.logMessages[start:] {
		text := msg.Message
		if len(text) > maxLen {
			text = text[:maxLen-3] + "..."
		}
		level := lipgloss.NewStyle().Foreground(levelColor(msg.Level)).Bold(true).Render(fmt.Sprintf("%-7s", msg.Level))
		lines = append(lines, fmt.Sprintf("%s %s %s", logTimestampStyle.Render(msg.Time.Format("15:04:05")), level, text))
	}

	content := strings.Join(lines, "\n")
	if content == "" {
		content = mutedStyle.Render("No logs yet...")
	}
	return panel(width, " LOG ", content)
}

func (m *Model) renderHelp() string {
	help := strings.Join([]string{
		"q        quit (in-flight exports are cancelled)",
		"p        pause or resume queueing new exports",
		"ctrl+l   clear the log",
		"?        toggle this help",
	}, "\n")
	return panelStyle.Render(help)
}

func panel(width int, title, content string) string {
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), content),
	)
}
