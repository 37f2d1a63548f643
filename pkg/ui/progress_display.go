package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay is a single-line export sync progress display
type ProgressDisplay struct {
	mu            sync.Mutex
	out           io.Writer
	label         string
	total         int
	done          int
	skipped       int
	errors        int
	current       string
	startTime     time.Time
	bytesReceived int64
	isDebug       bool
}

// NewProgressDisplay creates a display writing to stdout
func NewProgressDisplay(label string, total int, debug bool) *ProgressDisplay {
	return NewProgressDisplayTo(stdout, label, total, debug)
}

// NewProgressDisplayTo creates a display writing to out
func NewProgressDisplayTo(out io.Writer, label string, total int, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		label:     label,
		total:     total,
		startTime: time.Now(),
		isDebug:   debug,
	}
}

// SetTotal updates the number of exports expected
func (p *ProgressDisplay) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

// StartExport marks an export as in flight
func (p *ProgressDisplay) StartExport(jobID int, sitemapName, filename string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = filename
	if p.isDebug {
		fmt.Fprintf(p.out, "%s %s (%s)\n", Magenta("→"), filename, sitemapName)
		return
	}
	p.printProgress()
}

// CompleteExport records a finished or skipped export
func (p *ProgressDisplay) CompleteExport(jobID int, size int64, skipped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.bytesReceived += size
	if skipped {
		p.skipped++
	}

	if p.isDebug {
		status := FormatBytes(size)
		if skipped {
			status = "already downloaded"
		}
		fmt.Fprintf(p.out, "%s scraping job %d • %s\n", Green("✓"), jobID, status)
		return
	}
	p.printProgress()
}

// FailExport records a failed export
func (p *ProgressDisplay) FailExport(jobID int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.errors++

	if p.isDebug {
		fmt.Fprintf(p.out, "%s scraping job %d - %v\n", Red("✗"), jobID, err)
		return
	}
	p.printProgress()
}

func (p *ProgressDisplay) LogInfo(format string, args ...interface{}) {
	p.log(Cyan("ℹ"), format, args...)
}

func (p *ProgressDisplay) LogSuccess(format string, args ...interface{}) {
	p.log(Green("✓"), format, args...)
}

func (p *ProgressDisplay) LogWarning(format string, args ...interface{}) {
	p.log(Yellow("⚠"), format, args...)
}

func (p *ProgressDisplay) LogError(format string, args ...interface{}) {
	p.log(Red("✗"), format, args...)
}

// IsPaused is always false; the line display cannot be paused
func (p *ProgressDisplay) IsPaused() bool {
	return false
}

func (p *ProgressDisplay) log(icon, format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\n%s %s\n", icon, fmt.Sprintf(format, args...))
}

// Line renders the current progress line without printing it
func (p *ProgressDisplay) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line()
}

func (p *ProgressDisplay) line() string {
	const barWidth = 20
	filled := 0
	if p.total > 0 {
		filled = p.done * barWidth / p.total
		if filled > barWidth {
			filled = barWidth
		}
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("%s [%s] %d/%d • %s • %s",
		Cyan(p.label),
		bar,
		p.done,
		p.total,
		FormatBytes(p.bytesReceived),
		p.calculateETA(),
	)
	if p.current != "" && p.done < p.total {
		line += " • " + p.current
	}
	if p.errors > 0 {
		line += " • " + Red(fmt.Sprintf("%d failed", p.errors))
	}
	return line
}

func (p *ProgressDisplay) printProgress() {
	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), p.line())
}

// Complete prints the sync summary
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)

	fmt.Fprintf(p.out, "\n\n%s Synced %d exports for %s\n", Green("✓"), p.done-p.errors, p.label)
	fmt.Fprintf(p.out, "  %s %s in %s\n", Dim("•"), FormatBytes(p.bytesReceived), FormatDuration(elapsed))
	if p.skipped > 0 {
		fmt.Fprintf(p.out, "  %s %d already downloaded\n", Dim("•"), p.skipped)
	}
	if p.errors > 0 {
		fmt.Fprintf(p.out, "  %s %d exports failed\n", Dim("•"), p.errors)
	}
}

func (p *ProgressDisplay) calculateETA() string {
	if p.done == 0 {
		return "calculating..."
	}
	if p.done >= p.total {
		return "done"
	}

	perItem := time.Since(p.startTime) / time.Duration(p.done)
	return FormatDuration(perItem * time.Duration(p.total-p.done))
}

// FormatDuration formats a duration as 42s, 3m12s or 1h5m
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// FormatBytes formats a byte count with binary units
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
