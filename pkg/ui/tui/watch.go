package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"webscraper/pkg/webscraper"
)

// JobFetcher returns the current state of the watched scraping job
type JobFetcher func(ctx context.Context) (*webscraper.ScrapingJob, error)

type jobMsg struct {
	job *webscraper.ScrapingJob
	err error
}

// WatchModel polls a scraping job until it reaches a final status
type WatchModel struct {
	ctx      context.Context
	fetch    JobFetcher
	interval time.Duration

	spinner  spinner.Model
	progress progress.Model

	job      *webscraper.ScrapingJob
	err      error
	polls    int
	quitting bool
}

// NewWatchModel creates a watcher polling every interval
func NewWatchModel(ctx context.Context, fetch JobFetcher, interval time.Duration) *WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = labelStyle

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return &WatchModel{
		ctx:      ctx,
		fetch:    fetch,
		interval: interval,
		spinner:  s,
		progress: p,
	}
}

// Init fetches the job immediately
func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd(0))
}

func (m *WatchModel) fetchCmd(delay time.Duration) tea.Cmd {
	fetch := func() tea.Msg {
		job, err := m.fetch(m.ctx)
		return jobMsg{job: job, err: err}
	}
	if delay <= 0 {
		return fetch
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return fetch() })
}

// Update handles poll results and key presses
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case jobMsg:
		m.polls++
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.job = msg.job
		if m.job.Done() {
			return m, tea.Quit
		}
		return m, m.fetchCmd(m.interval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the job status
func (m *WatchModel) View() string {
	if m.err != nil {
		return errorStyle.Render("✗ "+m.err.Error()) + "\n"
	}
	if m.job == nil {
		return m.spinner.View() + " fetching scraping job...\n"
	}

	icon := m.spinner.View()
	if m.job.Done() {
		icon = statusStyle(m.job.Status).Render("●")
	}

	header := fmt.Sprintf("%s scraping job %d • %s • %s",
		icon,
		m.job.ID,
		m.job.SitemapName,
		statusStyle(m.job.Status).Render(m.job.Status),
	)
	counts := mutedStyle.Render(fmt.Sprintf("pages %d/%d • failed %d • empty %d • records %d",
		m.job.JobsExecuted,
		m.job.JobsScheduled,
		m.job.JobsFailed,
		m.job.JobsEmpty,
		m.job.StoredRecordCount,
	))

	view := header + "\n" + m.progress.ViewAs(m.job.Progress()) + "\n" + counts + "\n"
	if !m.job.Done() && !m.quitting {
		view += helpStyle.Render("q stop watching") + "\n"
	}
	return view
}

// Job returns the last fetched job
func (m *WatchModel) Job() *webscraper.ScrapingJob {
	return m.job
}

// Err returns the fetch error that stopped the watcher
func (m *WatchModel) Err() error {
	return m.err
}

// Watch renders the watcher to out until the job is done, the user quits
// or ctx is cancelled. It returns the last fetched job.
func Watch(ctx context.Context, fetch JobFetcher, interval time.Duration, out io.Writer, opts ...tea.ProgramOption) (*webscraper.ScrapingJob, error) {
	model := NewWatchModel(ctx, fetch, interval)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(out)}, opts...)

	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return model.Job(), err
	}
	return model.Job(), model.Err()
}
