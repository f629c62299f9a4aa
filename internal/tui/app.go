// Package tui renders the guild board: every registered project's
// commissions and meeting requests in one sorted view, with a daemon
// online/offline badge. It follows The Elm Architecture via bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/guildhall/internal/config"
	"github.com/kingrea/guildhall/internal/daemon"
	"github.com/kingrea/guildhall/internal/dashboard"
)

const boardRefreshInterval = 5 * time.Second

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	footerStyle  = lipgloss.NewStyle().Faint(true)
)

type refreshMsg struct {
	snapshot     dashboard.Snapshot
	daemonStatus string
	err          error
}

type tickMsg time.Time

// boardItem implements list.Item for one commission or meeting row.
type boardItem struct {
	title string
	desc  string
}

func (i boardItem) Title() string       { return i.title }
func (i boardItem) Description() string { return i.desc }
func (i boardItem) FilterValue() string { return i.title }

// App is the dashboard application model.
type App struct {
	cfg    *config.Config
	client *daemon.Client

	board        list.Model
	daemonStatus string
	boardErr     string
	lastRefresh  time.Time

	width  int
	height int
}

// NewApp builds the dashboard over the resolved configuration.
func NewApp(cfg *config.Config) *App {
	board := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	board.Title = "⬡ GUILD BOARD"
	board.SetShowStatusBar(false)
	board.SetFilteringEnabled(false)
	return &App{
		cfg:          cfg,
		client:       daemon.NewClient(cfg.DaemonAddress),
		board:        board,
		daemonStatus: "unknown",
	}
}

// Run starts the bubbletea program and blocks until the user quits.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen()).Run()
	return err
}

// Init kicks off the first refresh and the periodic tick.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.refreshCmd(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(boardRefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd loads the aggregated board and probes daemon health off the
// update loop.
func (a *App) refreshCmd() tea.Cmd {
	cfg := a.cfg
	client := a.client
	return func() tea.Msg {
		projects, err := cfg.Projects()
		if err != nil {
			return refreshMsg{err: err}
		}
		roots := make([]dashboard.Project, 0, len(projects))
		for _, p := range projects {
			roots = append(roots, dashboard.Project{Name: p.Name, Path: p.Path})
		}
		snap, err := dashboard.New(roots).Load()
		if err != nil {
			return refreshMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		status, _ := client.Health(ctx)["status"].(string)
		return refreshMsg{snapshot: snap, daemonStatus: status}
	}
}

// Update handles messages and returns the new model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.board.SetSize(msg.Width-4, msg.Height-6)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return a, tea.Quit
		case "r":
			return a, a.refreshCmd()
		}

	case tickMsg:
		return a, tea.Batch(a.refreshCmd(), tickCmd())

	case refreshMsg:
		if msg.err != nil {
			a.boardErr = msg.err.Error()
			return a, nil
		}
		a.boardErr = ""
		a.daemonStatus = msg.daemonStatus
		a.lastRefresh = time.Now()
		a.board.SetItems(boardItems(msg.snapshot))
		return a, nil
	}

	var cmd tea.Cmd
	a.board, cmd = a.board.Update(msg)
	return a, cmd
}

// View renders the board with a header badge and a footer hint line.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("guildhall"))
	b.WriteString("  daemon: ")
	if a.daemonStatus == "offline" {
		b.WriteString(offlineStyle.Render("● offline"))
	} else {
		b.WriteString(onlineStyle.Render("● " + a.daemonStatus))
	}
	b.WriteString("\n\n")
	if a.boardErr != "" {
		b.WriteString(errStyle.Render("board error: " + a.boardErr))
		b.WriteString("\n\n")
	}
	b.WriteString(a.board.View())
	b.WriteString("\n")
	footer := "r refresh · q quit"
	if !a.lastRefresh.IsZero() {
		footer += " · updated " + a.lastRefresh.Format("15:04:05")
	}
	b.WriteString(footerStyle.Render(footer))
	return b.String()
}

func boardItems(snap dashboard.Snapshot) []list.Item {
	items := make([]list.Item, 0, len(snap.Commissions)+len(snap.Meetings))
	for _, m := range snap.Meetings {
		items = append(items, boardItem{
			title: "◆ " + meetingTitle(m),
			desc:  meetingDesc(m),
		})
	}
	for _, c := range snap.Commissions {
		items = append(items, boardItem{
			title: "■ " + commissionTitle(c),
			desc:  commissionDesc(c),
		})
	}
	return items
}

func commissionTitle(c dashboard.Commission) string {
	title := c.Title
	if title == "" {
		title = c.CommissionID
	}
	return fmt.Sprintf("[%s] %s", strings.ToLower(strings.TrimSpace(c.Status)), title)
}

func commissionDesc(c dashboard.Commission) string {
	parts := []string{c.ProjectName}
	if c.WorkerDisplayTitle != "" {
		parts = append(parts, c.WorkerDisplayTitle)
	}
	if c.CurrentProgress != "" {
		parts = append(parts, c.CurrentProgress)
	}
	return strings.Join(parts, " · ")
}

func meetingTitle(m dashboard.Meeting) string {
	title := m.Title
	if title == "" {
		title = m.MeetingID
	}
	if m.Deferred() {
		return fmt.Sprintf("[deferred until %s] %s", m.DeferredUntil, title)
	}
	return "[meeting] " + title
}

func meetingDesc(m dashboard.Meeting) string {
	parts := []string{m.ProjectName}
	if m.Agenda != "" {
		parts = append(parts, m.Agenda)
	}
	return strings.Join(parts, " · ")
}
