// Package tui is a terminal dashboard over a running session manager,
// grounded on the teacher's tui/tui.go (Bubble Tea model with a tab bar,
// a styled bubbles/table for sessions, periodic tea.Tick refreshes). The
// teacher's Clients/Commands/Logs tabs backed a fake in-memory client
// registry and a hand-parsed JSON command shell that never actually drove
// the MCP server; both are dropped rather than adapted, since there is no
// multi-client or free-form command concept in this bridge (a session
// belongs to exactly one MCP client for its lifetime, and every debugger_*
// operation already has a typed tool). Dashboard and Sessions survive,
// rewired to read real github.com/dapbridge/mcp-debugger/internal/manager
// state instead of a stub GetSessions() map.
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dapbridge/mcp-debugger/internal/manager"
	"github.com/dapbridge/mcp-debugger/internal/session"
)

type ViewTab int

const (
	DashboardTab ViewTab = iota
	SessionsTab
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Help    key.Binding
	Quit    key.Binding
	Tab     key.Binding
	Refresh key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit, k.Tab, k.Refresh}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Tab, k.Refresh},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
	Down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
	Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	Tab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch tabs")),
	Refresh: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "refresh"),
	),
}

// Model is the Bubble Tea model for the monitor.
type Model struct {
	mgr *manager.Manager

	ready     bool
	quitting  bool
	width     int
	height    int
	tabs      []string
	activeTab int

	help          help.Model
	sessionsTable table.Model
	keys          keyMap

	startTime time.Time
}

// NewModel builds a monitor model over mgr.
func NewModel(mgr *manager.Manager) Model {
	columns := []table.Column{
		{Title: "Session ID", Width: 36},
		{Title: "Language", Width: 10},
		{Title: "Program", Width: 28},
		{Title: "State", Width: 14},
		{Title: "Breakpoints", Width: 12},
	}

	sessionsTable := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	sessionsTable.SetStyles(st)

	return Model{
		mgr:           mgr,
		tabs:          []string{"Dashboard", "Sessions"},
		help:          help.New(),
		sessionsTable: sessionsTable,
		keys:          keys,
		startTime:     time.Now(),
	}
}

type refreshMsg time.Time

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sessionsTable.SetHeight(msg.Height - 12)
		m.ready = true

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.activeTab = (m.activeTab + 1) % len(m.tabs)
		case key.Matches(msg, m.keys.Refresh):
			cmds = append(cmds, m.refresh())
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

		if ViewTab(m.activeTab) == SessionsTab {
			m.sessionsTable, cmd = m.sessionsTable.Update(msg)
			cmds = append(cmds, cmd)
		}

	case refreshMsg:
		m.sessionsTable.SetRows(m.sessionRows())
		return m, m.tick()
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n"
	}
	if !m.ready {
		return "\n  Starting debug monitor...\n"
	}

	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#5A67D8")).
		Padding(0, 1).
		Width(m.width).
		Render("DAP-to-MCP Debug Bridge")
	b.WriteString(header)
	b.WriteString("\n\n")

	status := fmt.Sprintf("Sessions: %d | Uptime: %s", len(m.mgr.List()), m.uptime())
	statusBar := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#718096")).
		Background(lipgloss.Color("#F7FAFC")).
		Padding(0, 1).
		Width(m.width).
		Render(status)
	b.WriteString(statusBar)
	b.WriteString("\n\n")

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch ViewTab(m.activeTab) {
	case DashboardTab:
		b.WriteString(m.renderDashboard())
	case SessionsTab:
		b.WriteString(m.sessionsTable.View())
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, name := range m.tabs {
		style := lipgloss.NewStyle().Padding(0, 2)
		if i == m.activeTab {
			style = style.Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5A67D8"))
		} else {
			style = style.Foreground(lipgloss.Color("#718096")).Background(lipgloss.Color("#EDF2F7"))
		}
		rendered = append(rendered, style.Render(name))
	}
	return strings.Join(rendered, " ")
}

func (m Model) renderDashboard() string {
	var b strings.Builder
	b.WriteString("Server Overview\n")
	b.WriteString("---------------\n\n")

	sessions := m.mgr.List()
	running, stopped, terminated, failed := 0, 0, 0, 0
	for _, s := range sessions {
		switch s.State().Kind {
		case session.Running:
			running++
		case session.Stopped:
			stopped++
		case session.Terminated:
			terminated++
		case session.Failed:
			failed++
		}
	}

	rows := [][2]string{
		{"Active sessions:", fmt.Sprintf("%d", len(sessions))},
		{"Running:", fmt.Sprintf("%d", running)},
		{"Stopped:", fmt.Sprintf("%d", stopped)},
		{"Terminated:", fmt.Sprintf("%d", terminated)},
		{"Failed:", fmt.Sprintf("%d", failed)},
		{"Uptime:", m.uptime()},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%-24s %s\n", row[0], row[1])
	}

	b.WriteString("\nTab switches between Dashboard and Sessions. Ctrl+R refreshes. Q quits.\n")
	return b.String()
}

func (m Model) sessionRows() []table.Row {
	sessions := m.mgr.List()
	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		st := s.State()
		rows = append(rows, table.Row{
			s.ID,
			s.Language,
			s.Program,
			st.Kind.String(),
			fmt.Sprintf("%d", len(s.ListBreakpoints())),
		})
	}
	return rows
}

func (m Model) uptime() string {
	d := time.Since(m.startTime)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg { return refreshMsg(time.Now()) }
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// Run starts the monitor, blocking until the user quits. It opens /dev/tty
// directly for its own input/output rather than inheriting os.Stdin/
// os.Stdout, so it can run in the same process as an MCP server that is
// itself using stdio for the JSON-RPC channel (cmd/dap-mcp-server's -tui
// flag runs exactly this alongside server.ServeStdio).
func Run(mgr *manager.Manager) error {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("opening controlling terminal: %w", err)
	}
	defer tty.Close()

	m := NewModel(mgr)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithInput(tty), tea.WithOutput(tty)).Run()
	return err
}
