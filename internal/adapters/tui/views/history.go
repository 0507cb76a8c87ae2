package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jooleearr/chatty-boxy/internal/adapters/tui/styles"
	"github.com/jooleearr/chatty-boxy/internal/domain"
)

// RunLister loads the run ledger, newest first
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// copyToClipboard is replaced in tests
var copyToClipboard = clipboard.WriteAll

// HistoryKeyMap defines key bindings for the history view
type HistoryKeyMap struct {
	Copy   key.Binding
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding
}

var HistoryKeys = HistoryKeyMap{
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy errors"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// HistoryModel lists sync runs with the selected run's details
type HistoryModel struct {
	ViewState
	lister RunLister
	limit  int
	runs   []domain.RunRecord
	table  table.Model
	loaded bool
}

type runsLoadedMsg struct {
	runs []domain.RunRecord
}

type errMsg struct {
	err error
}

// NewHistoryModel creates a new history view model
func NewHistoryModel(lister RunLister, limit int) *HistoryModel {
	columns := []table.Column{
		{Title: "Run", Width: 6},
		{Title: "Started", Width: 19},
		{Title: "Status", Width: 10},
		{Title: "Took", Width: 8},
		{Title: "Add", Width: 5},
		{Title: "Upd", Width: 5},
		{Title: "Del", Width: 5},
		{Title: "Skip", Width: 5},
		{Title: "Fail", Width: 5},
	}

	s := table.DefaultStyles()
	s.Header = styles.TableHeader
	s.Selected = styles.TableSelected

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithStyles(s),
	)

	return &HistoryModel{lister: lister, limit: limit, table: t}
}

// Init loads the runs
func (m *HistoryModel) Init() tea.Cmd {
	return m.loadRuns
}

func (m *HistoryModel) loadRuns() tea.Msg {
	runs, err := m.lister.ListRuns(context.Background(), m.limit)
	if err != nil {
		return errMsg{err}
	}
	return runsLoadedMsg{runs}
}

// Update handles messages for the history view
func (m *HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case runsLoadedMsg:
		m.runs = msg.runs
		m.loaded = true
		m.table.SetRows(runRows(msg.runs))
		if len(msg.runs) == 0 {
			m.SetMessage("No runs recorded yet", false)
		}
		return m, nil

	case errMsg:
		m.loaded = true
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, HistoryKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, HistoryKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }
		case key.Matches(msg, HistoryKeys.Reload):
			m.ClearMessage()
			return m, m.loadRuns
		case key.Matches(msg, HistoryKeys.Copy):
			m.copySelected()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *HistoryModel) copySelected() {
	run := m.Selected()
	if run == nil {
		return
	}
	if run.ErrorSummary == nil || *run.ErrorSummary == "" {
		m.SetMessage(fmt.Sprintf("Run %d has no errors", run.ID), false)
		return
	}
	if err := copyToClipboard(*run.ErrorSummary); err != nil {
		m.SetMessage("Copy failed: "+err.Error(), true)
		return
	}
	m.SetMessage(fmt.Sprintf("Copied errors of run %d", run.ID), false)
}

// Selected returns the run under the cursor
func (m *HistoryModel) Selected() *domain.RunRecord {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.runs) {
		return nil
	}
	return &m.runs[i]
}

// SetSize updates the view dimensions and resizes the table
func (m *HistoryModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	// Leave room for title, details and help line
	if h := height - 14; h > 3 {
		m.table.SetHeight(h)
	}
}

// Reload re-reads the ledger
func (m *HistoryModel) Reload() tea.Cmd {
	return m.loadRuns
}

func runRows(runs []domain.RunRecord) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		took := "-"
		if d, ok := r.Duration(); ok {
			took = d.Round(time.Second).String()
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			string(r.Status),
			took,
			strconv.Itoa(r.Counts.Added),
			strconv.Itoa(r.Counts.Updated),
			strconv.Itoa(r.Counts.Deleted),
			strconv.Itoa(r.Counts.Skipped),
			strconv.Itoa(r.Counts.Failed),
		})
	}
	return rows
}

// View renders the history view
func (m *HistoryModel) View() string {
	if !m.loaded {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(styles.Title.Render("Sync history"))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	if run := m.Selected(); run != nil {
		b.WriteString(m.renderDetails(run))
		b.WriteString("\n")
	}

	if msg := m.RenderMessage(); msg != "" {
		b.WriteString("\n")
		b.WriteString(msg)
	}

	b.WriteString("\n")
	b.WriteString(renderHelpLine())

	return styles.App.Render(b.String())
}

func (m *HistoryModel) renderDetails(run *domain.RunRecord) string {
	var b strings.Builder
	b.WriteString(styles.Label.Render(fmt.Sprintf("Run %d ", run.ID)))
	b.WriteString(styles.RunStatus(run.Status).Render(string(run.Status)))
	b.WriteString("\n")

	if run.ErrorSummary == nil || *run.ErrorSummary == "" {
		b.WriteString(styles.MutedText.Render("No errors"))
	} else {
		b.WriteString(styles.WarningMsg.Render(*run.ErrorSummary))
	}
	return styles.Panel.Render(b.String())
}

func renderHelpLine() string {
	keys := []struct {
		key  string
		desc string
	}{
		{"j/k", "navigate"},
		{"c", "copy errors"},
		{"r", "reload"},
		{"?", "help"},
		{"q", "quit"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s",
			styles.HelpKey.Render(k.key),
			styles.HelpDesc.Render(k.desc),
		))
	}

	return strings.Join(parts, styles.HelpSeparator.String())
}
