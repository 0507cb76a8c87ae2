package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jooleearr/chatty-boxy/internal/adapters/tui/views"
)

// ViewState represents the current view
type ViewState int

const (
	ViewHistory ViewState = iota
	ViewHelp
)

// App is the run-history browser
type App struct {
	state   ViewState
	history *views.HistoryModel
	help    *views.HelpModel
}

// NewApp creates a new TUI application showing up to limit runs
func NewApp(lister views.RunLister, limit int) *App {
	return &App{
		state:   ViewHistory,
		history: views.NewHistoryModel(lister, limit),
		help:    views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.history.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.history.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToHistoryMsg:
		a.state = ViewHistory
		return a, a.history.Reload()
	}

	var cmd tea.Cmd
	switch a.state {
	case ViewHistory:
		_, cmd = a.history.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewHelp:
		return a.help.View()
	default:
		return a.history.View()
	}
}
