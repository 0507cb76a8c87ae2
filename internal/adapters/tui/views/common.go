package views

import "github.com/jooleearr/chatty-boxy/internal/adapters/tui/styles"

// ViewState is embedded by view models for size and status line handling
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets the status line
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the status line
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// RenderMessage styles the status line, or returns "" when empty
func (s *ViewState) RenderMessage() string {
	switch {
	case s.Message == "":
		return ""
	case s.MessageErr:
		return styles.ErrorMsg.Render(s.Message)
	default:
		return styles.Success.Render(s.Message)
	}
}

// SwitchToHelpMsg opens the help view
type SwitchToHelpMsg struct{}

// SwitchToHistoryMsg returns to the history view and reloads it
type SwitchToHistoryMsg struct{}
