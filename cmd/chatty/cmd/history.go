package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jooleearr/chatty-boxy/internal/adapters/tui"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse sync runs interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := tui.NewApp(GetRuntime().Store, historyLimit)

		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		_, err := p.Run()
		return err
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 100, "number of runs to load")
	rootCmd.AddCommand(historyCmd)
}
