package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jooleearr/chatty-boxy/internal/adapters/tui/styles"
	"github.com/jooleearr/chatty-boxy/internal/application/commands"
)

var statusStalledAfter time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last run and mirror size",
	RunE: func(cmd *cobra.Command, args []string) error {
		runtime := GetRuntime()
		statusCommand := commands.NewStatusCommand(runtime.Store, runtime.Store)
		statusCommand.StalledAfter = statusStalledAfter

		result, err := statusCommand.Execute(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, styles.Title.Render("chatty-boxy"))
		fmt.Fprintln(out, result.Message)

		if result.LastRun != nil {
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderRunLine(*result.LastRun))
			if result.LastRun.ErrorSummary != nil {
				fmt.Fprintln(out, styles.WarningMsg.Render(*result.LastRun.ErrorSummary))
			}
		}

		if len(result.Collections) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, styles.Label.Render("Records"))
			for _, c := range result.Collections {
				fmt.Fprintf(out, "  %-12s %d\n", c.CollectionKey, c.Records)
			}
		}

		if len(result.Stalled) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, styles.ErrorMsg.Render("Stalled runs"))
			for _, r := range result.Stalled {
				fmt.Fprintln(out, "  "+renderRunLine(r))
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().DurationVar(&statusStalledAfter, "stalled-after", commands.DefaultStalledAfter, "flag runs open longer than this")
	rootCmd.AddCommand(statusCmd)
}
