package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jooleearr/chatty-boxy/internal/application/commands"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent sync runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewListRunsCommand(GetRuntime().Store, runsLimit).Execute(cmd.Context())
		if err != nil {
			return err
		}

		if len(result.Runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
			return nil
		}
		for _, r := range result.Runs {
			fmt.Fprintln(cmd.OutOrStdout(), renderRunLine(r))
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to show")
	rootCmd.AddCommand(runsCmd)
}
