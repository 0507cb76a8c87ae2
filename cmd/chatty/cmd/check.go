package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jooleearr/chatty-boxy/internal/adapters/tui/styles"
	"github.com/jooleearr/chatty-boxy/internal/application/commands"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the connection to Confluence",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := GetRuntime().Source()
		if err != nil {
			return err
		}

		result, err := commands.NewCheckCommand(source).Execute(cmd.Context())
		if err != nil {
			return err
		}

		if !result.OK {
			fmt.Fprintln(cmd.OutOrStdout(), styles.ErrorMsg.Render(result.Message))
			return fmt.Errorf("confluence unreachable")
		}
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(result.Message))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
