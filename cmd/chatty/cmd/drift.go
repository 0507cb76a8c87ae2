package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jooleearr/chatty-boxy/internal/adapters/tui/styles"
	"github.com/jooleearr/chatty-boxy/internal/application/commands"
)

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Compare page records with markdown files on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewDriftCommand(GetRuntime().Detector()).Execute(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if result.Drift.Clean() {
			fmt.Fprintln(out, styles.Success.Render(result.Message))
			return nil
		}

		fmt.Fprintln(out, styles.WarningMsg.Render(result.Message))
		for _, r := range result.Drift.MissingArtifacts {
			fmt.Fprintf(out, "  %s %s/%s  %s\n", styles.ErrorMsg.Render("missing "), r.CollectionKey, r.ID, r.ArtifactLocation)
		}
		for _, loc := range result.Drift.OrphanedArtifacts {
			fmt.Fprintf(out, "  %s %s\n", styles.WarningMsg.Render("orphaned"), loc)
		}
		fmt.Fprintln(out, styles.MutedText.Render("\nRun `chatty sync --force-full` to rewrite missing files."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(driftCmd)
}
