package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jooleearr/chatty-boxy/internal/application/commands"
)

var (
	syncForceFull   bool
	syncDryRun      bool
	syncCollections []string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the mirror with Confluence",
	Long: `Fetch every configured space, write new and changed pages, and remove
pages that no longer exist remotely.

Failures on single pages are reported but do not fail the run. The command
exits non-zero only when the run could not be completed.

Examples:
  chatty sync
  chatty sync --collections DEV,OPS
  chatty sync --force-full
  chatty sync --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runtime := GetRuntime()
		orch, err := runtime.Orchestrator()
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(syncCollections))
		for _, k := range syncCollections {
			keys = append(keys, strings.TrimSpace(k))
		}

		result, err := commands.NewSyncCommand(orch, keys, syncForceFull, syncDryRun).Execute(cmd.Context())
		if err != nil {
			// A failed run still has counts and errors worth showing
			if result != nil && result.Run != nil {
				renderRunResult(cmd.ErrOrStderr(), result.Run)
			}
			return err
		}

		if syncDryRun && result.Run.Plan != nil {
			renderPlan(cmd.OutOrStdout(), result.Run)
			return nil
		}
		renderRunResult(cmd.OutOrStdout(), result.Run)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncForceFull, "force-full", false, "rewrite every page even if unchanged")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "only show what would change")
	syncCmd.Flags().StringSliceVar(&syncCollections, "collections", nil, "space keys to sync (default: all configured)")
	rootCmd.AddCommand(syncCmd)
}
