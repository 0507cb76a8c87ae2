package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jooleearr/chatty-boxy/internal/bootstrap"
)

var (
	configPath string
	rt         *bootstrap.Runtime
)

var rootCmd = &cobra.Command{
	Use:   "chatty",
	Short: "Mirror Confluence spaces into local markdown and a search index",
	Long: `chatty keeps a local mirror of Confluence spaces: one markdown file per
page, a SQLite record of what was synced, and optionally a Weaviate class
that makes the pages searchable.

Each sync only rewrites pages whose version or title changed and removes
pages that disappeared from a space.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		runtime, err := bootstrap.Open(configPath)
		if err != nil {
			return err
		}
		rt = runtime
		return nil
	},
}

// Execute runs the root command. Interrupts cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if rt != nil {
		if closeErr := rt.Close(); closeErr != nil {
			fmt.Fprintln(os.Stderr, closeErr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/chatty-boxy/config.yaml)")
}

// GetRuntime returns the initialized runtime
func GetRuntime() *bootstrap.Runtime {
	return rt
}
