package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	verbose      bool
	quiet        bool
)

// Build information, set by Execute.
var (
	stewardctlVersion = "dev"
	stewardctlCommit  = "none"
	stewardctlDate    = "unknown"
)

// Execute runs the CLI. Interrupts cancel the command's context.
func Execute(version, commit, date string) error {
	stewardctlVersion, stewardctlCommit, stewardctlDate = version, commit, date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd(version).ExecuteContext(ctx)
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stewardctl",
		Short: "Manage a StewardX scheduler and its tasks",
		Long: `stewardctl installs, starts and stops the StewardX scheduler service and
manages its tasks and execution reports over the StewardX REST API.

Start with:
  export STEWARDX_DATABASE_URL=postgres://...
  stewardctl service start`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Add subcommands
	rootCmd.AddCommand(newServiceCmd())
	rootCmd.AddCommand(newTasksCmd())
	rootCmd.AddCommand(newReportsCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion function for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}
