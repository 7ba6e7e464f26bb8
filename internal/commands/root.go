package commands

import (
	"github.com/spf13/cobra"

	"github.com/riichinakano/forest-zaim-app/internal/buildinfo"
	"github.com/riichinakano/forest-zaim-app/internal/config"
)

// rootOptions holds persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	statement  string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "zaim",
		Short:   "Fiscal-year monthly rollups of profit & loss and balance sheet data",
		Version: buildinfo.Summary(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.FileName, "path to zaim.yaml")
	flags.StringVarP(&opts.statement, "statement", "s", "pl", "statement to read: pl or bs")
	flags.StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newYearsCommand(opts))
	rootCmd.AddCommand(newAccountsCommand(opts))
	rootCmd.AddCommand(newSeriesCommand(opts))
	rootCmd.AddCommand(newTableCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newCheckCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}
