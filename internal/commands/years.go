package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/riichinakano/forest-zaim-app/internal/ledger"
)

func newYearsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List fiscal years with a data file, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			files, err := ledger.Scan(a.cfg.DataDir(a.statement), a.statement, a.cal)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s data files in %s\n", a.statement, a.cfg.DataDir(a.statement))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, f := range files {
				year, err := a.cal.Year(f.FiscalYear)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", f.FiscalYear, year, f.Name, humanize.Bytes(uint64(f.Size)))
			}
			return tw.Flush()
		},
	}
}
