package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riichinakano/forest-zaim-app/internal/ledger"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var tolerance int64

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report data-quality problems in the source files",
		Long: `Check loads every data file and reports files that failed to load,
annual totals that disagree with their monthly sum, display names shared by
several account codes, and accounts missing from the master. Nothing is
corrected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("tolerance") {
				tolerance = a.cfg.Aggregation.Tolerance
			}
			snap, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			problems := 0
			for _, err := range snap.SkippedErrors() {
				fmt.Fprintf(out, "skipped: %v\n", err)
				problems++
			}
			for _, f := range ledger.Validate(snap, tolerance) {
				fmt.Fprintln(out, f.Error())
				problems++
			}

			if problems > 0 {
				return fmt.Errorf("%d problems found", problems)
			}
			fmt.Fprintf(out, "OK: %d line items in %d fiscal years\n", len(snap.Items), len(snap.Years))
			return nil
		},
	}

	cmd.Flags().Int64Var(&tolerance, "tolerance", 0, "allowed difference between annual total and monthly sum (default from config)")
	return cmd
}
