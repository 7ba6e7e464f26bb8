package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/riichinakano/forest-zaim-app/internal/analysis"
	"github.com/riichinakano/forest-zaim-app/internal/compare"
	"github.com/riichinakano/forest-zaim-app/internal/export"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

func newAccountsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List selectable rollups and accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			snap, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, o := range analysis.SelectionOptions(snap) {
				fmt.Fprintf(tw, "%s\t%s\n", o.Selection, o.Display)
			}
			return tw.Flush()
		},
	}
}

func newSeriesCommand(opts *rootOptions) *cobra.Command {
	var q queryFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Show monthly totals per fiscal year for a selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			res, err := a.run(cmd.Context(), q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}

			fmt.Fprintln(out, res.Label)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			header := []string{"年度"}
			for m := range model.MonthsPerYear {
				header = append(header, model.MonthLabel(m))
			}
			header = append(header, "年間合計")
			fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
			for _, r := range res.Series {
				cells := []string{r.FiscalYear}
				for _, v := range r.Monthly {
					cells = append(cells, export.FormatAmount(v))
				}
				cells = append(cells, export.FormatAmount(r.AnnualTotal))
				fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printSkipped(out, res.Skipped)
			return nil
		},
	}

	q.register(cmd, false)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func newTableCommand(opts *rootOptions) *cobra.Command {
	var q queryFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Show the year-over-year comparison table for a selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			res, err := a.run(cmd.Context(), q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res.Table)
			}

			fmt.Fprintln(out, res.Label)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, strings.Join(export.TableHeader(), "\t")+"\t")
			for _, row := range res.Table {
				fmt.Fprintln(tw, strings.Join(export.TableRecord(row, export.Options{Formatted: true}), "\t")+"\t")
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printHeadline(out, res.Table)
			printSkipped(out, res.Skipped)
			return nil
		},
	}

	q.register(cmd, false)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the table rows as JSON")
	return cmd
}

// printHeadline summarizes the latest year against its predecessor.
func printHeadline(w io.Writer, rows []model.ComparisonRow) {
	last, ok := compare.Latest(rows)
	if !ok {
		return
	}
	fmt.Fprintf(w, "最新 %s: 年間合計 %s / 前年比 %s (%s)\n",
		last.FiscalYear,
		export.FormatAmount(last.AnnualTotal),
		export.FormatDelta(last.Delta),
		export.FormatPercent(last.DeltaPercent))
}

func printSkipped(w io.Writer, years []string) {
	if len(years) > 0 {
		fmt.Fprintf(w, "データなし: %s\n", strings.Join(years, ", "))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
