package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/riichinakano/forest-zaim-app/internal/analysis"
	"github.com/riichinakano/forest-zaim-app/internal/auditlog"
	"github.com/riichinakano/forest-zaim-app/internal/chart"
	"github.com/riichinakano/forest-zaim-app/internal/export"
)

// Export formats.
const (
	formatTable  = "table"
	formatSeries = "series"
	formatSVG    = "svg"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var q queryFlags
	var outDir string
	var format string
	var formatted bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write each selection's table, series or chart to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			results, err := a.runBatch(cmd.Context(), q)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("creating output dir: %w", err)
			}

			log := a.auditLog()
			for _, res := range results {
				name, data, err := render(res, format, formatted)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, name)
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}

				years := make([]string, len(res.Series))
				for i, r := range res.Series {
					years[i] = r.FiscalYear
				}
				if err := log.Append(auditlog.Entry{
					Source:    auditlog.SourceCLI,
					Action:    auditlog.ActionExport,
					Statement: string(a.statement),
					Selection: res.Selection,
					Years:     years,
					Target:    name,
					QueryID:   res.QueryID,
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			}
			return nil
		},
	}

	q.register(cmd, true)
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&format, "format", formatTable, "table, series or svg")
	cmd.Flags().BoolVar(&formatted, "formatted", false, "table only: write display strings instead of plain numbers")
	return cmd
}

func checkFormat(format string) error {
	switch format {
	case formatTable, formatSeries, formatSVG:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, series or svg)", format)
	}
}

// render returns the export file name and contents.
func render(res *analysis.Result, format string, formatted bool) (string, []byte, error) {
	var buf bytes.Buffer
	switch format {
	case formatTable:
		if err := export.WriteTableCSV(&buf, res.Table, export.Options{Formatted: formatted}); err != nil {
			return "", nil, err
		}
		return export.Filename(res.Label, "csv"), buf.Bytes(), nil
	case formatSeries:
		if err := export.WriteSeriesCSV(&buf, res.Series); err != nil {
			return "", nil, err
		}
		return export.Filename(res.Label+"_系列", "csv"), buf.Bytes(), nil
	case formatSVG:
		if err := chart.WriteTrendSVG(&buf, res.Label, res.Series); err != nil {
			return "", nil, err
		}
		return export.Filename(res.Label, "svg"), buf.Bytes(), nil
	default:
		return "", nil, fmt.Errorf("unknown format %q (want table, series or svg)", format)
	}
}
