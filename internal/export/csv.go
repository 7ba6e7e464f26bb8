package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/riichinakano/forest-zaim-app/internal/compare"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// Options controls table rendering.
type Options struct {
	// Formatted renders amounts with grouping and nulls as Missing. The
	// default writes plain numbers and empty cells, which spreadsheets can
	// compute with.
	Formatted bool
}

// TableHeader returns the comparison table header.
func TableHeader() []string {
	h := []string{"年度"}
	for m := range model.MonthsPerYear {
		h = append(h, model.MonthLabel(m))
	}
	return append(h, "年間合計", "月平均", "前年合計", "増減", "前年比")
}

// TableRecord renders one comparison row as CSV cells.
func TableRecord(row model.ComparisonRow, opts Options) []string {
	rec := []string{row.FiscalYear}
	for _, v := range row.Monthly {
		if opts.Formatted {
			rec = append(rec, FormatAmount(v))
		} else {
			rec = append(rec, plain(v))
		}
	}

	if opts.Formatted {
		return append(rec,
			FormatAmount(row.AnnualTotal),
			FormatAverage(row.PeriodAverage),
			FormatOptionalAmount(row.PriorTotal),
			FormatDelta(row.Delta),
			FormatPercent(row.DeltaPercent),
		)
	}

	rec = append(rec,
		plain(row.AnnualTotal),
		row.PeriodAverage.StringFixed(compare.AverageScale),
		optional(row.PriorTotal),
		optional(row.Delta),
	)
	if row.DeltaPercent == nil {
		return append(rec, "")
	}
	return append(rec, row.DeltaPercent.StringFixed(compare.PercentScale))
}

// WriteTableCSV writes a comparison table as UTF-8 CSV with a BOM so that
// spreadsheet software detects the encoding.
func WriteTableCSV(w io.Writer, rows []model.ComparisonRow, opts Options) error {
	return writeBOM(w, func(cw *csv.Writer) error {
		if err := cw.Write(TableHeader()); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		for i, row := range rows {
			if err := cw.Write(TableRecord(row, opts)); err != nil {
				return fmt.Errorf("writing row %d: %w", i, err)
			}
		}
		return nil
	})
}

// SeriesHeader is the long-format series header.
var SeriesHeader = []string{"年度", "月", "金額"}

// WriteSeriesCSV writes records in long format, one line per fiscal year and
// month, in fiscal-month order. This is the shape chart tools consume.
func WriteSeriesCSV(w io.Writer, records []model.SeriesRecord) error {
	return writeBOM(w, func(cw *csv.Writer) error {
		if err := cw.Write(SeriesHeader); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		for _, r := range records {
			for m, v := range r.Monthly {
				if err := cw.Write([]string{r.FiscalYear, model.MonthLabel(m), plain(v)}); err != nil {
					return fmt.Errorf("writing %s %s: %w", r.FiscalYear, model.MonthLabel(m), err)
				}
			}
		}
		return nil
	})
}

// writeBOM runs fn against a CSV writer whose output starts with a UTF-8 BOM.
func writeBOM(w io.Writer, fn func(cw *csv.Writer) error) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)
	if err := fn(cw); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return tw.Close()
}

func plain(v int64) string {
	return strconv.FormatInt(v, 10)
}

func optional(v *int64) string {
	if v == nil {
		return ""
	}
	return plain(*v)
}
