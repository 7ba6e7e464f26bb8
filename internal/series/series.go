package series

import (
	"errors"
	"fmt"

	"github.com/riichinakano/forest-zaim-app/internal/accounts"
	"github.com/riichinakano/forest-zaim-app/internal/fiscal"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// ErrOverflow is returned when a sum does not fit in int64.
var ErrOverflow = errors.New("aggregate overflows int64")

// TotalPolicy chooses which figure is reported as a record's AnnualTotal.
type TotalPolicy string

const (
	// TotalFromSource sums the annual totals carried by the source rows.
	TotalFromSource TotalPolicy = "source"
	// TotalFromMonthly recomputes the annual total from the summed months.
	TotalFromMonthly TotalPolicy = "monthly"
)

// Valid reports whether p is a known policy.
func (p TotalPolicy) Valid() bool {
	return p == TotalFromSource || p == TotalFromMonthly
}

// InconsistentTotalWarning reports a record whose source annual total and
// monthly sum disagree by more than the tolerance. The record is still emitted.
type InconsistentTotalWarning struct {
	FiscalYear  string `json:"fiscal_year"`
	AnnualTotal int64  `json:"annual_total"` // summed from source rows
	MonthlySum  int64  `json:"monthly_sum"`
	Accounts    []int  `json:"accounts"`
}

// Diff returns AnnualTotal - MonthlySum, clamped to the int64 range.
func (w InconsistentTotalWarning) Diff() int64 {
	return model.SaturatingSub(w.AnnualTotal, w.MonthlySum)
}

func (w InconsistentTotalWarning) String() string {
	return fmt.Sprintf("%s: annual total %d differs from monthly sum %d by %d", w.FiscalYear, w.AnnualTotal, w.MonthlySum, w.Diff())
}

// Outcome is the result of aggregating one fiscal year: Emit, Skip or Fail.
// A skipped year never produces a zero-valued record, so callers can tell
// "no data" apart from "data that sums to zero".
type Outcome interface {
	outcome()
}

// Emit carries a fully built record.
type Emit struct {
	Record  model.SeriesRecord
	Warning *InconsistentTotalWarning
}

// Skip means no line item matched the year.
type Skip struct {
	FiscalYear string
}

// Fail means the year could not be aggregated.
type Fail struct {
	FiscalYear string
	Err        error
}

func (Emit) outcome() {}
func (Skip) outcome() {}
func (Fail) outcome() {}

// Result is the output of Build.
type Result struct {
	Records  []model.SeriesRecord // ordered by fiscal year
	Skipped  []string             // requested years with no data, in order
	Warnings []InconsistentTotalWarning
}

// Builder aggregates line items. The zero Policy means TotalFromSource.
type Builder struct {
	Calendar  *fiscal.Calendar
	Policy    TotalPolicy
	Tolerance int64
}

// NewBuilder creates a Builder with the default policy and no tolerance.
func NewBuilder(cal *fiscal.Calendar) *Builder {
	return &Builder{Calendar: cal, Policy: TotalFromSource}
}

// Build aggregates items over codes for each requested fiscal year.
//
// Years are compared in canonical form ("R01" is "R1"), deduplicated and
// ordered by fiscal ordinal regardless of input order; an unrecognized era
// fails the whole call. Years without matching items are reported in Skipped
// and produce no record. An empty code set or year list yields an empty
// Result.
func (b *Builder) Build(items []model.LineItem, codes accounts.CodeSet, years []string) (Result, error) {
	canon := make([]string, len(years))
	for i, y := range years {
		c, err := b.Calendar.Canonical(y)
		if err != nil {
			return Result{}, err
		}
		canon[i] = c
	}
	sorted, err := b.Calendar.Sort(dedupe(canon))
	if err != nil {
		return Result{}, err
	}

	byYear := make(map[string][]model.LineItem, len(sorted))
	for _, li := range items {
		if !codes.Has(li.AccountCode) {
			continue
		}
		year, err := b.Calendar.Canonical(li.FiscalYear)
		if err != nil {
			continue
		}
		byYear[year] = append(byYear[year], li)
	}

	var res Result
	for _, year := range sorted {
		switch o := b.aggregateYear(year, byYear[year]).(type) {
		case Emit:
			res.Records = append(res.Records, o.Record)
			if o.Warning != nil {
				res.Warnings = append(res.Warnings, *o.Warning)
			}
		case Skip:
			res.Skipped = append(res.Skipped, o.FiscalYear)
		case Fail:
			return Result{}, fmt.Errorf("aggregating %s: %w", o.FiscalYear, o.Err)
		default:
			return Result{}, fmt.Errorf("aggregating %s: unexpected outcome %T", year, o)
		}
	}
	return res, nil
}

// aggregateYear decides Skip before touching any record state.
func (b *Builder) aggregateYear(year string, matched []model.LineItem) Outcome {
	if len(matched) == 0 {
		return Skip{FiscalYear: year}
	}

	var monthly [model.MonthsPerYear]int64
	var annual, monthlySum int64
	var ok bool
	codes := make([]int, 0, len(matched))

	for _, li := range matched {
		for m, v := range li.Monthly {
			if monthly[m], ok = model.Add(monthly[m], v); !ok {
				return Fail{FiscalYear: year, Err: fmt.Errorf("%w: month %s", ErrOverflow, model.MonthLabel(m))}
			}
		}
		if annual, ok = model.Add(annual, li.AnnualTotal); !ok {
			return Fail{FiscalYear: year, Err: fmt.Errorf("%w: annual total", ErrOverflow)}
		}
		codes = append(codes, li.AccountCode)
	}
	for _, v := range monthly {
		if monthlySum, ok = model.Add(monthlySum, v); !ok {
			return Fail{FiscalYear: year, Err: fmt.Errorf("%w: monthly sum", ErrOverflow)}
		}
	}

	rec := model.SeriesRecord{
		FiscalYear:  year,
		Monthly:     monthly,
		AnnualTotal: annual,
		MonthlySum:  monthlySum,
		Accounts:    len(matched),
	}
	if b.Policy == TotalFromMonthly {
		rec.AnnualTotal = monthlySum
	}

	emit := Emit{Record: rec}
	if !model.WithinTolerance(annual, monthlySum, b.Tolerance) {
		emit.Warning = &InconsistentTotalWarning{
			FiscalYear:  year,
			AnnualTotal: annual,
			MonthlySum:  monthlySum,
			Accounts:    codes,
		}
	}
	return emit
}

func dedupe(years []string) []string {
	seen := make(map[string]bool, len(years))
	out := make([]string, 0, len(years))
	for _, y := range years {
		if seen[y] {
			continue
		}
		seen[y] = true
		out = append(out, y)
	}
	return out
}
