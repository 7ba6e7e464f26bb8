package compare

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/riichinakano/forest-zaim-app/internal/fiscal"
	"github.com/riichinakano/forest-zaim-app/internal/model"
	"github.com/riichinakano/forest-zaim-app/internal/series"
)

const (
	// AverageScale is the number of decimal places kept in PeriodAverage.
	AverageScale = 2
	// PercentScale is the number of decimal places kept in DeltaPercent.
	PercentScale = 1
)

var (
	months  = decimal.NewFromInt(model.MonthsPerYear)
	hundred = decimal.NewFromInt(100)
)

// Builder builds comparison tables.
type Builder struct {
	Calendar *fiscal.Calendar
}

// NewBuilder creates a Builder.
func NewBuilder(cal *fiscal.Calendar) *Builder {
	return &Builder{Calendar: cal}
}

// Build produces one row per record. Records must already be ordered by
// fiscal year.
//
// A row gets prior-year fields only when the previous record is the
// immediately preceding fiscal year; a gap leaves them nil. DeltaPercent is
// also nil when the prior total is zero. A delta that does not fit in int64
// fails with series.ErrOverflow.
func (b *Builder) Build(records []model.SeriesRecord) ([]model.ComparisonRow, error) {
	rows := make([]model.ComparisonRow, 0, len(records))
	for i, rec := range records {
		row := model.ComparisonRow{
			FiscalYear:    rec.FiscalYear,
			Monthly:       rec.Monthly,
			AnnualTotal:   rec.AnnualTotal,
			PeriodAverage: PeriodAverage(rec.AnnualTotal),
		}

		if i > 0 {
			prev := records[i-1]
			adjacent, err := b.Calendar.Adjacent(prev.FiscalYear, rec.FiscalYear)
			if err != nil {
				return nil, err
			}
			if adjacent {
				prior := prev.AnnualTotal
				delta, ok := model.Sub(rec.AnnualTotal, prior)
				if !ok {
					return nil, fmt.Errorf("%s: %w: delta from %s", rec.FiscalYear, series.ErrOverflow, prev.FiscalYear)
				}
				row.PriorTotal = &prior
				row.Delta = &delta
				row.DeltaPercent = DeltaPercent(delta, prior)
			}
		} else if _, err := b.Calendar.Parse(rec.FiscalYear); err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// PeriodAverage is total / 12, rounded half away from zero to AverageScale.
func PeriodAverage(total int64) decimal.Decimal {
	return decimal.NewFromInt(total).DivRound(months, AverageScale)
}

// DeltaPercent is delta / prior * 100 rounded to PercentScale, or nil when
// prior is zero.
func DeltaPercent(delta, prior int64) *decimal.Decimal {
	if prior == 0 {
		return nil
	}
	pct := decimal.NewFromInt(delta).Mul(hundred).DivRound(decimal.NewFromInt(prior), PercentScale)
	return &pct
}

// Latest returns the last row, if any.
func Latest(rows []model.ComparisonRow) (model.ComparisonRow, bool) {
	if len(rows) == 0 {
		return model.ComparisonRow{}, false
	}
	return rows[len(rows)-1], true
}
