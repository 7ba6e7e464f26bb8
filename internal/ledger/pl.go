package ledger

import (
	"fmt"
	"io"
	"strings"

	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// P&L file headers.
const (
	plColCode       = "科目コード"
	plColName       = "科目名称"
	plColCumulative = "当月迄累計金額"
)

// PLParser parses monthly profit-and-loss exports ({FY}_monthly.csv).
//
// Required columns are 科目コード, 科目名称 and the twelve month columns
// 4月..3月. When 当月迄累計金額 is present it is taken as the source annual
// total; otherwise the annual total is the sum of the months.
type PLParser struct{}

// Statement returns model.StatementPL.
func (p *PLParser) Statement() model.Statement { return model.StatementPL }

// Parse reads a P&L file for fiscalYear.
func (p *PLParser) Parse(r io.Reader, fiscalYear string) ([]model.LineItem, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("reading P&L CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}

	idx := headerIndex(records[0])
	var missing []string
	for _, col := range []string{plColCode, plColName} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	var monthCols [model.MonthsPerYear]int
	for m := range monthCols {
		label := model.MonthLabel(m)
		c, ok := idx[label]
		if !ok {
			missing = append(missing, label)
		}
		monthCols[m] = c
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumns, missing)
	}

	cumCol, hasCum := idx[plColCumulative]

	var items []model.LineItem
	for _, rec := range records[1:] {
		code, ok := parseAccountCode(cell(rec, idx[plColCode]))
		if !ok {
			continue
		}

		li := model.LineItem{
			FiscalYear:  fiscalYear,
			AccountCode: code,
			AccountName: strings.TrimSpace(cell(rec, idx[plColName])),
		}
		for m, c := range monthCols {
			li.Monthly[m] = ParseAmount(cell(rec, c))
		}

		li.AnnualTotal = li.MonthlySum()
		if hasCum {
			if v, ok := parseNumber(cell(rec, cumCol)); ok {
				li.AnnualTotal = v
			}
		}
		items = append(items, li)
	}
	return items, nil
}
