package ledger

import (
	"fmt"
	"io"
	"strings"

	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// Balance-sheet file headers.
const (
	bsColCode     = "コード"
	bsColName     = "科目名称"
	bsBalanceMark = "当月残高"
)

// BSParser parses monthly balance-sheet exports ({FY}_monthly_bs.csv).
//
// Month columns are the ones whose header contains both the month label and
// 当月残高, e.g. "4月(当月残高)". The annual total is the sum of the twelve
// month-end balances and is only a reference figure. Only balance-sheet codes
// are kept: 111-399 and 920. Codes 400-899 are P&L accounts and 9500+ are
// subtotal rows.
type BSParser struct{}

// Statement returns model.StatementBS.
func (p *BSParser) Statement() model.Statement { return model.StatementBS }

// IsBalanceSheetCode reports whether code belongs on the balance sheet.
func IsBalanceSheetCode(code int) bool {
	return (code >= 111 && code <= 399) || code == 920
}

// Parse reads a balance-sheet file for fiscalYear.
func (p *BSParser) Parse(r io.Reader, fiscalYear string) ([]model.LineItem, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("reading balance sheet CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}

	header := records[0]
	idx := headerIndex(header)
	var missing []string
	for _, col := range []string{bsColCode, bsColName} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}

	var monthCols [model.MonthsPerYear]int
	found := 0
	for m := range monthCols {
		monthCols[m] = balanceColumn(header, model.MonthLabel(m))
		if monthCols[m] >= 0 {
			found++
		}
	}
	if found != model.MonthsPerYear {
		missing = append(missing, fmt.Sprintf("month balances (%d/%d)", found, model.MonthsPerYear))
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumns, missing)
	}

	var items []model.LineItem
	for _, rec := range records[1:] {
		code, ok := parseAccountCode(cell(rec, idx[bsColCode]))
		if !ok || !IsBalanceSheetCode(code) {
			continue
		}

		li := model.LineItem{
			FiscalYear:  fiscalYear,
			AccountCode: code,
			AccountName: strings.TrimSpace(cell(rec, idx[bsColName])),
		}
		for m, c := range monthCols {
			li.Monthly[m] = ParseAmount(cell(rec, c))
		}
		li.AnnualTotal = li.MonthlySum()
		items = append(items, li)
	}
	return items, nil
}

// balanceColumn finds the month-end balance column for a month label. The
// label must start the header so "1月" does not match "11月".
func balanceColumn(header []string, label string) int {
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if strings.HasPrefix(h, label) && strings.Contains(h, bsBalanceMark) {
			return i
		}
	}
	return -1
}
