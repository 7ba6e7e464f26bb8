package model

import "fmt"

// MonthsPerYear is the number of monthly columns in a fiscal year.
const MonthsPerYear = 12

// FiscalMonths lists calendar months in fiscal order (April through March).
var FiscalMonths = [MonthsPerYear]int{4, 5, 6, 7, 8, 9, 10, 11, 12, 1, 2, 3}

// MonthLabel returns the column label for a fiscal month index, e.g. 0 -> "4月".
func MonthLabel(i int) string {
	return fmt.Sprintf("%d月", FiscalMonths[i])
}

// Statement identifies which financial statement a data set belongs to.
type Statement string

const (
	StatementPL Statement = "pl"
	StatementBS Statement = "bs"
)

// Valid reports whether s is a known statement.
func (s Statement) Valid() bool {
	return s == StatementPL || s == StatementBS
}

// LineItem is one account's row in a fiscal year's monthly file.
type LineItem struct {
	FiscalYear  string
	AccountCode int    // authoritative identity
	AccountName string // display only
	Monthly     [MonthsPerYear]int64
	AnnualTotal int64
}

// MonthlySum adds up the twelve monthly values.
func (li LineItem) MonthlySum() int64 {
	var sum int64
	for _, v := range li.Monthly {
		sum += v
	}
	return sum
}

// CheckedMonthlySum is MonthlySum, or false when the sum does not fit in int64.
func (li LineItem) CheckedMonthlySum() (int64, bool) {
	var sum int64
	var ok bool
	for _, v := range li.Monthly {
		if sum, ok = Add(sum, v); !ok {
			return 0, false
		}
	}
	return sum, true
}
