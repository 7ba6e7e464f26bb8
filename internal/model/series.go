package model

import "github.com/shopspring/decimal"

// SeriesRecord is one fiscal year of a selection: twelve months plus total.
type SeriesRecord struct {
	FiscalYear  string               `json:"fiscal_year"`
	Monthly     [MonthsPerYear]int64 `json:"monthly"`
	AnnualTotal int64                `json:"annual_total"`
	MonthlySum  int64                `json:"monthly_sum"`
	Accounts    int                  `json:"accounts"` // matching line items
}

// ComparisonRow summarizes one fiscal year against its predecessor.
// Nil prior-year fields mean there is no comparable baseline.
type ComparisonRow struct {
	FiscalYear    string               `json:"fiscal_year"`
	Monthly       [MonthsPerYear]int64 `json:"monthly"`
	AnnualTotal   int64                `json:"annual_total"`
	PeriodAverage decimal.Decimal      `json:"period_average"`
	PriorTotal    *int64               `json:"prior_total"`
	Delta         *int64               `json:"delta"`
	DeltaPercent  *decimal.Decimal     `json:"delta_percent"`
}
