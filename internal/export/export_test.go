package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riichinakano/forest-zaim-app/internal/model"
)

func ptr[T any](v T) *T { return &v }

func sampleRows() []model.ComparisonRow {
	var monthly [model.MonthsPerYear]int64
	for i := range monthly {
		monthly[i] = 100000
	}
	return []model.ComparisonRow{
		{
			FiscalYear:    "R5",
			Monthly:       monthly,
			AnnualTotal:   1200000,
			PeriodAverage: decimal.RequireFromString("100000"),
		},
		{
			FiscalYear:    "R6",
			Monthly:       monthly,
			AnnualTotal:   1386000,
			PeriodAverage: decimal.RequireFromString("115500"),
			PriorTotal:    ptr(int64(1200000)),
			Delta:         ptr(int64(186000)),
			DeltaPercent:  ptr(decimal.RequireFromString("15.5")),
		},
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatAmount(1234567))
	assert.Equal(t, "-1,000", FormatAmount(-1000))
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, Missing, FormatOptionalAmount(nil))
	assert.Equal(t, "12", FormatOptionalAmount(ptr(int64(12))))
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "+1,200", FormatDelta(ptr(int64(1200))))
	assert.Equal(t, "-50", FormatDelta(ptr(int64(-50))))
	assert.Equal(t, "0", FormatDelta(ptr(int64(0))))
	assert.Equal(t, Missing, FormatDelta(nil))
}

func TestFormatAverage(t *testing.T) {
	assert.Equal(t, "1,234.50", FormatAverage(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "-0.33", FormatAverage(decimal.RequireFromString("-0.33")))
	assert.Equal(t, "100.00", FormatAverage(decimal.NewFromInt(100)))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+15.5%", FormatPercent(ptr(decimal.RequireFromString("15.5"))))
	assert.Equal(t, "-5.2%", FormatPercent(ptr(decimal.RequireFromString("-5.2"))))
	assert.Equal(t, "0.0%", FormatPercent(ptr(decimal.Zero)))
	assert.Equal(t, Missing, FormatPercent(nil))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "売上高_月次推移.csv", Filename("売上高", "csv"))
	assert.Equal(t, "a_b_c_月次推移.svg", Filename("a/b\\c", ".svg"))
	assert.Equal(t, "x_月次推移.csv", Filename("x", ""))
}

func TestWriteTableCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, sampleRows(), Options{}))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"), "missing BOM")

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, TableHeader(), records[0])
	assert.Len(t, records[0], 18)
	assert.Equal(t, "年度", records[0][0])
	assert.Equal(t, "4月", records[0][1])
	assert.Equal(t, "3月", records[0][12])
	assert.Equal(t, "前年比", records[0][17])

	first := records[1]
	assert.Equal(t, "R5", first[0])
	assert.Equal(t, "100000", first[1])
	assert.Equal(t, "1200000", first[13])
	assert.Equal(t, "100000.00", first[14])
	assert.Equal(t, []string{"", "", ""}, first[15:])

	second := records[2]
	assert.Equal(t, []string{"1386000", "115500.00", "1200000", "186000", "15.5"}, second[13:])
}

func TestWriteTableCSV_Formatted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, sampleRows(), Options{Formatted: true}))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "100,000", records[1][1])
	assert.Equal(t, []string{"1,200,000", "100,000.00", Missing, Missing, Missing}, records[1][13:])
	assert.Equal(t, []string{"1,386,000", "115,500.00", "1,200,000", "+186,000", "+15.5%"}, records[2][13:])
}

func TestWriteSeriesCSV(t *testing.T) {
	rec := model.SeriesRecord{FiscalYear: "R6"}
	for i := range rec.Monthly {
		rec.Monthly[i] = int64(i + 1)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSeriesCSV(&buf, []model.SeriesRecord{rec}))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 13)
	assert.Equal(t, SeriesHeader, records[0])
	assert.Equal(t, []string{"R6", "4月", "1"}, records[1])
	assert.Equal(t, []string{"R6", "3月", "12"}, records[12])
}
