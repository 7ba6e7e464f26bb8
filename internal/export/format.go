package export

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/riichinakano/forest-zaim-app/internal/compare"
)

// Missing is shown in place of a value that has no baseline.
const Missing = "—"

var printer = message.NewPrinter(language.Japanese)

// FormatAmount groups thousands: 1234567 -> "1,234,567".
func FormatAmount(v int64) string {
	return printer.Sprintf("%d", v)
}

// FormatOptionalAmount is FormatAmount with Missing for nil.
func FormatOptionalAmount(v *int64) string {
	if v == nil {
		return Missing
	}
	return FormatAmount(*v)
}

// FormatDelta is FormatOptionalAmount with an explicit plus sign.
func FormatDelta(v *int64) string {
	if v == nil {
		return Missing
	}
	if *v > 0 {
		return "+" + FormatAmount(*v)
	}
	return FormatAmount(*v)
}

// FormatAverage renders a period average with grouping and two decimals.
func FormatAverage(d decimal.Decimal) string {
	s := d.StringFixed(compare.AverageScale)
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	n, err := decimal.NewFromString(intPart)
	if err != nil {
		return s
	}
	out := FormatAmount(n.IntPart()) + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// FormatPercent renders a delta percentage as "+15.5%" or "-5.2%". Nil
// renders as Missing.
func FormatPercent(p *decimal.Decimal) string {
	if p == nil {
		return Missing
	}
	sign := ""
	if p.IsPositive() {
		sign = "+"
	}
	return sign + p.StringFixed(compare.PercentScale) + "%"
}

// Filename builds a download file name from a selection label:
// "売上高" -> "売上高_月次推移.csv". Path separators are replaced.
func Filename(label, ext string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(label)
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "csv"
	}
	return safe + "_月次推移." + ext
}
