package chart

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/riichinakano/forest-zaim-app/internal/export"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// Layout in pixels.
const (
	Width  = 900
	Height = 500

	marginLeft   = 90
	marginRight  = 150
	marginTop    = 60
	marginBottom = 50
	gridLines    = 5
)

// Palette colors fiscal-year lines in order. Years beyond its length reuse
// colors from the start.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// WriteTrendSVG renders records as a line chart titled "<label> - 月次推移".
// With no records it still draws the axes.
func WriteTrendSVG(w io.Writer, label string, records []model.SeriesRecord) error {
	lo, hi := bounds(records)
	plotW := Width - marginLeft - marginRight
	plotH := Height - marginTop - marginBottom

	x := func(m int) int {
		return marginLeft + m*plotW/(model.MonthsPerYear-1)
	}
	y := func(v int64) int {
		return marginTop + int(float64(hi-v)/float64(hi-lo)*float64(plotH))
	}

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(Width, Height)
	canvas.Rect(0, 0, Width, Height, "fill:white")
	canvas.Text(Width/2, marginTop/2, label+" - 月次推移", "text-anchor:middle;font-size:18px;font-family:sans-serif")

	for i := 0; i <= gridLines; i++ {
		v := lo + (hi-lo)*int64(i)/gridLines
		gy := y(v)
		canvas.Line(marginLeft, gy, marginLeft+plotW, gy, "stroke:lightgray;stroke-width:1")
		canvas.Text(marginLeft-8, gy+4, export.FormatAmount(v), "text-anchor:end;font-size:11px;font-family:sans-serif")
	}
	for m := range model.MonthsPerYear {
		canvas.Text(x(m), marginTop+plotH+20, model.MonthLabel(m), "text-anchor:middle;font-size:12px;font-family:sans-serif")
	}
	canvas.Rect(marginLeft, marginTop, plotW, plotH, "fill:none;stroke:gray;stroke-width:1")

	for i, r := range records {
		color := Palette[i%len(Palette)]
		xs := make([]int, model.MonthsPerYear)
		ys := make([]int, model.MonthsPerYear)
		for m, v := range r.Monthly {
			xs[m], ys[m] = x(m), y(v)
		}
		canvas.Polyline(xs, ys, fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", color))
		for m := range xs {
			canvas.Circle(xs[m], ys[m], 3, "fill:"+color)
		}

		ly := marginTop + 10 + i*20
		lx := marginLeft + plotW + 20
		canvas.Line(lx, ly, lx+20, ly, fmt.Sprintf("stroke:%s;stroke-width:2", color))
		canvas.Text(lx+28, ly+4, r.FiscalYear, "font-size:12px;font-family:sans-serif")
	}

	canvas.End()
	return ew.err
}

// bounds returns the value range to plot. The range always contains zero and
// is never empty.
func bounds(records []model.SeriesRecord) (lo, hi int64) {
	for _, r := range records {
		for _, v := range r.Monthly {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
