package chart

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riichinakano/forest-zaim-app/internal/model"
)

func record(year string, base int64) model.SeriesRecord {
	r := model.SeriesRecord{FiscalYear: year}
	for i := range r.Monthly {
		r.Monthly[i] = base + int64(i)*1000
	}
	return r
}

func TestWriteTrendSVG(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTrendSVG(&buf, "売上高", []model.SeriesRecord{record("R5", 10000), record("R6", 12000)})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "売上高 - 月次推移")
	assert.Equal(t, 2, strings.Count(out, "<polyline"))
	assert.Contains(t, out, ">R5<")
	assert.Contains(t, out, ">R6<")
	assert.Contains(t, out, Palette[0])
	assert.Contains(t, out, Palette[1])
	assert.Contains(t, out, ">4月<")

	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.ErrorContains(t, err, "EOF")
			break
		}
	}
}

func TestWriteTrendSVG_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrendSVG(&buf, "x", nil))
	assert.NotContains(t, buf.String(), "<polyline")
	assert.Contains(t, buf.String(), "</svg>")
}

func TestBounds(t *testing.T) {
	lo, hi := bounds(nil)
	assert.Equal(t, int64(0), lo)
	assert.Equal(t, int64(1), hi)

	neg := model.SeriesRecord{}
	neg.Monthly[3] = -500
	neg.Monthly[5] = 200
	lo, hi = bounds([]model.SeriesRecord{neg})
	assert.Equal(t, int64(-500), lo)
	assert.Equal(t, int64(200), hi)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteTrendSVG_WriteError(t *testing.T) {
	err := WriteTrendSVG(failingWriter{}, "x", []model.SeriesRecord{record("R6", 1)})
	assert.EqualError(t, err, "disk full")
}
