package ledger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/riichinakano/forest-zaim-app/internal/fiscal"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// Supported source encodings.
const (
	EncodingShiftJIS = "shift-jis"
	EncodingUTF8     = "utf-8"
	EncodingAuto     = "auto"
)

// FileInfo describes one fiscal year's source file.
type FileInfo struct {
	FiscalYear string
	Name       string
	Path       string
	Size       int64
}

// FileSuffix returns the file-name suffix for a statement.
func FileSuffix(st model.Statement) string {
	if st == model.StatementBS {
		return "_monthly_bs.csv"
	}
	return "_monthly.csv"
}

// FileName returns the source file name for a fiscal year.
func FileName(st model.Statement, fiscalYear string) string {
	return fiscalYear + FileSuffix(st)
}

// Scan returns the statement's source files in dir, ordered by fiscal year.
// Files whose year prefix is not a recognized fiscal-year code are ignored.
// A missing directory is an error.
func Scan(dir string, st model.Statement, cal *fiscal.Calendar) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading data dir: %w", err)
	}

	suffix := FileSuffix(st)
	byYear := make(map[string]FileInfo)
	var years []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		year := strings.TrimSuffix(e.Name(), suffix)
		if _, err := cal.Parse(year); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		byYear[year] = FileInfo{
			FiscalYear: year,
			Name:       e.Name(),
			Path:       filepath.Join(dir, e.Name()),
			Size:       info.Size(),
		}
		years = append(years, year)
	}

	sorted, err := cal.Sort(years)
	if err != nil {
		return nil, err
	}
	files := make([]FileInfo, len(sorted))
	for i, y := range sorted {
		files[i] = byYear[y]
	}
	return files, nil
}

// AvailableYears lists the fiscal years that have a source file in dir.
func AvailableYears(dir string, st model.Statement, cal *fiscal.Calendar) ([]string, error) {
	files, err := Scan(dir, st, cal)
	if err != nil {
		return nil, err
	}
	years := make([]string, len(files))
	for i, f := range files {
		years[i] = f.FiscalYear
	}
	return years, nil
}

// NewDecoder wraps r so it yields UTF-8. "auto" sniffs the content: valid
// UTF-8 is passed through, anything else is decoded as Shift-JIS. A UTF-8 BOM
// is always dropped.
func NewDecoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case EncodingShiftJIS, "sjis", "shift_jis", "cp932":
		return transform.NewReader(r, japanese.ShiftJIS.NewDecoder()), nil
	case EncodingUTF8, "utf8", "":
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), nil
	case EncodingAuto:
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading source: %w", err)
		}
		if utf8.Valid(raw) {
			return transform.NewReader(bytes.NewReader(raw), unicode.UTF8BOM.NewDecoder()), nil
		}
		return transform.NewReader(bytes.NewReader(raw), japanese.ShiftJIS.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}
