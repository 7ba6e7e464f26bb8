package accounts

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/riichinakano/forest-zaim-app/internal/model"
)

const (
	numFields       = 6
	colCode         = 0
	colName         = 1
	colCategory     = 2
	colSubcategory  = 3
	colFixedCost    = 4
	colDisplayOrder = 5
)

// Header is the column layout written by WriteClassifications.
var Header = []string{"科目コード", "科目名", "大分類", "中分類", "固定費区分", "表示順"}

// headerAliases maps accepted header spellings to column indexes.
var headerAliases = map[string]int{
	"科目コード":         colCode,
	"account_code":  colCode,
	"科目名":           colName,
	"科目名称":          colName,
	"account_name":  colName,
	"大分類":           colCategory,
	"category":      colCategory,
	"中分類":           colSubcategory,
	"subcategory":   colSubcategory,
	"固定費区分":         colFixedCost,
	"fixed_cost":    colFixedCost,
	"表示順":           colDisplayOrder,
	"display_order": colDisplayOrder,
}

// ReadClassifications reads account_master.csv. The master is expected in
// UTF-8 (a BOM is tolerated); input that is not valid UTF-8 is decoded as
// Shift-JIS. Rows come back sorted by display order.
func ReadClassifications(r io.Reader) ([]model.AccountClassification, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading account master: %w", err)
	}

	var dec transform.Transformer = unicode.UTF8BOM.NewDecoder()
	if !utf8.Valid(raw) {
		dec = japanese.ShiftJIS.NewDecoder()
	}

	cr := csv.NewReader(transform.NewReader(bytes.NewReader(raw), dec))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading account master CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	cols, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}

	var rows []model.AccountClassification
	for i, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row, err := UnmarshalClassification(pick(rec, cols))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}

	slices.SortStableFunc(rows, func(a, b model.AccountClassification) int {
		return a.DisplayOrder - b.DisplayOrder
	})
	return rows, nil
}

// WriteClassifications writes account_master.csv in UTF-8.
func WriteClassifications(w io.Writer, rows []model.AccountClassification) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalClassification(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalClassification converts a classification to a CSV row.
func MarshalClassification(c model.AccountClassification) []string {
	row := make([]string, numFields)
	row[colCode] = strconv.Itoa(c.AccountCode)
	row[colName] = c.AccountName
	row[colCategory] = c.Category
	row[colSubcategory] = c.Subcategory
	row[colFixedCost] = c.FixedCostClass
	row[colDisplayOrder] = strconv.Itoa(c.DisplayOrder)
	return row
}

// UnmarshalClassification converts a CSV row in Header order to a classification.
func UnmarshalClassification(record []string) (model.AccountClassification, error) {
	if len(record) != numFields {
		return model.AccountClassification{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	code, err := strconv.Atoi(strings.TrimSpace(record[colCode]))
	if err != nil {
		return model.AccountClassification{}, fmt.Errorf("parsing account code %q: %w", record[colCode], err)
	}

	var order int
	if s := strings.TrimSpace(record[colDisplayOrder]); s != "" {
		order, err = strconv.Atoi(s)
		if err != nil {
			return model.AccountClassification{}, fmt.Errorf("parsing display order %q: %w", s, err)
		}
	}

	return model.AccountClassification{
		AccountCode:    code,
		AccountName:    strings.TrimSpace(record[colName]),
		Category:       strings.TrimSpace(record[colCategory]),
		Subcategory:    strings.TrimSpace(record[colSubcategory]),
		FixedCostClass: strings.TrimSpace(record[colFixedCost]),
		DisplayOrder:   order,
	}, nil
}

// mapHeader returns, for each column in Header order, its index in the file
// or -1 when the file omits it. Code and category are required.
func mapHeader(header []string) ([]int, error) {
	cols := []int{-1, -1, -1, -1, -1, -1}
	for i, h := range header {
		if c, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]; ok && cols[c] < 0 {
			cols[c] = i
		}
	}
	if cols[colCode] < 0 {
		return nil, fmt.Errorf("account master header %v: missing account code column", header)
	}
	if cols[colCategory] < 0 {
		return nil, fmt.Errorf("account master header %v: missing category column", header)
	}
	return cols, nil
}

func pick(rec []string, cols []int) []string {
	out := make([]string, numFields)
	for i, c := range cols {
		if c >= 0 && c < len(rec) {
			out[i] = rec[c]
		}
	}
	return out
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
