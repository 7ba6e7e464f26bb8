package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// ErrMissingColumns is returned when a file lacks required columns. The
// loader skips such files instead of failing the whole snapshot.
var ErrMissingColumns = errors.New("missing required columns")

// Parser converts one fiscal year's statement file into line items.
type Parser interface {
	Parse(r io.Reader, fiscalYear string) ([]model.LineItem, error)
	Statement() model.Statement
}

// Registry holds parsers keyed by statement.
type Registry struct {
	parsers map[model.Statement]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[model.Statement]Parser)}
}

// Register adds a parser. Panics on duplicate statement.
func (r *Registry) Register(p Parser) {
	st := p.Statement()
	if _, ok := r.parsers[st]; ok {
		panic("duplicate parser for statement: " + string(st))
	}
	r.parsers[st] = p
}

// Get returns the parser for a statement, or nil.
func (r *Registry) Get(st model.Statement) Parser {
	return r.parsers[st]
}

// DefaultRegistry returns a registry with the P&L and balance-sheet parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&PLParser{})
	r.Register(&BSParser{})
	return r
}

func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return records, nil
}

// headerIndex maps trimmed header names to their column positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// ParseAmount reads a monetary cell. Thousands separators and surrounding
// spaces are ignored, fractions are rounded to the nearest integer, and blank
// or non-numeric cells read as zero.
func ParseAmount(s string) int64 {
	v, ok := parseNumber(s)
	if !ok {
		return 0
	}
	return v
}

// parseAccountCode reads an account code cell. Rows whose code is blank or
// non-numeric (titles, subtotals) are dropped by the caller.
func parseAccountCode(s string) (int, bool) {
	v, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	return int(v), true
}

func parseNumber(s string) (int64, bool) {
	s = strings.NewReplacer(",", "", " ", "", "\u3000", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.Round(0).IntPart(), true
}
