package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSelection is returned when a selection string cannot be parsed.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection chooses what a query aggregates. Exactly one of
// AccountSelection, SubcategorySelection or CategorySelection.
type Selection interface {
	fmt.Stringer
	isSelection()
}

// AccountSelection selects a single account by code.
type AccountSelection struct {
	Code int
}

// SubcategorySelection rolls up every account in a mid-tier classification.
type SubcategorySelection struct {
	Name string
}

// CategorySelection rolls up every account in a top-tier classification.
type CategorySelection struct {
	Name string
}

func (AccountSelection) isSelection()     {}
func (SubcategorySelection) isSelection() {}
func (CategorySelection) isSelection()    {}

const (
	kindAccount     = "account"
	kindSubcategory = "subcategory"
	kindCategory    = "category"
)

func (s AccountSelection) String() string     { return kindAccount + ":" + strconv.Itoa(s.Code) }
func (s SubcategorySelection) String() string { return kindSubcategory + ":" + s.Name }
func (s CategorySelection) String() string    { return kindCategory + ":" + s.Name }

// ParseSelection parses "account:620", "subcategory:<name>" or "category:<name>".
func ParseSelection(s string) (Selection, error) {
	kind, value, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return nil, fmt.Errorf("%w %q: expected <kind>:<value>", ErrInvalidSelection, s)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w %q: empty value", ErrInvalidSelection, s)
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case kindAccount:
		code, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w %q: account code: %w", ErrInvalidSelection, s, err)
		}
		return AccountSelection{Code: code}, nil
	case kindSubcategory:
		return SubcategorySelection{Name: value}, nil
	case kindCategory:
		return CategorySelection{Name: value}, nil
	default:
		return nil, fmt.Errorf("%w %q: unknown kind %q", ErrInvalidSelection, s, kind)
	}
}

// IsRollup reports whether sel aggregates through the classification table.
func IsRollup(sel Selection) bool {
	switch sel.(type) {
	case SubcategorySelection, CategorySelection:
		return true
	default:
		return false
	}
}
