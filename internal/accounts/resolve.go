package accounts

import (
	"fmt"
	"slices"

	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// CodeSet is a set of account codes.
type CodeSet map[int]struct{}

// NewCodeSet builds a set from codes.
func NewCodeSet(codes ...int) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether code is in the set.
func (s CodeSet) Has(code int) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the codes in ascending order.
func (s CodeSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Resolve expands a selection into the account codes it covers.
//
// An account selection resolves to its own code without consulting the
// classification table. Subcategory and category selections match the
// classification field exactly; a name with no accounts yields an empty set,
// not an error. Account names are never consulted, so two accounts sharing a
// name stay distinct.
func Resolve(sel model.Selection, classifications []model.AccountClassification) (CodeSet, error) {
	switch s := sel.(type) {
	case model.AccountSelection:
		return NewCodeSet(s.Code), nil
	case model.SubcategorySelection:
		return collect(classifications, func(c model.AccountClassification) bool {
			return c.Subcategory == s.Name
		}), nil
	case model.CategorySelection:
		return collect(classifications, func(c model.AccountClassification) bool {
			return c.Category == s.Name
		}), nil
	default:
		return nil, fmt.Errorf("%w: unsupported selection %T", model.ErrInvalidSelection, sel)
	}
}

func collect(classifications []model.AccountClassification, match func(model.AccountClassification) bool) CodeSet {
	set := make(CodeSet)
	for _, c := range classifications {
		if match(c) {
			set[c.AccountCode] = struct{}{}
		}
	}
	return set
}
