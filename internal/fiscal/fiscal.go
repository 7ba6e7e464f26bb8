// Package fiscal orders era-prefixed fiscal-year codes such as "H27" and "R6".
//
// Codes are never compared as strings: "R10" must sort after "R2". Each code
// maps to an ordinal of eraIndex*EraSpan + suffix, so era precedence always
// dominates the numeric suffix.
package fiscal

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// EraSpan exceeds any plausible number of years within one era.
const EraSpan = 1000

// ErrUnknownEra is the sentinel wrapped by every UnknownEraError.
var ErrUnknownEra = errors.New("unknown fiscal year era")

// UnknownEraError reports a code whose era marker or suffix is not recognized.
type UnknownEraError struct {
	Code   string
	Reason string
}

func (e *UnknownEraError) Error() string {
	return fmt.Sprintf("fiscal year %q: %s", e.Code, e.Reason)
}

func (e *UnknownEraError) Unwrap() error { return ErrUnknownEra }

// Era is a named era. Offset is added to the numeric suffix to get the
// Gregorian year in which the fiscal year starts (H1 = 1989 -> Offset 1988).
type Era struct {
	Marker string `yaml:"marker" validate:"required,len=1,alpha"`
	Offset int    `yaml:"offset" validate:"required,gt=0"`
}

// DefaultEras are Heisei followed by Reiwa.
var DefaultEras = []Era{
	{Marker: "H", Offset: 1988},
	{Marker: "R", Offset: 2018},
}

// Calendar is an ordered list of recognized eras, earliest first.
type Calendar struct {
	eras []Era
}

// NewCalendar creates a Calendar. Eras must be listed earliest first and
// markers must be unique.
func NewCalendar(eras []Era) (*Calendar, error) {
	if len(eras) == 0 {
		return nil, errors.New("calendar needs at least one era")
	}
	seen := make(map[string]bool, len(eras))
	for _, e := range eras {
		if len(e.Marker) != 1 {
			return nil, fmt.Errorf("era marker %q must be one letter", e.Marker)
		}
		if seen[e.Marker] {
			return nil, fmt.Errorf("duplicate era marker %q", e.Marker)
		}
		seen[e.Marker] = true
	}
	return &Calendar{eras: slices.Clone(eras)}, nil
}

// Default returns a Calendar over DefaultEras.
func Default() *Calendar {
	c, _ := NewCalendar(DefaultEras)
	return c
}

// Eras returns the recognized eras, earliest first.
func (c *Calendar) Eras() []Era {
	return slices.Clone(c.eras)
}

// Code is a parsed fiscal-year code.
type Code struct {
	Raw      string
	EraIndex int
	Number   int
}

// Ordinal returns the code's position in the total order.
func (fc Code) Ordinal() int {
	return fc.EraIndex*EraSpan + fc.Number
}

// Parse splits a code into era and number. Unknown markers are never guessed.
func (c *Calendar) Parse(code string) (Code, error) {
	if len(code) < 2 {
		return Code{}, &UnknownEraError{Code: code, Reason: "expected era marker followed by a number"}
	}

	marker, digits := code[:1], code[1:]
	idx := slices.IndexFunc(c.eras, func(e Era) bool { return e.Marker == marker })
	if idx < 0 {
		return Code{}, &UnknownEraError{Code: code, Reason: fmt.Sprintf("unrecognized era marker %q", marker)}
	}

	if strings.ContainsFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) {
		return Code{}, &UnknownEraError{Code: code, Reason: fmt.Sprintf("invalid year number %q", digits)}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n >= EraSpan {
		return Code{}, &UnknownEraError{Code: code, Reason: fmt.Sprintf("year number %q out of range", digits)}
	}

	return Code{Raw: code, EraIndex: idx, Number: n}, nil
}

// Canonical returns the code's standard spelling, so "R01" becomes "R1".
func (c *Calendar) Canonical(code string) (string, error) {
	fc, err := c.Parse(code)
	if err != nil {
		return "", err
	}
	return c.Format(fc.EraIndex, fc.Number), nil
}

// Ordinal maps a code onto the total order.
func (c *Calendar) Ordinal(code string) (int, error) {
	fc, err := c.Parse(code)
	if err != nil {
		return 0, err
	}
	return fc.Ordinal(), nil
}

// Compare returns -1, 0 or +1 as a orders before, equal to, or after b.
func (c *Calendar) Compare(a, b string) (int, error) {
	oa, err := c.Ordinal(a)
	if err != nil {
		return 0, err
	}
	ob, err := c.Ordinal(b)
	if err != nil {
		return 0, err
	}
	switch {
	case oa < ob:
		return -1, nil
	case oa > ob:
		return 1, nil
	default:
		return 0, nil
	}
}

// Sort returns codes ordered by ordinal. The input is not modified.
func (c *Calendar) Sort(codes []string) ([]string, error) {
	parsed := make([]Code, len(codes))
	for i, code := range codes {
		fc, err := c.Parse(code)
		if err != nil {
			return nil, err
		}
		parsed[i] = fc
	}

	slices.SortStableFunc(parsed, func(a, b Code) int {
		return a.Ordinal() - b.Ordinal()
	})

	out := make([]string, len(parsed))
	for i, fc := range parsed {
		out[i] = fc.Raw
	}
	return out, nil
}

// Year returns the Gregorian year in which the fiscal year starts.
func (c *Calendar) Year(code string) (int, error) {
	fc, err := c.Parse(code)
	if err != nil {
		return 0, err
	}
	return c.eras[fc.EraIndex].Offset + fc.Number, nil
}

// Adjacent reports whether cur is the fiscal year immediately following prev.
// Within an era that is a suffix difference of one; across eras the Gregorian
// years decide, so H30 -> R1 and H31 -> R2 are adjacent.
func (c *Calendar) Adjacent(prev, cur string) (bool, error) {
	py, err := c.Year(prev)
	if err != nil {
		return false, err
	}
	cy, err := c.Year(cur)
	if err != nil {
		return false, err
	}
	return cy-py == 1, nil
}

// Format builds the code for the n-th year of the era at eraIndex.
func (c *Calendar) Format(eraIndex, n int) string {
	return c.eras[eraIndex].Marker + strconv.Itoa(n)
}

// Range lists consecutive fiscal years from..to inclusive. Where eras overlap
// (the last year of an era and the first of the next), the later era's code
// is used.
func (c *Calendar) Range(from, to string) ([]string, error) {
	fy, err := c.Year(from)
	if err != nil {
		return nil, err
	}
	ty, err := c.Year(to)
	if err != nil {
		return nil, err
	}
	if ty < fy {
		return nil, fmt.Errorf("range %s..%s is reversed", from, to)
	}

	var out []string
	for y := fy; y <= ty; y++ {
		code, ok := c.codeForYear(y)
		if !ok {
			return nil, fmt.Errorf("no era covers year %d", y)
		}
		out = append(out, code)
	}
	// Keep the caller's spelling of the endpoints.
	out[0] = from
	out[len(out)-1] = to
	return out, nil
}

func (c *Calendar) codeForYear(y int) (string, bool) {
	for i := len(c.eras) - 1; i >= 0; i-- {
		n := y - c.eras[i].Offset
		if n >= 1 && n < EraSpan {
			return c.Format(i, n), true
		}
	}
	return "", false
}
