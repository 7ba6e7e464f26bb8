package model

import "math"

// Add returns a+b, or false when the sum does not fit in int64.
func Add(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// Sub returns a-b, or false when the difference does not fit in int64.
func Sub(a, b int64) (int64, bool) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, false
	}
	return a - b, true
}

// SaturatingSub is a-b clamped to the int64 range.
func SaturatingSub(a, b int64) int64 {
	if d, ok := Sub(a, b); ok {
		return d
	}
	if a > b {
		return math.MaxInt64
	}
	return math.MinInt64
}

// WithinTolerance reports whether |a-b| <= tol. A difference that does not
// fit in int64 is never within tolerance.
func WithinTolerance(a, b, tol int64) bool {
	d, ok := Sub(a, b)
	if !ok || d == math.MinInt64 {
		return false
	}
	if d < 0 {
		d = -d
	}
	return d <= tol
}
