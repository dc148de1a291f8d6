// Package refrange evaluates laboratory measurements against their reference
// ranges and renders the human-readable reference text shown next to a result.
package refrange

import (
	"strconv"
	"strings"
)

// Flag is the clinical classification of a measurement.
type Flag string

const (
	FlagLow    Flag = "low"
	FlagNormal Flag = "normal"
	FlagHigh   Flag = "high"
	FlagNA     Flag = "na"
)

// Abnormal reports whether the flag marks a value outside its range.
func (f Flag) Abnormal() bool {
	return f == FlagLow || f == FlagHigh
}

// ResultType distinguishes measured values from observed ones.
type ResultType string

const (
	Numeric     ResultType = "numeric"
	Qualitative ResultType = "qualitative"
)

// NotApplicable is rendered when a range carries no data at all.
const NotApplicable = "No aplica"

// Range is a reference range. At least one of Min, Max or Text is expected to
// be present; an empty range is tolerated and renders as NotApplicable.
type Range struct {
	Min  *float64 `json:"min,omitempty" toml:"min"`
	Max  *float64 `json:"max,omitempty" toml:"max"`
	Text string   `json:"text,omitempty" toml:"text"`
}

// Bounds builds a numeric range with both limits set.
func Bounds(min, max float64) Range {
	return Range{Min: &min, Max: &max}
}

// AtLeast builds a range with only a lower limit.
func AtLeast(min float64) Range {
	return Range{Min: &min}
}

// AtMost builds a range with only an upper limit.
func AtMost(max float64) Range {
	return Range{Max: &max}
}

// Empty reports whether the range has no min, max or text.
func (r Range) Empty() bool {
	return r.Min == nil && r.Max == nil && r.Text == ""
}

// EvaluateNumeric classifies value against r. The lower bound is checked
// first, so a value is never both low and high. Values equal to a bound are
// normal.
func EvaluateNumeric(value float64, r Range) Flag {
	if r.Min != nil && value < *r.Min {
		return FlagLow
	}
	if r.Max != nil && value > *r.Max {
		return FlagHigh
	}
	return FlagNormal
}

// EvaluateQualitative compares an observed value with the expected text.
// Comparison ignores case and surrounding whitespace. A mismatch is flagged
// high; there is no dedicated qualitative "abnormal" flag.
func EvaluateQualitative(value, expected string) Flag {
	if expected == "" {
		return FlagNA
	}
	if strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(expected)) {
		return FlagNormal
	}
	return FlagHigh
}

// Evaluate dispatches on the result type. Qualitative values are compared
// with r.Text. A numeric result without a value cannot be classified.
func Evaluate(t ResultType, numeric *float64, text string, r Range) Flag {
	switch t {
	case Numeric:
		if numeric == nil {
			return FlagNA
		}
		return EvaluateNumeric(*numeric, r)
	case Qualitative:
		return EvaluateQualitative(text, r.Text)
	default:
		return FlagNA
	}
}

// FormatReferenceText renders r for display. Explicit text wins over numeric
// bounds; unit is appended to numeric renderings when present.
func FormatReferenceText(r Range, unit string) string {
	if r.Text != "" {
		return r.Text
	}
	suffix := ""
	if unit != "" {
		suffix = " " + unit
	}
	switch {
	case r.Min != nil && r.Max != nil:
		return formatNumber(*r.Min) + " - " + formatNumber(*r.Max) + suffix
	case r.Min != nil:
		return ">= " + formatNumber(*r.Min) + suffix
	case r.Max != nil:
		return "<= " + formatNumber(*r.Max) + suffix
	default:
		return NotApplicable
	}
}

// formatNumber prints the shortest decimal that round-trips, so 70 renders as
// "70" and 1.005 as "1.005".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
