package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"
)

// Stage orders constraint evaluation across fields.
type Stage int

const (
	StagePattern Stage = iota + 1
	StageBounds
	StageLength
)

// Constraint is one composable predicate over a coerced value.
type Constraint struct {
	name     string
	stage    Stage
	message  string
	check    func(v any) bool
	annotate func(prop map[string]any)
}

// Name returns the constraint identifier reported in validation errors.
func (c Constraint) Name() string { return c.name }

var digitsPattern = regexp.MustCompile(`^\d+$`)

// Digits requires a non-empty all-digit string.
func Digits() Constraint {
	return Constraint{
		name:    "pattern",
		stage:   StagePattern,
		message: "must be a numeric identifier (digits only)",
		check: func(v any) bool {
			s, ok := v.(string)
			return ok && digitsPattern.MatchString(s)
		},
		annotate: func(prop map[string]any) { prop["pattern"] = digitsPattern.String() },
	}
}

// Min requires a numeric value >= n.
func Min(n float64) Constraint {
	return Constraint{
		name:     "minimum",
		stage:    StageBounds,
		message:  "must be greater than or equal to " + formatNumber(n),
		check:    func(v any) bool { f, ok := asFloat(v); return ok && f >= n },
		annotate: func(prop map[string]any) { prop["minimum"] = n },
	}
}

// ExclusiveMin requires a numeric value > n.
func ExclusiveMin(n float64) Constraint {
	return Constraint{
		name:     "exclusiveMinimum",
		stage:    StageBounds,
		message:  "must be greater than " + formatNumber(n),
		check:    func(v any) bool { f, ok := asFloat(v); return ok && f > n },
		annotate: func(prop map[string]any) { prop["exclusiveMinimum"] = n },
	}
}

// Max requires a numeric value <= n.
func Max(n float64) Constraint {
	return Constraint{
		name:     "maximum",
		stage:    StageBounds,
		message:  "must be less than or equal to " + formatNumber(n),
		check:    func(v any) bool { f, ok := asFloat(v); return ok && f <= n },
		annotate: func(prop map[string]any) { prop["maximum"] = n },
	}
}

// MinLength requires a string of at least n characters.
func MinLength(n int) Constraint {
	return Constraint{
		name:    "minLength",
		stage:   StageLength,
		message: fmt.Sprintf("must be at least %d characters", n),
		check: func(v any) bool {
			s, ok := v.(string)
			return ok && utf8.RuneCountInString(s) >= n
		},
		annotate: func(prop map[string]any) { prop["minLength"] = n },
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
