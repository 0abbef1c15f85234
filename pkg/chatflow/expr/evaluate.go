package expr

import (
	"fmt"
	"strings"
)

// comparator compares two resolved operands.
type comparator func(left, right any) bool

// comparators in match order: longer operators first so "<" never
// shadows "<=".
var comparators = []struct {
	op  string
	cmp comparator
}{
	{"==", func(l, r any) bool { return fmt.Sprintf("%v", l) == fmt.Sprintf("%v", r) }},
	{"!=", func(l, r any) bool { return fmt.Sprintf("%v", l) != fmt.Sprintf("%v", r) }},
	{">=", func(l, r any) bool { return toFloat64(l) >= toFloat64(r) }},
	{"<=", func(l, r any) bool { return toFloat64(l) <= toFloat64(r) }},
	{">", func(l, r any) bool { return toFloat64(l) > toFloat64(r) }},
	{"<", func(l, r any) bool { return toFloat64(l) < toFloat64(r) }},
	{" contains ", func(l, r any) bool {
		return strings.Contains(fmt.Sprintf("%v", l), fmt.Sprintf("%v", r))
	}},
}

// Eval evaluates a predicate against the given variables. An empty
// predicate is false. Unknown variables resolve to their literal
// spelling, matching the authoring tool's permissive semantics.
func Eval(predicate string, vars map[string]any) (bool, error) {
	predicate = strings.TrimSpace(predicate)
	if predicate == "" {
		return false, nil
	}

	// Negation prefixes.
	if rest, ok := strings.CutPrefix(predicate, "not "); ok {
		result, err := Eval(rest, vars)
		return !result, err
	}
	if rest, ok := strings.CutPrefix(predicate, "!"); ok {
		result, err := Eval(rest, vars)
		return !result, err
	}

	// Boolean combinators, split on the first occurrence.
	if left, right, ok := strings.Cut(predicate, " and "); ok {
		l, err := Eval(left, vars)
		if err != nil {
			return false, err
		}
		r, err := Eval(right, vars)
		if err != nil {
			return false, err
		}
		return l && r, nil
	}
	if left, right, ok := strings.Cut(predicate, " or "); ok {
		l, err := Eval(left, vars)
		if err != nil {
			return false, err
		}
		r, err := Eval(right, vars)
		if err != nil {
			return false, err
		}
		return l || r, nil
	}

	for _, c := range comparators {
		if left, right, ok := strings.Cut(predicate, c.op); ok {
			l := Resolve(strings.TrimSpace(left), vars)
			r := Resolve(strings.TrimSpace(right), vars)
			return c.cmp(l, r), nil
		}
	}

	// Bare operand: truthiness of the resolved value.
	return IsTruthy(Resolve(predicate, vars)), nil
}
