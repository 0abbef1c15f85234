package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEval_Comparisons covers every comparison operator.
func TestEval_Comparisons(t *testing.T) {
	vars := map[string]any{
		"plan":   "pro",
		"visits": 5,
		"score":  2.5,
		"tags":   "billing,upgrade",
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"plan == 'pro'", true},
		{"plan == 'free'", false},
		{"plan != 'free'", true},
		{"visits > 3", true},
		{"visits > 5", false},
		{"visits >= 5", true},
		{"visits < 10", true},
		{"visits <= 4", false},
		{"score >= 2.5", true},
		{"tags contains 'billing'", true},
		{"tags contains 'refund'", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestEval_Combinators covers and/or/not.
func TestEval_Combinators(t *testing.T) {
	vars := map[string]any{"vip": true, "visits": 2}

	tests := []struct {
		expr string
		want bool
	}{
		{"vip and visits > 1", true},
		{"vip and visits > 5", false},
		{"vip or visits > 5", true},
		{"not vip", false},
		{"!vip", false},
		{"not visits > 5", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestEval_Truthiness covers bare operands.
func TestEval_Truthiness(t *testing.T) {
	tests := []struct {
		name string
		expr string
		vars map[string]any
		want bool
	}{
		{"true literal", "true", nil, true},
		{"false literal", "false", nil, false},
		{"empty predicate", "", nil, false},
		{"set string var", "name", map[string]any{"name": "Ada"}, true},
		{"empty string var", "name", map[string]any{"name": ""}, false},
		{"zero var", "count", map[string]any{"count": 0}, false},
		{"null literal", "null", nil, false},
		{"unknown var is its own spelling", "mystery", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(tt.expr, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestResolve covers literal and variable resolution.
func TestResolve(t *testing.T) {
	vars := map[string]any{"city": "Lisbon"}

	assert.Equal(t, "pro", Resolve("'pro'", vars))
	assert.Equal(t, "pro", Resolve(`"pro"`, vars))
	assert.Equal(t, int64(42), Resolve("42", vars))
	assert.Equal(t, 2.5, Resolve("2.5", vars))
	assert.Equal(t, true, Resolve("true", vars))
	assert.Nil(t, Resolve("null", vars))
	assert.Equal(t, "Lisbon", Resolve("city", vars))
	assert.Equal(t, "unknown", Resolve("unknown", vars))
}
