package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapEnv map[string]Value

func (m mapEnv) Lookup(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

func evalBool(t *testing.T, src string, env Env) bool {
	t.Helper()
	result, err := Evaluate(src, env)
	require.NoError(t, err)
	return result
}

func TestArithmeticAndComparisonPrecedence(t *testing.T) {
	env := mapEnv{"X": IntValue(3)}
	assert.True(t, evalBool(t, "X * 2 == 6", env))
	assert.True(t, evalBool(t, "1 + 2 * 2 == 5", env))
	assert.False(t, evalBool(t, "X > 2 && X < 2", env))
	assert.True(t, evalBool(t, "X > 2 || X < 0", env))
}

func TestLogicalShortCircuitDoesNotEvaluateUndefinedRight(t *testing.T) {
	env := mapEnv{"X": IntValue(0)}
	assert.False(t, evalBool(t, "X && undefined_name", env))
	assert.True(t, evalBool(t, "!X || undefined_name", env))
}

func TestDefinedPredicate(t *testing.T) {
	env := mapEnv{"X": IntValue(1)}
	assert.True(t, evalBool(t, "defined(X)", env))
	assert.True(t, evalBool(t, "defined(Y) == false", env))
	assert.True(t, evalBool(t, "!defined(Y)", env))
}

func TestStringComparisonAndConcatenation(t *testing.T) {
	env := mapEnv{"NAME": StringValue("alice")}
	assert.True(t, evalBool(t, `NAME == "alice"`, env))
	assert.True(t, evalBool(t, `NAME + "!" == "alice!"`, env))
}

func TestListLiteralAndMembership(t *testing.T) {
	env := mapEnv{"X": IntValue(2)}
	assert.True(t, evalBool(t, "X in [1, 2, 3]", env))
	assert.False(t, evalBool(t, "X in [1, 3]", env))
	assert.True(t, evalBool(t, `"li" in "alice"`, env))
}

func TestRangeBuiltin(t *testing.T) {
	tree, err := Parse("range(0, 3)")
	require.NoError(t, err)
	v, err := tree.Eval(mapEnv{})
	require.NoError(t, err)
	require.Equal(t, KindList, v.Kind)
	require.Len(t, v.List, 3)
	assert.Equal(t, int64(0), v.List[0].Int)
	assert.Equal(t, int64(2), v.List[2].Int)
}

func TestRangeSingleArgDefaultsStartAndStep(t *testing.T) {
	tree, err := Parse("range(3)")
	require.NoError(t, err)
	v, err := tree.Eval(mapEnv{})
	require.NoError(t, err)
	require.Len(t, v.List, 3)
}

func TestUndefinedIdentifierFails(t *testing.T) {
	_, err := Evaluate("MISSING == 1", mapEnv{})
	require.Error(t, err)
}

func TestChainedComparisonsParseLeftAssociativeNotChained(t *testing.T) {
	// a < b < c parses as (a < b) < c, per the documented open-question
	// decision; comparing a bool to an int is a type mismatch, not a syntax
	// error, and not a three-way chained comparison.
	env := mapEnv{"a": IntValue(1), "b": IntValue(2), "c": IntValue(3)}
	_, err := Evaluate("a < b < c", env)
	require.Error(t, err)
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	env := mapEnv{}
	assert.True(t, evalBool(t, "(1 + 2) * 2 == 6", env))
}

func TestKeywordLogicalOperatorsMatchSymbolicOnes(t *testing.T) {
	env := mapEnv{"X": IntValue(3)}
	assert.True(t, evalBool(t, "X > 2 and X < 5", env))
	assert.True(t, evalBool(t, "X < 0 or X > 2", env))
	assert.True(t, evalBool(t, "not (X < 0)", env))
}

func TestUnaryMinus(t *testing.T) {
	env := mapEnv{"X": IntValue(5)}
	assert.True(t, evalBool(t, "-X == 0 - 5", env))
}
