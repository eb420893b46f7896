package evalctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpp/blockpp/expr"
	"github.com/blockpp/blockpp/logsink"
	"github.com/blockpp/blockpp/pperrors"
)

func TestDefineAndLookupThroughParentChain(t *testing.T) {
	root := NewRoot(nil, logsink.Discard{})
	root.Define("A", "1")
	child := root.Fork(true)
	assert.True(t, child.IsDefined("A"))
	v, err := child.Eval("A + 1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int)
}

func TestRecursiveDefineEvaluatesLazily(t *testing.T) {
	root := NewRoot(nil, logsink.Discard{})
	root.Define("A", "1")
	root.Define("B", "2")
	root.Define("S", "(A + B)")
	v, err := root.Eval("S")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int)
}

func TestSubstitutionLoopDetectedOnSelfReference(t *testing.T) {
	root := NewRoot(nil, logsink.Discard{})
	root.Define("A", "A")
	_, err := root.Eval("A")
	require.Error(t, err)
	assert.True(t, pperrors.Is(err, pperrors.SubstitutionLoop))
}

func TestJoinPropagatesChildDefinesToParent(t *testing.T) {
	root := NewRoot(nil, logsink.Discard{})
	child := root.Fork(true)
	child.Define("X", "5")
	root.Join(child)
	assert.True(t, root.IsDefined("X"))
	v, err := root.Eval("X")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int)
}

func TestLoopChildDiscardedNeverJoinedStaysInvisible(t *testing.T) {
	root := NewRoot(nil, logsink.Discard{})
	child := root.Fork(true)
	child.Define("Y", "1")
	// no Join call: loop iterations discard their fork.
	assert.False(t, root.IsDefined("Y"))
}

func TestUndefRemovesFromNearestOwningAncestor(t *testing.T) {
	root := NewRoot(nil, logsink.Discard{})
	root.Define("FLAG", "")
	child := root.Fork(true)
	child.Undef("FLAG")
	assert.False(t, child.IsDefined("FLAG"))
	assert.False(t, root.IsDefined("FLAG"))
}

func TestForkEnabledIsConjunctionOfParentAndBlock(t *testing.T) {
	root := NewRoot(nil, logsink.Discard{})
	enabledChild := root.Fork(true)
	assert.True(t, enabledChild.Enabled())

	disabledChild := enabledChild.Fork(false)
	assert.False(t, disabledChild.Enabled())

	grandchild := disabledChild.Fork(true)
	assert.False(t, grandchild.Enabled(), "parent disabled should stay disabled even if this block's own gate is true")
}

func TestEmptyDefineIsDefinedButEvaluatesToEmptyString(t *testing.T) {
	root := NewRoot(nil, logsink.Discard{})
	root.Define("FLAG", "")
	assert.True(t, root.IsDefined("FLAG"))
	v, err := root.Eval("FLAG")
	require.NoError(t, err)
	assert.Equal(t, "", v.Str)
}

func TestLiteralRoundTripsThroughEval(t *testing.T) {
	root := NewRoot(nil, logsink.Discard{})
	root.Define("N", Literal(expr.IntValue(42)))
	got, err := root.Eval("N")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Int)

	root.Define("NAME", Literal(expr.StringValue("a b")))
	got, err = root.Eval("NAME")
	require.NoError(t, err)
	assert.Equal(t, "a b", got.Str)

	root.Define("XS", Literal(expr.ListValue([]expr.Value{expr.IntValue(1), expr.IntValue(2)})))
	got, err = root.Eval("1 in XS")
	require.NoError(t, err)
	assert.True(t, got.Bool)
}
