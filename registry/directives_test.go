package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpp/blockpp/pperrors"
)

func TestRegisterBuiltinsCoversConditionalAndLoopFamilies(t *testing.T) {
	d := NewDirectives()
	require.NoError(t, RegisterBuiltins(d))

	ifDesc, ok := d.Lookup("if")
	require.True(t, ok)
	assert.Equal(t, BlockOpen, ifDesc.Role)
	assert.Equal(t, "conditional", ifDesc.Family)

	elifndefDesc, ok := d.Lookup("elifndef")
	require.True(t, ok)
	assert.Equal(t, BlockTransition, elifndefDesc.Role)
	assert.Equal(t, "conditional", elifndefDesc.Family)
	assert.Equal(t, ConditionNotDefined, elifndefDesc.Condition)

	forDesc, ok := d.Lookup("for")
	require.True(t, ok)
	assert.Equal(t, "loop", forDesc.Family)

	_, ok = d.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestRegisterAfterLockFails(t *testing.T) {
	d := NewDirectives()
	require.NoError(t, RegisterBuiltins(d))
	assert.False(t, d.Locked())
	d.Lock()
	assert.True(t, d.Locked())

	err := d.Register(Descriptor{Tag: "custom", Role: Single})
	require.Error(t, err)
	assert.True(t, pperrors.Is(err, pperrors.RegistryLocked))

	// Lock is idempotent: locking an already-locked registry changes nothing.
	d.Lock()
	assert.True(t, d.Locked())
}

func TestElseIsAlwaysTruthyAndSharesConditionalFamily(t *testing.T) {
	d := NewDirectives()
	require.NoError(t, RegisterBuiltins(d))

	elseDesc, ok := d.Lookup("else")
	require.True(t, ok)
	assert.Equal(t, ConditionAlways, elseDesc.Condition)
	assert.Equal(t, "conditional", elseDesc.Family)
}
