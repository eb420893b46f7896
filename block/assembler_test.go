package block

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpp/blockpp/pperrors"
	"github.com/blockpp/blockpp/reader"
	"github.com/blockpp/blockpp/registry"
)

func assemble(t *testing.T, src string) (*Root, error) {
	t.Helper()
	dirs := registry.NewDirectives()
	require.NoError(t, registry.RegisterBuiltins(dirs))

	rd := reader.New(strings.NewReader(src), "test.bpp", '#', nil)
	asm := NewAssembler(dirs, "test.bpp")
	for {
		line, ok, err := rd.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		for _, item := range Recognize(line, '#', dirs) {
			if err := asm.Feed(item); err != nil {
				return nil, err
			}
		}
	}
	return asm.Finish()
}

func TestAssemblesConditionalWithElseIntoBranches(t *testing.T) {
	root, err := assemble(t, "#if X\nhi\n#else\nlo\n#endif\n")
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	cond, ok := root.Children[0].(Conditional)
	require.True(t, ok)
	require.Len(t, cond.Branches, 2)
	assert.Equal(t, If, cond.Branches[0].Kind)
	assert.Equal(t, Else, cond.Branches[1].Kind)
}

func TestAssemblesLoopBody(t *testing.T) {
	root, err := assemble(t, "#for x in range(2):\n$(x)\n#endfor\n")
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	loop, ok := root.Children[0].(Loop)
	require.True(t, ok)
	assert.Equal(t, "x in range(2):", loop.HeaderArg)
	require.Len(t, loop.Children, 1)
	_, ok = loop.Children[0].(Text)
	require.True(t, ok)
}

func TestMismatchedTransitionFailsWithBlockMismatch(t *testing.T) {
	_, err := assemble(t, "#for x in [1]:\n#else\n#endfor\n")
	require.Error(t, err)
	assert.True(t, pperrors.Is(err, pperrors.BlockMismatch))
}

func TestUnterminatedBlockFailsAtEOF(t *testing.T) {
	_, err := assemble(t, "#if X\nhi\n")
	require.Error(t, err)
	assert.True(t, pperrors.Is(err, pperrors.UnterminatedBlock))
}

func TestCloseWithNoOpenerFails(t *testing.T) {
	_, err := assemble(t, "#endif\n")
	require.Error(t, err)
	assert.True(t, pperrors.Is(err, pperrors.BlockMismatch))
}

func TestSingleDirectiveFlushesSurroundingText(t *testing.T) {
	root, err := assemble(t, "before\n#define X 1\nafter\n")
	require.NoError(t, err)
	require.Len(t, root.Children, 3)
	text1, ok := root.Children[0].(Text)
	require.True(t, ok)
	assert.Equal(t, "before", text1.Lines[0].Text)
	single, ok := root.Children[1].(Single)
	require.True(t, ok)
	assert.Equal(t, "define", single.Tag)
	assert.Equal(t, "X 1", single.Arg)
	text2, ok := root.Children[2].(Text)
	require.True(t, ok)
	assert.Equal(t, "after", text2.Lines[0].Text)
}

func TestNestedLoopsInsideConditional(t *testing.T) {
	root, err := assemble(t, "#if true\n#for x in [1]:\nv\n#endfor\n#endif\n")
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	cond := root.Children[0].(Conditional)
	require.Len(t, cond.Branches, 1)
	require.Len(t, cond.Branches[0].Children, 1)
	_, ok := cond.Branches[0].Children[0].(Loop)
	require.True(t, ok)
}
