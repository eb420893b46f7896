package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExpandCommandStreamsExpandedOutput(t *testing.T) {
	dir := t.TempDir()
	root := writeTemp(t, dir, "root.bpp", "#define X 3\n#if X > 2\nhi\n#endif\n")

	var out, errOut bytes.Buffer
	code := Run([]string{"expand", root}, &out, &errOut)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hi\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestExpandCommandAppliesDefineFlag(t *testing.T) {
	dir := t.TempDir()
	root := writeTemp(t, dir, "root.bpp", "v=$(N)\n")

	var out, errOut bytes.Buffer
	code := Run([]string{"expand", "-D", "N=5", root}, &out, &errOut)
	assert.Equal(t, 0, code)
	assert.Equal(t, "v=5\n", out.String())
}

func TestExpandCommandReportsUserErrorKindAndNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	root := writeTemp(t, dir, "root.bpp", "before\n#error boom\n")

	var out, errOut bytes.Buffer
	code := Run([]string{"expand", root}, &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Equal(t, "before\n", out.String())
	assert.Contains(t, errOut.String(), "UserError")
}

func TestExpandCommandResolvesIncludeFromSearchRoot(t *testing.T) {
	dir := t.TempDir()
	includeDir := filepath.Join(dir, "lib")
	require.NoError(t, os.Mkdir(includeDir, 0o755))
	writeTemp(t, includeDir, "shared.bpp", "hello\n")
	root := writeTemp(t, dir, "root.bpp", "#include \"shared.bpp\"\n")

	var out, errOut bytes.Buffer
	code := Run([]string{"expand", "-I", includeDir, root}, &out, &errOut)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestExpandCommandLoadsManifestDefines(t *testing.T) {
	dir := t.TempDir()
	root := writeTemp(t, dir, "root.bpp", "v=$(GREETING)\n")
	manifestPath := writeTemp(t, dir, "project.yaml", "defines:\n  GREETING: \"\\\"hi\\\"\"\n")

	var out, errOut bytes.Buffer
	code := Run([]string{"expand", "--manifest", manifestPath, root}, &out, &errOut)
	assert.Equal(t, 0, code)
	assert.Equal(t, "v=hi\n", out.String())
	assert.Empty(t, errOut.String())
}
