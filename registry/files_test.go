package registry

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpp/blockpp/pperrors"
)

func mustWriteFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func readAllFromOpener(t *testing.T, open Opener) string {
	t.Helper()
	rc, err := open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestRegisterDuplicateFails(t *testing.T) {
	f := NewFiles()
	require.NoError(t, f.Register("a.bpp", func() (io.ReadCloser, error) { return nil, nil }))

	err := f.Register("a.bpp", func() (io.ReadCloser, error) { return nil, nil })
	require.Error(t, err)
	assert.True(t, pperrors.Is(err, pperrors.DuplicateRegistration))
}

func TestResolveExactRegisteredNameWins(t *testing.T) {
	f := NewFiles()
	require.NoError(t, f.Register("macros.bpp", func() (io.ReadCloser, error) {
		return io.NopCloser(nil), nil
	}))

	entry, err := f.Resolve("macros.bpp", "/somewhere/else")
	require.NoError(t, err)
	assert.Equal(t, "macros.bpp", entry.Name)
}

func TestResolveFallsBackToOriginDirThenSearchRoots(t *testing.T) {
	dir := t.TempDir()
	originDir := filepath.Join(dir, "src")
	searchRoot := filepath.Join(dir, "vendor")

	mustWriteFile(t, filepath.Join(searchRoot, "shared.bpp"), "from vendor")
	mustWriteFile(t, filepath.Join(originDir, "local.bpp"), "from origin")

	f := NewFiles()
	f.AddSearchRoot(searchRoot)

	entry, err := f.Resolve("local.bpp", originDir)
	require.NoError(t, err)
	assert.Equal(t, "from origin", readAllFromOpener(t, entry.Open))

	entry, err = f.Resolve("shared.bpp", originDir)
	require.NoError(t, err)
	assert.Equal(t, "from vendor", readAllFromOpener(t, entry.Open))
}

func TestResolveUnknownFileFails(t *testing.T) {
	f := NewFiles()
	_, err := f.Resolve("missing.bpp", t.TempDir())
	require.Error(t, err)
	assert.True(t, pperrors.Is(err, pperrors.FileNotFound))
}

func TestImportFlagIsMonotonic(t *testing.T) {
	f := NewFiles()
	require.NoError(t, f.Register("once.bpp", func() (io.ReadCloser, error) { return nil, nil }))

	assert.False(t, f.WasImported("once.bpp"))
	f.MarkImported("once.bpp")
	assert.True(t, f.WasImported("once.bpp"))
}

func TestRegisterTreeFiltersByGlobAndRegistersRelativePaths(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "a.bpp"), "a")
	mustWriteFile(t, filepath.Join(dir, "nested", "b.bpp"), "b")
	mustWriteFile(t, filepath.Join(dir, "notes.txt"), "ignore me")

	f := NewFiles()
	require.NoError(t, f.RegisterTree(dir, []string{"**/*.bpp"}, nil))

	entry, err := f.Resolve("a.bpp", "")
	require.NoError(t, err)
	assert.Equal(t, "a", readAllFromOpener(t, entry.Open))

	entry, err = f.Resolve("nested/b.bpp", "")
	require.NoError(t, err)
	assert.Equal(t, "b", readAllFromOpener(t, entry.Open))

	_, err = f.Resolve("notes.txt", "")
	require.Error(t, err)
}

func TestRegisterTreeHonorsExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "keep.bpp"), "keep")
	mustWriteFile(t, filepath.Join(dir, "generated", "skip.bpp"), "skip")

	f := NewFiles()
	require.NoError(t, f.RegisterTree(dir, []string{"**/*.bpp"}, []string{"generated/**"}))

	_, err := f.Resolve("keep.bpp", "")
	require.NoError(t, err)

	_, err = f.Resolve("generated/skip.bpp", "")
	require.Error(t, err)
	assert.True(t, pperrors.Is(err, pperrors.FileNotFound))
}

func TestRegisterAndRegisterTreeFailAfterLock(t *testing.T) {
	f := NewFiles()
	f.Lock()

	err := f.Register("a.bpp", func() (io.ReadCloser, error) { return nil, nil })
	require.Error(t, err)
	assert.True(t, pperrors.Is(err, pperrors.RegistryLocked))

	err = f.RegisterTree(t.TempDir(), nil, nil)
	require.Error(t, err)
	assert.True(t, pperrors.Is(err, pperrors.RegistryLocked))
}
