package registry

import (
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/blockpp/blockpp/pperrors"
)

// Opener lazily produces a readable source for a registered file. It is
// called each time the file is actually expanded (see §5's "file handles
// open lazily"), so a file included twice is opened twice, and each
// returned ReadCloser is closed by the caller once exhausted.
type Opener func() (io.ReadCloser, error)

// FileEntry is what Resolve hands back: the canonical name the file was
// registered or discovered under, and its Opener.
type FileEntry struct {
	Name string
	Open Opener
}

type fileSlot struct {
	entry    FileEntry
	imported bool
}

// Files is the File Registry (§4.1): a name-to-source mapping plus the
// monotonic "was imported" flag that gives `import` its once-only semantics.
// Like Directives, it locks once expansion begins.
type Files struct {
	byName      map[string]*fileSlot
	searchRoots []string
	locked      bool
}

// NewFiles returns an empty File Registry.
func NewFiles() *Files {
	return &Files{byName: make(map[string]*fileSlot)}
}

// AddSearchRoot appends dir to the ordered list of directories Resolve falls
// back to after an exact name match and an origin-dir-relative match fail.
// It has no effect once Lock has been called.
func (f *Files) AddSearchRoot(dir string) {
	if f.locked {
		return
	}
	f.searchRoots = append(f.searchRoots, dir)
}

// Lock prevents further registration or search-root changes.
func (f *Files) Lock() { f.locked = true }

// Register associates name with opener. Fails with DuplicateRegistration if
// name is already registered, or RegistryLocked if called after Lock.
func (f *Files) Register(name string, opener Opener) error {
	if f.locked {
		return pperrors.Newf(pperrors.RegistryLocked, "cannot register file %q: registry is locked", name)
	}
	if _, exists := f.byName[name]; exists {
		return pperrors.Newf(pperrors.DuplicateRegistration, "file %q is already registered", name)
	}
	f.byName[name] = &fileSlot{entry: FileEntry{Name: name, Open: opener}}
	return nil
}

// registerDiskFile registers name as an Opener that lazily os.Opens path. It
// is a no-op (not an error) if name is already registered, so repeated
// resolution of the same on-disk path is idempotent.
func (f *Files) registerDiskFile(name, path string) *fileSlot {
	if slot, exists := f.byName[name]; exists {
		return slot
	}
	slot := &fileSlot{entry: FileEntry{Name: name, Open: func() (io.ReadCloser, error) {
		file, err := os.Open(path)
		if err != nil {
			return nil, pperrors.Wrap(pperrors.IOFailure, err, "opening "+path)
		}
		return file, nil
	}}}
	f.byName[name] = slot
	return slot
}

// RegisterTree walks root and registers every regular file whose path
// (relative to root, slash-separated) matches include and none of exclude,
// under that relative path as its name. Patterns use doublestar glob syntax
// (so "**/*.bpp" matches at any depth), the same convention gazelle_cc's
// language/cc/imports.go uses for its own header-glob filtering via
// doublestar.ValidatePattern/doublestar.Match.
func (f *Files) RegisterTree(root string, include, exclude []string) error {
	if f.locked {
		return pperrors.Newf(pperrors.RegistryLocked, "cannot register tree %q: registry is locked", root)
	}
	for _, pattern := range include {
		if err := doublestar.ValidatePattern(pattern); err != nil {
			return pperrors.Wrap(pperrors.UserError, err, "invalid include pattern "+pattern)
		}
	}
	for _, pattern := range exclude {
		if err := doublestar.ValidatePattern(pattern); err != nil {
			return pperrors.Wrap(pperrors.UserError, err, "invalid exclude pattern "+pattern)
		}
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return pperrors.Wrap(pperrors.IOFailure, err, "walking "+root)
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return pperrors.Wrap(pperrors.IOFailure, err, "computing relative path for "+path)
		}
		rel = filepath.ToSlash(rel)

		if len(include) > 0 && !matchesAny(include, rel) {
			return nil
		}
		if matchesAny(exclude, rel) {
			return nil
		}

		if _, exists := f.byName[rel]; exists {
			return pperrors.Newf(pperrors.DuplicateRegistration, "file %q is already registered", rel)
		}
		f.registerDiskFile(rel, path)
		return nil
	})
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Resolve looks up name, trying in order: an exact registered name, a path
// relative to originDir (the directory of the file containing the include/
// import directive), then each configured search root in registration order.
// The first candidate that is either already registered or exists on disk
// wins and is returned (registering it on demand if it was found on disk).
// Fails with FileNotFound if none match.
func (f *Files) Resolve(name, originDir string) (FileEntry, error) {
	if slot, ok := f.byName[name]; ok {
		return slot.entry, nil
	}

	candidates := make([]string, 0, 1+len(f.searchRoots))
	if originDir != "" {
		candidates = append(candidates, filepath.Join(originDir, name))
	}
	for _, root := range f.searchRoots {
		candidates = append(candidates, filepath.Join(root, name))
	}

	for _, candidate := range candidates {
		key := filepath.ToSlash(candidate)
		if slot, ok := f.byName[key]; ok {
			return slot.entry, nil
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			slot := f.registerDiskFile(key, candidate)
			return slot.entry, nil
		}
	}

	return FileEntry{}, pperrors.Newf(pperrors.FileNotFound, "cannot resolve %q", name)
}

// MarkImported sets the "was imported" flag for name, which must already be
// known to the registry (resolved or registered).
func (f *Files) MarkImported(name string) {
	if slot, ok := f.byName[name]; ok {
		slot.imported = true
	}
}

// WasImported reports whether name has previously been imported.
func (f *Files) WasImported(name string) bool {
	slot, ok := f.byName[name]
	return ok && slot.imported
}
