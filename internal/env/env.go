package env

import (
	"os"
	"path/filepath"
)

// Directory layout below the project root:
//
//	imported/
//	  <name>/              # source trees
//	  .stamps.json         # last pinned revision per source tree
//	  build/<name>/        # build trees
//	  installed/<name>/    # install trees
//
// The main project's own configure step locates dependencies through the
// install trees, so these paths must stay stable.
const (
	ImportedDir  = "imported"
	BuildDir     = "build"
	InstalledDir = "installed"
	StampsFile   = ".stamps.json"
)

// Layout resolves the fixed directory layout for one project root.
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// Imported returns the directory holding all source trees.
func (l Layout) Imported() string {
	return filepath.Join(l.Root, ImportedDir)
}

// SourceDir returns the source tree of name.
func (l Layout) SourceDir(name string) string {
	return filepath.Join(l.Imported(), name)
}

// BuildDir returns the build tree of name.
func (l Layout) BuildDir(name string) string {
	return filepath.Join(l.Imported(), BuildDir, name)
}

// InstallDir returns the install tree of name.
func (l Layout) InstallDir(name string) string {
	return filepath.Join(l.Imported(), InstalledDir, name)
}

// StampsPath returns the stamp file recording pinned revisions.
func (l Layout) StampsPath() string {
	return filepath.Join(l.Imported(), StampsFile)
}

// EnsureImported creates the imported directory if needed and returns it.
func (l Layout) EnsureImported() (string, error) {
	dir := l.Imported()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
