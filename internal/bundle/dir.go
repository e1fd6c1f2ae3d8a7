package bundle

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/quantmind-br/bundlecheck/internal/manifest"
)

// dirSource reads a bundle laid out as a plain directory
type dirSource struct {
	path string
	abs  string
	root string // abs with every symlink resolved
}

func openDir(path string) (*dirSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve bundle dir: %w", err)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve bundle dir: %w", err)
	}
	return &dirSource{path: path, abs: abs, root: root}, nil
}

func (s *dirSource) Path() string {
	return s.path
}

func (s *dirSource) ReadManifest() ([]byte, error) {
	p := filepath.Join(s.path, manifest.FileName)
	if _, err := os.Stat(p); err != nil {
		return nil, fmt.Errorf("%w in dir: %s", ErrManifestNotFound, s.path)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return data, nil
}

func (s *dirSource) OpenEntry(path string) (io.ReadCloser, error) {
	rel, err := manifest.NormalizePath(path)
	if err != nil {
		return nil, err
	}

	candidate := filepath.Join(s.abs, filepath.FromSlash(rel))
	if info, err := os.Lstat(candidate); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		return nil, newEntryError(ErrSymlink, rel)
	}

	resolved := resolvePath(candidate)
	if !within(s.root, resolved) {
		return nil, newEntryError(ErrEscapesRoot, rel)
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return nil, newEntryError(ErrMissingEntry, rel)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", rel, err)
	}
	return f, nil
}

func (s *dirSource) ListFiles() ([]string, []string, error) {
	var files, issues []string

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == s.root {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			issues = append(issues, "symlink not allowed in bundle: "+rel)
		case d.Type().IsRegular():
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk bundle dir: %w", err)
	}

	return files, issues, nil
}

func (s *dirSource) Close() error {
	return nil
}

// resolvePath resolves every symlink along p. Components that do not exist
// are appended unresolved to the deepest existing ancestor.
func resolvePath(p string) string {
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved
	}
	if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
		return p
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p
	}
	return filepath.Join(resolvePath(parent), filepath.Base(p))
}

// within reports whether target is root or lies beneath it
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
