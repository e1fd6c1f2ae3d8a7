package bundle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantmind-br/bundlecheck/internal/manifest"
)

// Source gives read access to the files of a bundle
type Source interface {
	// Path returns the bundle location as given to Open
	Path() string
	// ReadManifest returns the raw bytes of manifest.json
	ReadManifest() ([]byte, error)
	// OpenEntry opens a declared entry by its normalized path.
	// Entry-level failures are returned as *EntryError.
	OpenEntry(path string) (io.ReadCloser, error)
	// ListFiles returns every regular file in the bundle as a slash path,
	// plus one issue per symbolic link found.
	ListFiles() (files []string, issues []string, err error)
	// Close releases the underlying handles
	Close() error
}

// archiveExtensions lists the file suffixes read as zip archives
var archiveExtensions = map[string]bool{
	".zip": true,
	".hxs": true,
}

// IsArchive reports whether path names a zip-format bundle
func IsArchive(path string) bool {
	return archiveExtensions[strings.ToLower(filepath.Ext(path))]
}

// Open returns the Source for a bundle directory or archive
func Open(path string) (Source, error) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return openDir(path)
	}
	if err == nil && info.Mode().IsRegular() && IsArchive(path) {
		return openZip(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedBundle, path)
}

// LoadManifest reads and parses the manifest of an open source
func LoadManifest(src Source) (*manifest.Manifest, error) {
	data, err := src.ReadManifest()
	if err != nil {
		return nil, err
	}
	return manifest.ParseBytes(data)
}

// ReadManifest opens the bundle at path and returns its parsed manifest
func ReadManifest(path string) (*manifest.Manifest, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return LoadManifest(src)
}
