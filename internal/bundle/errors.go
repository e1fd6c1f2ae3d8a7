package bundle

import "errors"

// Sentinel errors for bundle access
var (
	// ErrUnsupportedBundle indicates the path is neither a directory nor a
	// .zip/.hxs archive
	ErrUnsupportedBundle = errors.New("unsupported bundle path")

	// ErrManifestNotFound indicates the bundle has no manifest.json at its root
	ErrManifestNotFound = errors.New("manifest.json not found")

	// ErrSymlink indicates a declared entry is a symbolic link
	ErrSymlink = errors.New("symlink not allowed")

	// ErrEscapesRoot indicates a declared entry resolves outside the bundle
	ErrEscapesRoot = errors.New("entry escapes bundle root")

	// ErrMissingEntry indicates a declared entry is absent or not a regular file
	ErrMissingEntry = errors.New("missing entry file")

	// ErrMissingZipEntry indicates a declared entry has no archive member
	ErrMissingZipEntry = errors.New("missing entry file in zip")
)

// EntryError reports a declared entry that could not be read.
// Its message is the issue text reported for the entry.
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return e.Err.Error() + ": " + e.Path
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

func newEntryError(err error, path string) *EntryError {
	return &EntryError{Path: path, Err: err}
}
