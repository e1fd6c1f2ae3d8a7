package bundle

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/quantmind-br/bundlecheck/internal/manifest"
)

// zipSource reads a bundle packed as a zip archive (.zip or .hxs)
type zipSource struct {
	path    string
	reader  *zip.ReadCloser
	members map[string]*zip.File
}

func openZip(path string) (*zipSource, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle zip: %w", err)
	}

	// Later members shadow earlier ones with the same name
	members := make(map[string]*zip.File, len(rc.File))
	for _, f := range rc.File {
		members[f.Name] = f
	}

	return &zipSource{path: path, reader: rc, members: members}, nil
}

func (s *zipSource) Path() string {
	return s.path
}

func (s *zipSource) ReadManifest() ([]byte, error) {
	f, ok := s.members[manifest.FileName]
	if !ok {
		return nil, fmt.Errorf("%w in zip: %s", ErrManifestNotFound, s.path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return data, nil
}

func (s *zipSource) OpenEntry(path string) (io.ReadCloser, error) {
	rel, err := manifest.NormalizePath(path)
	if err != nil {
		return nil, err
	}

	f, ok := s.members[rel]
	if !ok {
		return nil, newEntryError(ErrMissingZipEntry, rel)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %s: %w", rel, err)
	}
	return rc, nil
}

func (s *zipSource) ListFiles() ([]string, []string, error) {
	files := make([]string, 0, len(s.members))
	for name := range s.members {
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil, nil
}

func (s *zipSource) Close() error {
	return s.reader.Close()
}
