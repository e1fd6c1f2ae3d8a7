package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/bundlecheck/internal/manifest"
)

func sumHex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// sealedManifest builds a self-describing manifest for files. Options run
// before manifest_sha256 is computed; an option that sets manifest_sha256
// keeps its value.
func sealedManifest(t *testing.T, files map[string]string, opts ...func(doc map[string]any)) []byte {
	t.Helper()

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	rows := make([]any, 0, len(paths))
	entries := make([]manifest.Entry, 0, len(paths))
	for _, p := range paths {
		sha := sumHex(files[p])
		rows = append(rows, map[string]any{"path": p, "sha256": sha, "size": len(files[p])})
		entries = append(entries, manifest.Entry{Path: p, SHA256: sha})
	}

	doc := map[string]any{
		"schema":        "helix.artifact_bundle.v1",
		"entries":       rows,
		"bundle_sha256": manifest.AggregateBundleHash(entries),
	}
	for _, opt := range opts {
		opt(doc)
	}
	if _, ok := doc["manifest_sha256"]; !ok {
		self, err := manifest.SelfHash(doc)
		require.NoError(t, err)
		doc["manifest_sha256"] = self
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	return data
}

// writeDirBundle lays files and the manifest out under a fresh directory
func writeDirBundle(t *testing.T, files map[string]string, manifestJSON []byte) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "bundle")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for p, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	if manifestJSON != nil {
		require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), manifestJSON, 0644))
	}
	return dir
}

type zipMember struct {
	name string
	data string
}

// writeZipBundle writes members in order into an archive called name
func writeZipBundle(t *testing.T, name string, members []zipMember) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, m := range members {
		w, err := zw.Create(m.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(m.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func symlinkOrSkip(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
}
