package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/bundlecheck/internal/manifest"
)

const hashHi = "8f434346648f6b96df89dda901c5176b10a6d83961dd3c1ac88b59b2dc327aa4"

func TestVerify_DirBundleOK(t *testing.T) {
	files := map[string]string{"a.txt": "hi"}
	dir := writeDirBundle(t, files, sealedManifest(t, files))

	ok, issues := Verify(dir, true)
	assert.True(t, ok)
	assert.Empty(t, issues)
}

func TestVerify_ZipBundleOK(t *testing.T) {
	files := map[string]string{"a.txt": "hi", "docs/readme.md": "# readme"}
	path := writeZipBundle(t, "bundle.zip", []zipMember{
		{name: manifest.FileName, data: string(sealedManifest(t, files))},
		{name: "a.txt", data: "hi"},
		{name: "docs/", data: ""},
		{name: "docs/readme.md", data: "# readme"},
	})

	ok, issues := Verify(path, true)
	assert.True(t, ok)
	assert.Empty(t, issues)
}

func TestVerify_ArchiveExtensionCaseInsensitive(t *testing.T) {
	files := map[string]string{"a.txt": "hi"}
	path := writeZipBundle(t, "BUNDLE.HXS", []zipMember{
		{name: manifest.FileName, data: string(sealedManifest(t, files))},
		{name: "a.txt", data: "hi"},
	})

	ok, issues := Verify(path, true)
	assert.True(t, ok)
	assert.Empty(t, issues)
}

func TestVerify_BundleSealMissing(t *testing.T) {
	files := map[string]string{"a.txt": "hi"}
	data := sealedManifest(t, files, func(doc map[string]any) {
		delete(doc, "bundle_sha256")
	})
	dir := writeDirBundle(t, files, data)

	ok, issues := Verify(dir, true)
	assert.False(t, ok)
	assert.Equal(t, []string{"bundle-sha256-missing"}, issues)
}

func TestVerify_ManifestSealMissing(t *testing.T) {
	files := map[string]string{"a.txt": "hi"}
	data := sealedManifest(t, files, func(doc map[string]any) {
		doc["manifest_sha256"] = ""
	})
	dir := writeDirBundle(t, files, data)

	ok, issues := Verify(dir, true)
	assert.False(t, ok)
	assert.Equal(t, []string{"manifest-sha256-missing"}, issues)
}

func TestVerify_BundleSealMismatch(t *testing.T) {
	files := map[string]string{"a.txt": "hi"}
	wrong := sumHex("wrong")
	data := sealedManifest(t, files, func(doc map[string]any) {
		doc["bundle_sha256"] = wrong
	})
	dir := writeDirBundle(t, files, data)

	expected := manifest.AggregateBundleHash([]manifest.Entry{{Path: "a.txt", SHA256: hashHi}})

	ok, issues := Verify(dir, true)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"bundle-sha256-mismatch: expected " + wrong + " got " + expected,
	}, issues)
}

func TestVerify_ManifestTampered(t *testing.T) {
	files := map[string]string{"a.txt": "hi"}
	sealed := sealedManifest(t, files)

	m, err := manifest.ParseBytes(sealed)
	require.NoError(t, err)
	m.Raw["note"] = "added after sealing"
	tampered := sealedManifest(t, files, func(doc map[string]any) {
		doc["note"] = "added after sealing"
		doc["manifest_sha256"] = m.ManifestSHA256
	})
	dir := writeDirBundle(t, files, tampered)

	actual, err := manifest.SelfHash(m.Raw)
	require.NoError(t, err)

	ok, issues := Verify(dir, true)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"manifest-sha256-mismatch: expected " + m.ManifestSHA256 + " got " + actual,
	}, issues)
}

func TestVerify_ZipExtraFile(t *testing.T) {
	files := map[string]string{"a.txt": "hi"}
	path := writeZipBundle(t, "bundle.zip", []zipMember{
		{name: manifest.FileName, data: string(sealedManifest(t, files))},
		{name: "a.txt", data: "hi"},
		{name: "b.txt", data: "extra"},
	})

	ok, issues := Verify(path, true)
	assert.False(t, ok)
	assert.Equal(t, []string{"extra-file: b.txt"}, issues)

	ok, issues = Verify(path, false)
	assert.True(t, ok)
	assert.Empty(t, issues)
}

func TestVerify_ContentMutated(t *testing.T) {
	files := map[string]string{"a.txt": "hi"}
	dir := writeDirBundle(t, files, sealedManifest(t, files))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0644))

	ok, issues := Verify(dir, true)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"sha256-mismatch: a.txt: expected " + hashHi + " got " + sumHex("hello"),
		"size-mismatch: a.txt: expected 2 got 5",
	}, issues)
}

func TestVerify_EntryRemoved(t *testing.T) {
	files := map[string]string{"a.txt": "hi", "b.txt": "keep"}
	dir := writeDirBundle(t, files, sealedManifest(t, files))
	require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))

	ok, issues := Verify(dir, true)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"missing entry file: a.txt",
		"missing-file: a.txt",
	}, issues)

	ok, issues = Verify(dir, false)
	assert.False(t, ok)
	assert.Equal(t, []string{"missing entry file: a.txt"}, issues)
}

func TestVerify_ZipEntryMissing(t *testing.T) {
	files := map[string]string{"a.txt": "hi"}
	path := writeZipBundle(t, "bundle.zip", []zipMember{
		{name: manifest.FileName, data: string(sealedManifest(t, files))},
	})

	ok, issues := Verify(path, true)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"missing entry file in zip: a.txt",
		"missing-file: a.txt",
	}, issues)
}

func TestVerify_ZipDuplicateMemberLastWins(t *testing.T) {
	files := map[string]string{"a.txt": "hi"}
	path := writeZipBundle(t, "bundle.zip", []zipMember{
		{name: manifest.FileName, data: string(sealedManifest(t, files))},
		{name: "a.txt", data: "stale"},
		{name: "a.txt", data: "hi"},
	})

	ok, issues := Verify(path, true)
	assert.True(t, ok)
	assert.Empty(t, issues)
}

func TestVerify_SymlinkEntry(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("hi"), 0644))

	files := map[string]string{"a.txt": "hi"}
	dir := writeDirBundle(t, map[string]string{}, sealedManifest(t, files))
	symlinkOrSkip(t, outside, filepath.Join(dir, "a.txt"))

	ok, issues := Verify(dir, true)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"symlink not allowed: a.txt",
		"symlink not allowed in bundle: a.txt",
		"missing-file: a.txt",
	}, issues)

	ok, issues = Verify(dir, false)
	assert.False(t, ok)
	assert.Equal(t, []string{"symlink not allowed: a.txt"}, issues)
}

func TestVerify_EntryEscapesThroughDirectoryLink(t *testing.T) {
	outsideDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outsideDir, "x.txt"), []byte("hi"), 0644))

	files := map[string]string{"sub/x.txt": "hi"}
	dir := writeDirBundle(t, map[string]string{}, sealedManifest(t, files))
	symlinkOrSkip(t, outsideDir, filepath.Join(dir, "sub"))

	ok, issues := Verify(dir, true)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"entry escapes bundle root: sub/x.txt",
		"symlink not allowed in bundle: sub",
		"missing-file: sub/x.txt",
	}, issues)
}

func TestVerify_FilesKindSkipsSeals(t *testing.T) {
	dir := writeDirBundle(t, map[string]string{"a.txt": "hi"}, []byte(`{
		"files": [{"path": "a.txt", "sha256": "`+hashHi+`", "size": 2}]
	}`))

	ok, issues := Verify(dir, true)
	assert.True(t, ok)
	assert.Empty(t, issues)
}

func TestVerify_IssueOrdering(t *testing.T) {
	files := map[string]string{"a.txt": "hi", "b.txt": "bee"}
	data := sealedManifest(t, files, func(doc map[string]any) {
		delete(doc, "bundle_sha256")
		doc["manifest_sha256"] = nil
	})
	dir := writeDirBundle(t, files, data)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("ho"), 0644))
	require.NoError(t, os.Remove(filepath.Join(dir, "b.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z.txt"), []byte("z"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("c"), 0644))

	ok, issues := Verify(dir, true)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"sha256-mismatch: a.txt: expected " + hashHi + " got " + sumHex("ho"),
		"missing entry file: b.txt",
		"extra-file: c.txt",
		"extra-file: z.txt",
		"missing-file: b.txt",
		"bundle-sha256-missing",
		"manifest-sha256-missing",
	}, issues)
}

func TestVerify_SkipsNonObjectRows(t *testing.T) {
	dir := writeDirBundle(t, map[string]string{"a.txt": "hi"}, []byte(`{
		"files": ["a.txt", 42, {"path": "a.txt", "sha256": "`+hashHi+`"}]
	}`))

	ok, issues := Verify(dir, true)
	assert.True(t, ok)
	assert.Empty(t, issues)
}

func TestVerify_Fatal(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T) string
		expected func(path string) string
	}{
		{
			name: "missing path",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope")
			},
			expected: func(path string) string {
				return "verify-failed: unsupported bundle path: " + path
			},
		},
		{
			name: "unsupported extension",
			setup: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "bundle.tar")
				require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
				return p
			},
			expected: func(path string) string {
				return "verify-failed: unsupported bundle path: " + path
			},
		},
		{
			name: "dir without manifest",
			setup: func(t *testing.T) string {
				return writeDirBundle(t, map[string]string{"a.txt": "hi"}, nil)
			},
			expected: func(path string) string {
				return "verify-failed: manifest.json not found in dir: " + path
			},
		},
		{
			name: "zip without manifest",
			setup: func(t *testing.T) string {
				return writeZipBundle(t, "bundle.zip", []zipMember{{name: "a.txt", data: "hi"}})
			},
			expected: func(path string) string {
				return "verify-failed: manifest.json not found in zip: " + path
			},
		},
		{
			name: "no entry list",
			setup: func(t *testing.T) string {
				return writeDirBundle(t, nil, []byte(`{"schema": "x"}`))
			},
			expected: func(string) string {
				return "verify-failed: manifest missing entries/files list"
			},
		},
		{
			name: "unnormalized entry path",
			setup: func(t *testing.T) string {
				return writeDirBundle(t, nil, []byte(`{"entries": [{"path": "a/../b", "sha256": "`+hashHi+`"}]}`))
			},
			expected: func(string) string {
				return `verify-failed: entry path is not normalized: "a/../b"`
			},
		},
		{
			name: "bad digest",
			setup: func(t *testing.T) string {
				return writeDirBundle(t, nil, []byte(`{"entries": [{"path": "a.txt", "sha256": "abc"}]}`))
			},
			expected: func(string) string {
				return `verify-failed: invalid sha256 for "a.txt": "abc"`
			},
		},
		{
			name: "corrupt archive",
			setup: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "bundle.zip")
				require.NoError(t, os.WriteFile(p, []byte("not a zip"), 0644))
				return p
			},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)

			ok, issues := Verify(path, true)
			assert.False(t, ok)
			require.Len(t, issues, 1)
			if tt.expected != nil {
				assert.Equal(t, tt.expected(path), issues[0])
			} else {
				assert.Contains(t, issues[0], "verify-failed: ")
			}
		})
	}
}

func TestVerifier_VerifyResult(t *testing.T) {
	files := map[string]string{"a.txt": "hi"}
	dir := writeDirBundle(t, files, sealedManifest(t, files))

	res := NewVerifier(nil).VerifyResult(dir, true)
	assert.Equal(t, Subject, res.Subject)
	assert.True(t, res.OK)
	assert.NotNil(t, res.Issues)
	assert.Empty(t, res.Issues)
}
