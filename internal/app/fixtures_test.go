package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/bundlecheck/internal/config"
	"github.com/quantmind-br/bundlecheck/internal/manifest"
)

func sumHex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// testConfig returns defaults with logging silenced and caching off
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Cache.Enabled = false
	cfg.Concurrency.Workers = 2
	cfg.Output.Progress = false
	cfg.Logging.Level = "error"
	cfg.Logging.Format = "json"
	return cfg
}

// repoFixture lays out a repository tree under a temporary root
type repoFixture struct {
	t    *testing.T
	root string
}

func newRepo(t *testing.T) *repoFixture {
	t.Helper()
	return &repoFixture{t: t, root: t.TempDir()}
}

// write creates rel with content and returns its absolute path
func (r *repoFixture) write(rel, content string) string {
	r.t.Helper()
	full := filepath.Join(r.root, filepath.FromSlash(rel))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(r.t, os.WriteFile(full, []byte(content), 0644))
	return full
}

// sums writes files into dir together with a SHA256SUMS.txt listing them
func (r *repoFixture) sums(dir string, files map[string]string) {
	r.t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		r.write(dir+"/"+name, files[name])
		fmt.Fprintf(&b, "%s  %s\n", sumHex(files[name]), name)
	}
	r.write(dir+"/SHA256SUMS.txt", b.String())
}

// zipBundle writes a sealed artifact bundle archive at rel and returns its
// declared bundle_sha256
func (r *repoFixture) zipBundle(rel string, files map[string]string, extra ...string) string {
	r.t.Helper()

	data, bundleSHA := sealedManifest(r.t, files)

	members := map[string]string{manifest.FileName: string(data)}
	for name, content := range files {
		members[name] = content
	}
	for _, name := range extra {
		members[name] = "extra"
	}
	r.zip(rel, members)
	return bundleSHA
}

// zip writes an archive holding exactly members, in name order
func (r *repoFixture) zip(rel string, members map[string]string) {
	r.t.Helper()

	full := filepath.Join(r.root, filepath.FromSlash(rel))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0755))
	f, err := os.Create(full)
	require.NoError(r.t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(r.t, err)
		_, err = w.Write([]byte(members[name]))
		require.NoError(r.t, err)
	}
	require.NoError(r.t, zw.Close())
}

// sealedManifest builds a self-describing manifest for files
func sealedManifest(t *testing.T, files map[string]string) ([]byte, string) {
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
		rows = append(rows, map[string]any{"path": p, "sha256": sha})
		entries = append(entries, manifest.Entry{Path: p, SHA256: sha})
	}

	bundleSHA := manifest.AggregateBundleHash(entries)
	doc := map[string]any{
		"schema":        "helix.artifact_bundle.v1",
		"entries":       rows,
		"bundle_sha256": bundleSHA,
	}
	self, err := manifest.SelfHash(doc)
	require.NoError(t, err)
	doc["manifest_sha256"] = self

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data, bundleSHA
}

// index writes an INDEX.json document
func (r *repoFixture) index(doc map[string]any) {
	r.t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(r.t, err)
	r.write("INDEX.json", string(data))
}

func (r *repoFixture) hash(rel string) string {
	r.t.Helper()
	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(rel)))
	require.NoError(r.t, err)
	return sumHex(string(data))
}
