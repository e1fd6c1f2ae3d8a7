package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/quantmind-br/bundlecheck/internal/domain"
	"github.com/quantmind-br/bundlecheck/internal/manifest"
	"github.com/quantmind-br/bundlecheck/internal/utils"
)

// Subject names a bundle verification in reports
const Subject = "artifact bundle"

// Verifier checks bundles against their manifests
type Verifier struct {
	logger *utils.Logger
}

// NewVerifier creates a Verifier. A nil logger discards all output.
func NewVerifier(logger *utils.Logger) *Verifier {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Verifier{logger: logger.WithComponent("bundle")}
}

var defaultVerifier = NewVerifier(nil)

// Verify checks the bundle at path with a default Verifier
func Verify(path string, strict bool) (bool, []string) {
	return defaultVerifier.Verify(path, strict)
}

// Verify checks the bundle at path and returns whether it is intact along
// with every discrepancy found
func (v *Verifier) Verify(path string, strict bool) (bool, []string) {
	res := v.VerifyResult(path, strict)
	return res.OK, res.Issues
}

// VerifyResult checks the bundle at path. Failures that stop the check
// early are reported as a single verify-failed issue.
func (v *Verifier) VerifyResult(path string, strict bool) (res domain.Result) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error().Interface("panic", r).Str("bundle", path).Msg("Verification aborted")
			res = domain.FailedResult(Subject, fmt.Errorf("%v", r))
		}
	}()

	issues, err := v.verify(path, strict)
	if err != nil {
		v.logger.Debug().Err(err).Str("bundle", path).Msg("Verification failed")
		return domain.FailedResult(Subject, err)
	}
	return domain.NewResult(Subject, issues)
}

func (v *Verifier) verify(path string, strict bool) ([]string, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	m, err := LoadManifest(src)
	if err != nil {
		return nil, err
	}
	if m.Skipped > 0 {
		v.logger.WithPath(path).Warn().
			Int("skipped", m.Skipped).
			Msg("Ignored manifest rows that are not objects")
	}

	issues := []string{}
	for _, entry := range m.Entries {
		issues = append(issues, v.checkEntry(src, entry)...)
	}

	if strict {
		extra, err := v.diffFiles(src, m)
		if err != nil {
			return nil, err
		}
		issues = append(issues, extra...)
	}

	if m.SelfDescribing() {
		seals, err := checkSeals(m)
		if err != nil {
			return nil, err
		}
		issues = append(issues, seals...)
	}

	return issues, nil
}

// checkEntry hashes one declared entry and compares it with the manifest
func (v *Verifier) checkEntry(src Source, entry manifest.Entry) []string {
	sum, size, err := hashEntry(src, entry.Path)
	if err != nil {
		v.logger.Debug().Err(err).Str("entry", entry.Path).Msg("Entry unreadable")
		return []string{err.Error()}
	}

	var issues []string
	if sum != entry.SHA256 {
		issues = append(issues, fmt.Sprintf("sha256-mismatch: %s: expected %s got %s", entry.Path, entry.SHA256, sum))
	}
	if entry.HasSize() && *entry.Size != size {
		issues = append(issues, fmt.Sprintf("size-mismatch: %s: expected %d got %d", entry.Path, *entry.Size, size))
	}

	v.logger.Debug().
		Str("entry", entry.Path).
		Int64("size", size).
		Bool("ok", len(issues) == 0).
		Msg("Checked entry")
	return issues
}

func hashEntry(src Source, path string) (string, int64, error) {
	rc, err := src.OpenEntry(path)
	if err != nil {
		return "", 0, err
	}
	defer rc.Close()

	h := sha256.New()
	n, err := io.Copy(h, rc)
	if err != nil {
		return "", 0, fmt.Errorf("read entry %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// diffFiles compares the files present in the bundle with the declared set
func (v *Verifier) diffFiles(src Source, m *manifest.Manifest) ([]string, error) {
	files, issues, err := src.ListFiles()
	if err != nil {
		return nil, err
	}

	expected := m.ExpectedPaths()
	actual := make(map[string]struct{}, len(files))
	for _, f := range files {
		actual[f] = struct{}{}
	}

	var extra, missing []string
	for f := range actual {
		if _, ok := expected[f]; !ok {
			extra = append(extra, f)
		}
	}
	for f := range expected {
		if _, ok := actual[f]; !ok {
			missing = append(missing, f)
		}
	}
	sort.Strings(extra)
	sort.Strings(missing)

	for _, f := range extra {
		issues = append(issues, "extra-file: "+f)
	}
	for _, f := range missing {
		issues = append(issues, "missing-file: "+f)
	}
	return issues, nil
}

// checkSeals compares the declared aggregate hashes with computed ones
func checkSeals(m *manifest.Manifest) ([]string, error) {
	var issues []string

	bundleSHA := manifest.AggregateBundleHash(m.Entries)
	switch {
	case m.BundleSHA256 == "":
		issues = append(issues, "bundle-sha256-missing")
	case m.BundleSHA256 != bundleSHA:
		issues = append(issues, fmt.Sprintf("bundle-sha256-mismatch: expected %s got %s", m.BundleSHA256, bundleSHA))
	}

	selfSHA, err := manifest.SelfHash(m.Raw)
	if err != nil {
		return nil, err
	}
	switch {
	case m.ManifestSHA256 == "":
		issues = append(issues, "manifest-sha256-missing")
	case m.ManifestSHA256 != selfSHA:
		issues = append(issues, fmt.Sprintf("manifest-sha256-mismatch: expected %s got %s", m.ManifestSHA256, selfSHA))
	}

	return issues, nil
}
