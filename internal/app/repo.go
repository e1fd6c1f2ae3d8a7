package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantmind-br/bundlecheck/internal/bundle"
	"github.com/quantmind-br/bundlecheck/internal/domain"
	"github.com/quantmind-br/bundlecheck/internal/sums"
	"github.com/quantmind-br/bundlecheck/internal/utils"
)

// RepoSubject names repository reports
const RepoSubject = "repo"

const anchorSuffix = ".zip.sha256"

// skipDirs are never descended into while discovering sums files
var skipDirs = []string{".git"}

// anchorJob tracks one *.zip.sha256 anchor through the run
type anchorJob struct {
	anchorPath string
	zipPath    string
	expected   string
	issues     []string
	verify     bool
}

// Run verifies every sums file, bundle anchor and the index under root.
// Issues appear in check order: sums files, then anchors, then the index.
func (o *Orchestrator) Run(ctx context.Context, root string) (*domain.Report, error) {
	start := time.Now()

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to access root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	o.logger.Info().
		Str("root", abs).
		Int("workers", o.workers).
		Msg("Starting repository verification")

	report := domain.NewReport(RepoSubject)

	if err := o.checkSums(ctx, abs, report); err != nil {
		return nil, err
	}
	if err := o.checkAnchors(ctx, abs, report); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.checkIndex(abs, report)

	o.logger.Info().
		Bool("ok", report.OK).
		Int("issues", len(report.Issues)).
		Int("sums_files", report.Checked.SumsFiles).
		Int("bundles", report.Checked.Bundles).
		Dur("duration", time.Since(start)).
		Msg("Repository verification completed")

	return report, nil
}

func (o *Orchestrator) checkSums(ctx context.Context, root string, report *domain.Report) error {
	files, err := utils.FindFiles(root, skipDirs, func(name string) bool {
		return name == sums.FileName
	})
	if err != nil {
		return domain.NewCheckError(sums.FileName, err)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := o.VerifySums(path)
		report.Checked.SumsFiles++
		report.Add(utils.SlashRel(root, path), res.Issues...)
	}
	return nil
}

func (o *Orchestrator) checkAnchors(ctx context.Context, root string, report *domain.Report) error {
	anchorsDir := filepath.Join(root, filepath.FromSlash(o.config.Repo.AnchorsDir))
	anchors, err := utils.FindFiles(anchorsDir, nil, func(name string) bool {
		return strings.HasSuffix(name, anchorSuffix)
	})
	if err != nil {
		return domain.NewCheckError(o.config.Repo.AnchorsDir, err)
	}

	jobs := make([]*anchorJob, 0, len(anchors))
	var pending []*anchorJob
	for _, anchorPath := range anchors {
		job := o.prepareAnchor(root, anchorPath)
		jobs = append(jobs, job)
		if job.verify {
			pending = append(pending, job)
		}
	}
	report.Checked.Anchors = len(jobs)

	if len(pending) > 0 {
		var bar interface{ Add(int) error }
		if o.progress {
			pb := utils.NewProgressBar(len(pending), utils.DescVerifying)
			defer func() { _ = pb.Finish() }()
			bar = pb
		}

		utils.ParallelForEach(ctx, pending, o.workers, func(ctx context.Context, job *anchorJob) error {
			o.verifyAnchor(ctx, root, job)
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Checked.Bundles = len(pending)
	}

	for _, job := range jobs {
		report.Add("", job.issues...)
	}
	return nil
}

// prepareAnchor resolves the zip an anchor refers to and reads the
// expected digest
func (o *Orchestrator) prepareAnchor(root, anchorPath string) *anchorJob {
	job := &anchorJob{
		anchorPath: anchorPath,
		zipPath:    strings.TrimSuffix(anchorPath, ".sha256"),
	}
	relAnchor := utils.SlashRel(root, anchorPath)

	if _, err := os.Stat(job.zipPath); err != nil {
		job.issues = append(job.issues,
			fmt.Sprintf("%s: missing zip: %s", relAnchor, filepath.Base(job.zipPath)))
		return job
	}

	expected, err := readAnchor(anchorPath)
	switch {
	case err != nil:
		job.issues = append(job.issues, fmt.Sprintf("%s: unable to read anchor: %v", relAnchor, err))
		return job
	case expected == "":
		job.issues = append(job.issues, fmt.Sprintf("%s: empty anchor file", relAnchor))
	}

	job.expected = expected
	job.verify = true
	return job
}

// verifyAnchor runs a strict bundle check and, when it passes, compares
// the declared bundle digest with the anchor
func (o *Orchestrator) verifyAnchor(ctx context.Context, root string, job *anchorJob) {
	relZip := utils.SlashRel(root, job.zipPath)

	res := o.VerifyBundle(ctx, job.zipPath, true)
	if !res.OK {
		for _, issue := range res.Issues {
			job.issues = append(job.issues, relZip+": "+issue)
		}
		return
	}

	m, err := bundle.ReadManifest(job.zipPath)
	if err != nil {
		job.issues = append(job.issues,
			fmt.Sprintf("%s: unable to read manifest for bundle-sha check: %v", relZip, err))
		return
	}
	if m.BundleSHA256 != "" && job.expected != "" && m.BundleSHA256 != job.expected {
		job.issues = append(job.issues,
			fmt.Sprintf("%s: expected bundle_sha256 %s but manifest declares %s",
				utils.SlashRel(root, job.anchorPath), job.expected, m.BundleSHA256))
	}
}

// readAnchor returns the first token of an anchor file, lowercased and
// without a sha256: prefix
func readAnchor(path string) (string, error) {
	text, err := utils.ReadTextFile(path)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	token := strings.ToLower(fields[0])
	return strings.TrimPrefix(token, "sha256:"), nil
}

func (o *Orchestrator) checkIndex(root string, report *domain.Report) {
	name := o.config.Repo.IndexFile
	path := filepath.Join(root, filepath.FromSlash(name))
	if _, err := os.Stat(path); err != nil {
		return
	}
	prefix := filepath.ToSlash(name)

	text, err := utils.ReadTextFile(path)
	if err != nil {
		report.Add(prefix, fmt.Sprintf("invalid json: %v", err))
		return
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		report.Add(prefix, fmt.Sprintf("invalid json: %v", err))
		return
	}
	index, ok := doc.(map[string]any)
	if !ok {
		report.Add(prefix, "unexpected schema")
		return
	}
	if schema, _ := index["schema"].(string); schema != o.config.Repo.IndexSchema {
		report.Add(prefix, "unexpected schema")
		return
	}

	sumsRows, _ := index["sha256sums"].([]any)
	bundleRows, _ := index["bundles"].([]any)

	for _, row := range sumsRows {
		rel, expected, ok := indexRow(row, "sha256")
		if !ok {
			continue
		}
		report.Checked.Index++
		actual, found, err := hashIndexed(root, rel)
		switch {
		case !found:
			report.Add(prefix, "missing file: "+rel)
		case err != nil:
			report.Add(prefix, fmt.Sprintf("unable to hash %s: %v", rel, err))
		case actual != expected:
			report.Add(prefix, fmt.Sprintf("sha256 mismatch for %s: expected %s got %s", rel, expected, actual))
		}
	}

	for _, row := range bundleRows {
		rel, expected, ok := indexRow(row, "zip_sha256")
		if !ok {
			continue
		}
		report.Checked.Index++
		actual, found, err := hashIndexed(root, rel)
		switch {
		case !found:
			report.Add(prefix, "missing bundle zip: "+rel)
		case err != nil:
			report.Add(prefix, fmt.Sprintf("unable to hash %s: %v", rel, err))
		case actual != expected:
			report.Add(prefix, fmt.Sprintf("zip_sha256 mismatch for %s: expected %s got %s", rel, expected, actual))
		}
	}
}

// indexRow extracts the path and expected digest of an index row. Rows
// that are not objects or lack either value are ignored.
func indexRow(row any, digestField string) (string, string, bool) {
	fields, ok := row.(map[string]any)
	if !ok {
		return "", "", false
	}
	rel := scalarString(fields["path"])
	expected := strings.ToLower(strings.TrimSpace(scalarString(fields[digestField])))
	if rel == "" || expected == "" {
		return "", "", false
	}
	return rel, expected, true
}

// hashIndexed hashes a root-relative file, reporting found=false when
// nothing exists at that path
func hashIndexed(root, rel string) (string, bool, error) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	if _, err := os.Stat(path); err != nil {
		return "", false, nil
	}
	digest, err := utils.HashFile(path)
	return digest, true, err
}

// scalarString renders a decoded JSON scalar; null and false are empty
func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if !val {
			return ""
		}
		return "true"
	default:
		return fmt.Sprint(val)
	}
}
