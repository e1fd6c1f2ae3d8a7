// Package sums verifies SHA256SUMS files: one "<sha256> <path>" line per
// file, paths relative to the directory holding the sums file.
package sums

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/quantmind-br/bundlecheck/internal/domain"
	"github.com/quantmind-br/bundlecheck/internal/utils"
)

// FileName is the conventional name of a sums file
const FileName = "SHA256SUMS.txt"

// Subject names a sums verification in reports
const Subject = "SHA256SUMS"

var lineRegex = regexp.MustCompile(`^([a-fA-F0-9]{64})\s+(.+)$`)

// ErrInvalidLine indicates a line that is neither blank, a comment nor a
// digest line
var ErrInvalidLine = errors.New("invalid SHA256SUMS line")

// Entry is one line of a sums file
type Entry struct {
	Path   string
	SHA256 string
}

// Parse reads the entries of a sums file. Blank lines and lines starting
// with '#' are ignored.
func Parse(text string) ([]Entry, error) {
	var entries []Entry
	for i, raw := range splitLines(text) {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		match := lineRegex.FindStringSubmatch(line)
		if match == nil {
			return nil, fmt.Errorf("%w %d: %q", ErrInvalidLine, lineNo, raw)
		}

		path := strings.TrimSpace(match[2])
		if strings.HasPrefix(path, "*") {
			path = strings.TrimSpace(path[1:])
		}
		path = strings.TrimPrefix(path, "./")
		if path == "" {
			return nil, fmt.Errorf("empty path in SHA256SUMS line %d", lineNo)
		}

		entries = append(entries, Entry{Path: path, SHA256: strings.ToLower(match[1])})
	}
	return entries, nil
}

// splitLines breaks text on \n, \r\n and \r without a trailing empty line
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// Verifier checks sums files against the files they list
type Verifier struct {
	logger *utils.Logger
}

// NewVerifier creates a Verifier. A nil logger discards all output.
func NewVerifier(logger *utils.Logger) *Verifier {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Verifier{logger: logger.WithComponent("sums")}
}

var defaultVerifier = NewVerifier(nil)

// VerifyFile checks the sums file at path with a default Verifier
func VerifyFile(path string) (bool, []string) {
	res := defaultVerifier.VerifyResult(path)
	return res.OK, res.Issues
}

// VerifyResult checks every entry of the sums file at path
func (v *Verifier) VerifyResult(path string) domain.Result {
	text, err := utils.ReadTextFile(path)
	if err != nil {
		return domain.FailedResult(Subject, err)
	}
	entries, err := Parse(text)
	if err != nil {
		return domain.FailedResult(Subject, err)
	}

	base := filepath.Dir(path)
	issues := []string{}
	for _, entry := range entries {
		if issue := v.checkEntry(base, entry); issue != "" {
			issues = append(issues, issue)
		}
	}

	v.logger.WithPath(path).Debug().
		Int("entries", len(entries)).
		Int("issues", len(issues)).
		Msg("Verified sums file")
	return domain.NewResult(Subject, issues)
}

func (v *Verifier) checkEntry(base string, entry Entry) string {
	target := filepath.Join(base, filepath.FromSlash(entry.Path))

	info, err := os.Stat(target)
	if err != nil {
		return "missing: " + entry.Path
	}
	if linkInfo, err := os.Lstat(target); err == nil && linkInfo.Mode()&fs.ModeSymlink != 0 {
		return "symlink-not-allowed: " + entry.Path
	}
	if !info.Mode().IsRegular() {
		return "not-a-file: " + entry.Path
	}

	actual, err := utils.HashFile(target)
	if err != nil {
		return fmt.Sprintf("hash-failed: %s: %v", entry.Path, err)
	}
	if !strings.EqualFold(actual, entry.SHA256) {
		return fmt.Sprintf("sha256-mismatch: %s: expected %s got %s", entry.Path, entry.SHA256, actual)
	}
	return ""
}
