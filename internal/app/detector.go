package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/quantmind-br/bundlecheck/internal/bundle"
	"github.com/quantmind-br/bundlecheck/internal/manifest"
)

// TargetType represents the kind of artifact a path holds
type TargetType string

const (
	TargetBundle  TargetType = "bundle"
	TargetSums    TargetType = "sums"
	TargetRepo    TargetType = "repo"
	TargetUnknown TargetType = "unknown"
)

// DetectTarget determines what to verify at path.
// A directory with a manifest.json is a bundle; any other directory is a
// repository tree.
func DetectTarget(path string) TargetType {
	info, err := os.Stat(path)
	if err != nil {
		return TargetUnknown
	}

	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(path, manifest.FileName)); err == nil {
			return TargetBundle
		}
		return TargetRepo
	}

	if bundle.IsArchive(path) {
		return TargetBundle
	}

	name := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(name, "sha256sums") {
		return TargetSums
	}

	return TargetUnknown
}

// IsValidTarget checks if a target type can be verified
func IsValidTarget(t TargetType) bool {
	switch t {
	case TargetBundle, TargetSums, TargetRepo:
		return true
	default:
		return false
	}
}
