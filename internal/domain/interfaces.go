package domain

import (
	"context"
	"time"
)

// BundleVerifier checks a bundle directory or archive against its manifest
type BundleVerifier interface {
	// VerifyResult verifies the bundle at path. It never returns an error;
	// every failure is reported as an issue.
	VerifyResult(path string, strict bool) Result
}

// SumsVerifier checks the files listed in a SHA256SUMS file
type SumsVerifier interface {
	// VerifyResult verifies every line of the sums file at path
	VerifyResult(path string) Result
}

// Cache defines the interface for verification result caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Has checks if a key exists in cache
	Has(ctx context.Context, key string) bool
	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error
	// Close releases cache resources
	Close() error
}

// ReportWriter renders a finished report
type ReportWriter interface {
	Write(report *Report) error
}
