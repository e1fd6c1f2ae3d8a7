package cache

import (
	"time"

	"github.com/quantmind-br/bundlecheck/internal/domain"
)

// Ensure BadgerCache implements domain.Cache
var _ domain.Cache = (*BadgerCache)(nil)

// Options contains cache configuration options
type Options struct {
	Directory string
	InMemory  bool
	Logger    bool

	// OpenRetries bounds how often opening is retried while another
	// process holds the directory lock
	OpenRetries   int
	RetryInterval time.Duration
}

// DefaultOptions returns default cache options
func DefaultOptions() Options {
	return Options{
		Directory:     "",
		InMemory:      false,
		Logger:        false,
		OpenRetries:   5,
		RetryInterval: 200 * time.Millisecond,
	}
}
